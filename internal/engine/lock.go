package engine

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"dynaform/internal/model"
)

//go:embed lock_rules.yaml
var defaultLockRules []byte

// LockContext describes who is looking at an answer sheet
type LockContext struct {
	Editing   bool // the sheet is opened for editing rather than review
	Reference bool // the viewer is a reference filling their part of the sheet
}

// UnlockRule keeps matching questions editable on frozen sheets. Empty
// fields match anything; set fields must all match.
type UnlockRule struct {
	Name       string   `yaml:"name"`
	ObjectPath string   `yaml:"objectPath"`
	Attributes []string `yaml:"attributes"`
	Labels     []string `yaml:"labels"`
	Styles     []string `yaml:"styles"`
}

// UnmarshalYAML rejects rules that would match every question.
func (r *UnlockRule) UnmarshalYAML(value *yaml.Node) error {
	type plain UnlockRule
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if p.ObjectPath == "" && len(p.Attributes) == 0 && len(p.Labels) == 0 && len(p.Styles) == 0 {
		return fmt.Errorf("unlock rule %q at line %d matches every question", p.Name, value.Line)
	}
	*r = UnlockRule(p)
	return nil
}

func (r *UnlockRule) matches(q *model.Question) bool {
	if r.ObjectPath != "" && r.ObjectPath != q.ObjectPath {
		return false
	}
	if len(r.Attributes) > 0 && !slices.Contains(r.Attributes, q.AttributeName) {
		return false
	}
	if len(r.Labels) > 0 && !slices.Contains(r.Labels, q.Label) {
		return false
	}
	if len(r.Styles) > 0 && !slices.Contains(r.Styles, q.Style) {
		return false
	}
	return true
}

// LockRules decides which questions are read-only for a viewer.
type LockRules struct {
	Unlocked []UnlockRule `yaml:"unlocked"`
}

// DefaultLockRules returns the built-in rule set
func DefaultLockRules() *LockRules {
	rules, err := ParseLockRules(defaultLockRules)
	if err != nil {
		panic(fmt.Sprintf("engine: embedded lock rules: %v", err))
	}
	return rules
}

// ParseLockRules decodes a YAML rule set
func ParseLockRules(data []byte) (*LockRules, error) {
	var rules LockRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse lock rules: %w", err)
	}
	return &rules, nil
}

// LoadLockRules reads a YAML rule set from path, or the built-in set when
// path is empty.
func LoadLockRules(path string) (*LockRules, error) {
	if path == "" {
		return DefaultLockRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lock rules: %w", err)
	}
	return ParseLockRules(data)
}

// IsLocked reports whether q is read-only. Outside editing everything is
// locked; otherwise questions on frozen sheets are locked for everyone but
// references, unless an unlock rule matches.
func (l *LockRules) IsLocked(q *model.Question, sheet *model.AnswerSheet, lc LockContext) bool {
	if !lc.Editing {
		return true
	}
	for i := range l.Unlocked {
		if l.Unlocked[i].matches(q) {
			return false
		}
	}
	return sheet.Frozen && !lc.Reference
}
