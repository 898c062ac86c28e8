package engine

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"dynaform/internal/model"
)

// Form is a question sheet indexed for evaluation. It is immutable once
// built and can be shared between requests.
type Form struct {
	Sheet      *model.QuestionSheet
	questions  map[string]*model.Question
	page       map[string]int
	conditions map[string][]*model.Condition // by toggled question
	exprs      map[*model.Condition]hcl.Expression
}

// NewForm validates and indexes a question sheet. Expression conditions
// are parsed up front; a parse failure is a validation error.
func NewForm(qs *model.QuestionSheet) (*Form, error) {
	if err := qs.Validate(); err != nil {
		return nil, ValidationError(err)
	}
	f := &Form{
		Sheet:      qs,
		questions:  make(map[string]*model.Question),
		page:       make(map[string]int),
		conditions: make(map[string][]*model.Condition),
		exprs:      make(map[*model.Condition]hcl.Expression),
	}
	for i := range qs.Pages {
		for j := range qs.Pages[i].Questions {
			q := &qs.Pages[i].Questions[j]
			f.questions[q.ID] = q
			f.page[q.ID] = f.pageNumber(i)
			if q.RequiredWhen != nil {
				if err := f.compile(q.RequiredWhen); err != nil {
					return nil, err
				}
			}
		}
	}
	for i := range qs.Conditions {
		c := &qs.Conditions[i]
		if c.ToggleID != "" {
			f.conditions[c.ToggleID] = append(f.conditions[c.ToggleID], c)
		}
		if err := f.compile(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Form) compile(c *model.Condition) error {
	if !c.IsExpression() {
		return nil
	}
	expr, err := parseExpression(c.Expression)
	if err != nil {
		return ValidationError(fmt.Errorf("condition %q: %w", c.ID, err))
	}
	f.exprs[c] = expr
	return nil
}

// Question looks up a question by ID
func (f *Form) Question(id string) *model.Question {
	return f.questions[id]
}

// Conditions returns the conditions toggling a question
func (f *Form) Conditions(questionID string) []*model.Condition {
	return f.conditions[questionID]
}

// Page returns the page with the given number
func (f *Form) Page(number int) (*model.Page, bool) {
	for i := range f.Sheet.Pages {
		if f.pageNumber(i) == number {
			return &f.Sheet.Pages[i], true
		}
	}
	return nil, false
}

// pageNumber is the page's number, or its 1-based position when unnumbered
func (f *Form) pageNumber(i int) int {
	if n := f.Sheet.Pages[i].Number; n > 0 {
		return n
	}
	return i + 1
}

// PageOf returns the page number holding a question
func (f *Form) PageOf(questionID string) (int, bool) {
	n, ok := f.page[questionID]
	return n, ok
}
