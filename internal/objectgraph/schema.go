package objectgraph

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

// Attribute types
const (
	TypeString = "string"
	TypeDate   = "date"
	TypeBool   = "bool"
	TypeNumber = "number"
)

// Kind describes one entity type of the object graph
type Kind struct {
	Attributes map[string]string `yaml:"attributes" validate:"dive,oneof=string date bool number"`
	Children   map[string]string `yaml:"children" validate:"dive,required"` // segment -> kind
}

// Schema lists the entity kinds reachable from an answer sheet
type Schema struct {
	Root       string          `yaml:"root" validate:"required"`
	DateLayout string          `yaml:"dateLayout" validate:"required"`
	Kinds      map[string]Kind `yaml:"kinds" validate:"required,dive"`
}

var validate = validator.New()

// DefaultSchema returns the built-in schema
func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("objectgraph: embedded schema: %v", err))
	}
	return s
}

// LoadSchema reads a schema from path, or the built-in one when path is empty
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a YAML schema
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse object schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks field constraints and that every referenced kind exists
func (s *Schema) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid object schema: %w", err)
	}
	if _, ok := s.Kinds[s.Root]; !ok {
		return fmt.Errorf("invalid object schema: root kind %q is not defined", s.Root)
	}
	for name, k := range s.Kinds {
		for segment, child := range k.Children {
			if _, ok := s.Kinds[child]; !ok {
				return fmt.Errorf("invalid object schema: %s.%s refers to unknown kind %q", name, segment, child)
			}
		}
	}
	return nil
}
