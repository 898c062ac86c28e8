package model

// QuestionKind selects how a question's value is captured and stored
type QuestionKind string

const (
	KindText   QuestionKind = "text"   // essay, phone, email, numeric, currency, simple
	KindChoice QuestionKind = "choice" // drop-down, radio, checkbox, yes-no, acceptance
	KindDate   QuestionKind = "date"   // mdy, my
	KindFile   QuestionKind = "file"
)

// Choice styles with special handling
const (
	StyleCheckbox   = "checkbox"
	StyleYesNo      = "yes-no"
	StyleAcceptance = "acceptance"
)

// ChoiceOptions is the payload carried by KindChoice questions
type ChoiceOptions struct {
	Content   string `json:"content,omitempty" bson:"content,omitempty"`     // "value;label" per line
	Source    string `json:"source,omitempty" bson:"source,omitempty"`       // local file or http(s) URL
	TextPath  string `json:"textPath,omitempty" bson:"textPath,omitempty"`   // label extraction path
	ValuePath string `json:"valuePath,omitempty" bson:"valuePath,omitempty"` // value extraction path
}

// Question is one schema-defined unit of input on a page
type Question struct {
	ID            string         `json:"id" bson:"id" validate:"required"`
	Kind          QuestionKind   `json:"kind" bson:"kind" validate:"required,oneof=text choice date file"`
	Label         string         `json:"label" bson:"label"`
	Style         string         `json:"style,omitempty" bson:"style,omitempty"`
	Required      bool           `json:"required" bson:"required"`
	RequiredWhen  *Condition     `json:"requiredWhen,omitempty" bson:"requiredWhen,omitempty"` // trigger-based requirement
	Slug          string         `json:"slug,omitempty" bson:"slug,omitempty" validate:"omitempty,min=4,max=36,slug"`
	ObjectPath    string         `json:"objectPath,omitempty" bson:"objectPath,omitempty"`
	AttributeName string         `json:"attributeName,omitempty" bson:"attributeName,omitempty"`
	Position      int            `json:"position" bson:"position"`
	Choice        *ChoiceOptions `json:"choice,omitempty" bson:"choice,omitempty"`
}

// IsBound reports whether the value lives on an external object attribute
// rather than in Answer records.
func (q *Question) IsBound() bool {
	return q.ObjectPath != "" && q.AttributeName != ""
}

// IsMultiValued reports whether the question accepts several values per sheet
func (q *Question) IsMultiValued() bool {
	return q.Kind == KindChoice && q.Style == StyleCheckbox
}
