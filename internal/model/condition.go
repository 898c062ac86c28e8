package model

// ConditionMode selects how a condition's expression is interpreted
type ConditionMode string

const (
	ConditionMatch      ConditionMode = "match"      // accepted values separated by ';' or ','
	ConditionExpression ConditionMode = "expression" // boolean expression over the trigger's response
)

// Condition makes the toggled question depend on the trigger question's response
type Condition struct {
	ID         string        `json:"id" bson:"id"`
	TriggerID  string        `json:"triggerId" bson:"triggerId" validate:"required"`
	ToggleID   string        `json:"toggleId,omitempty" bson:"toggleId,omitempty"`
	Expression string        `json:"expression" bson:"expression"`
	Mode       ConditionMode `json:"mode,omitempty" bson:"mode,omitempty" validate:"omitempty,oneof=match expression"`
}

// IsExpression reports whether the expression is a boolean expression
func (c *Condition) IsExpression() bool {
	return c.Mode == ConditionExpression
}
