package model

import "time"

// AnswerSheet is one respondent's instance of a question sheet
type AnswerSheet struct {
	ID              string     `json:"id" bson:"_id"`
	QuestionSheetID string     `json:"questionSheetId" bson:"questionSheetId"`
	Type            string     `json:"type" bson:"type"`
	ObjectID        string     `json:"objectId,omitempty" bson:"objectId,omitempty"` // root of the bound object graph
	Frozen          bool       `json:"frozen" bson:"frozen"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Freeze marks the sheet submitted
func (s *AnswerSheet) Freeze(at time.Time) {
	s.Frozen = true
	s.SubmittedAt = &at
	s.UpdatedAt = at
}
