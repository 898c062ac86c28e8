package model

import "time"

// Attachment is the uploaded file carried by an answer to a file question
type Attachment struct {
	Filename    string `json:"filename" bson:"filename"`
	ContentType string `json:"contentType" bson:"contentType"`
	Size        int64  `json:"size" bson:"size"`
	Data        []byte `json:"-" bson:"data"`
}

// Answer is one stored value for one question on one answer sheet.
// Multi-valued questions have one Answer per selected value.
type Answer struct {
	ID            string      `json:"id" bson:"_id,omitempty"`
	QuestionID    string      `json:"questionId" bson:"questionId"`
	AnswerSheetID string      `json:"answerSheetId" bson:"answerSheetId"`
	Value         string      `json:"value" bson:"value"`
	Attachment    *Attachment `json:"attachment,omitempty" bson:"attachment,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// IsPersisted reports whether the answer has been written to the store
func (a *Answer) IsPersisted() bool {
	return a.ID != ""
}

// HasResponse is true for any non-empty value or an attachment
func (a *Answer) HasResponse() bool {
	return a.Value != "" || a.Attachment != nil
}
