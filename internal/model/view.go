package model

// Choice is one selectable (label, value) pair
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// QuestionView is a question prepared for rendering on an answer sheet
type QuestionView struct {
	ID              string       `json:"id"`
	Kind            QuestionKind `json:"kind"`
	Label           string       `json:"label"`
	Style           string       `json:"style,omitempty"`
	Slug            string       `json:"slug,omitempty"`
	Required        bool         `json:"required"`
	Locked          bool         `json:"locked"`
	Responses       []string     `json:"responses"`
	Response        string       `json:"response"`
	DisplayResponse string       `json:"displayResponse"`
	ValidationClass string       `json:"validationClass,omitempty"`
	Choices         []Choice     `json:"choices,omitempty"`
	ChoiceError     string       `json:"choiceError,omitempty"`
}

// PageView is the visible part of a page for one answer sheet
type PageView struct {
	AnswerSheetID string         `json:"answerSheetId"`
	Number        int            `json:"number"`
	Label         string         `json:"label"`
	Questions     []QuestionView `json:"questions"`
	Complete      bool           `json:"complete"`
}

// SheetView summarizes an answer sheet
type SheetView struct {
	Sheet    *AnswerSheet `json:"sheet"`
	Pages    int          `json:"pages"`
	Complete bool         `json:"complete"`
	Missing  []string     `json:"missing,omitempty"`
}
