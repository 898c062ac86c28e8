package model

import (
	"encoding/json"
	"fmt"
)

// FileUpload is a file posted for a file question
type FileUpload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"` // base64 in JSON
}

// Values is the ordered list of raw values posted for one question. In JSON
// a single scalar is accepted in place of a list.
type Values []string

func (v *Values) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err != nil {
		var single any
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		list = []any{single}
	}
	out := make(Values, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case nil:
		case string:
			out = append(out, t)
		case bool, float64:
			out = append(out, fmt.Sprint(t))
		default:
			return fmt.Errorf("unsupported value %v", t)
		}
	}
	*v = out
	return nil
}

// Submission is one page (or full sheet) of posted values keyed by question ID
type Submission struct {
	Values map[string]Values     `json:"values"`
	Files  map[string]FileUpload `json:"files,omitempty"`
}

// Route names the path a question's value took during a submission
type Route string

const (
	RouteFree    Route = "free"
	RouteBound   Route = "bound"
	RouteFile    Route = "file"
	RouteLocked  Route = "locked"
	RouteSkipped Route = "skipped"
)

// QuestionOutcome records what happened to one question in a submission
type QuestionOutcome struct {
	QuestionID string `json:"questionId"`
	Route      Route  `json:"route"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Deleted    int    `json:"deleted"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the question was processed without error
func (o QuestionOutcome) OK() bool {
	return o.Err == nil
}

// SubmissionResult aggregates per-question outcomes
type SubmissionResult struct {
	AnswerSheetID string            `json:"answerSheetId"`
	Outcomes      []QuestionOutcome `json:"outcomes"`
	GraphChanged  bool              `json:"graphChanged"` // bound object graph needs saving
	Complete      bool              `json:"complete"`
}

// Failed returns the outcomes that carry an error
func (r *SubmissionResult) Failed() []QuestionOutcome {
	var out []QuestionOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
