package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Page is an ordered group of questions within a question sheet
type Page struct {
	ID        string     `json:"id" bson:"id"`
	Number    int        `json:"number" bson:"number"`
	Label     string     `json:"label" bson:"label"`
	Questions []Question `json:"questions" bson:"questions" validate:"dive"`
}

// QuestionSheet is a form schema: ordered pages of questions plus the
// conditions linking them
type QuestionSheet struct {
	ID         string      `json:"id" bson:"_id"`
	Label      string      `json:"label" bson:"label" validate:"required"`
	Pages      []Page      `json:"pages" bson:"pages" validate:"dive"`
	Conditions []Condition `json:"conditions,omitempty" bson:"conditions,omitempty" validate:"dive"`
	CreatedAt  time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Questions returns every question across all pages in page order
func (s *QuestionSheet) Questions() []*Question {
	var out []*Question
	for i := range s.Pages {
		for j := range s.Pages[i].Questions {
			out = append(out, &s.Pages[i].Questions[j])
		}
	}
	return out
}

// NextLabel returns "<prefix> <n>" where n is one more than the highest
// number found in labels of the form "<prefix> <number>".
func NextLabel(prefix string, labels []string) string {
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + ` ([0-9]+)$`)
	max := 0
	for _, label := range labels {
		m := re.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s %d", prefix, max+1)
}
