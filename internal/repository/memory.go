package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dynaform/internal/model"
)

// MemoryAnswerRepo keeps answers in process memory. Transactions are
// serialized and roll back to a snapshot on error.
type MemoryAnswerRepo struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	answers []*model.Answer

	// FailOn, when set, makes matching operations ("create", "update",
	// "delete") fail; used to exercise rollback.
	FailOn func(op string, a *model.Answer) error
}

// NewMemoryAnswerRepo creates an empty in-memory answer repository
func NewMemoryAnswerRepo() *MemoryAnswerRepo {
	return &MemoryAnswerRepo{}
}

func (r *MemoryAnswerRepo) fail(op string, a *model.Answer) error {
	if r.FailOn == nil {
		return nil
	}
	return r.FailOn(op, a)
}

func (r *MemoryAnswerRepo) Find(_ context.Context, questionID, answerSheetID string) ([]*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Answer{}
	for _, a := range r.answers {
		if a.QuestionID == questionID && a.AnswerSheetID == answerSheetID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MemoryAnswerRepo) ListBySheet(_ context.Context, answerSheetID string) ([]*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Answer{}
	for _, a := range r.answers {
		if a.AnswerSheetID == answerSheetID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MemoryAnswerRepo) Create(_ context.Context, answer *model.Answer) error {
	if err := r.fail("create", answer); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	answer.CreatedAt = now
	answer.UpdatedAt = now
	c := *answer
	r.answers = append(r.answers, &c)
	return nil
}

func (r *MemoryAnswerRepo) Update(_ context.Context, answer *model.Answer, value string) error {
	if err := r.fail("update", answer); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.ID == answer.ID {
			a.Value = value
			a.UpdatedAt = time.Now()
			answer.Value = value
			answer.UpdatedAt = a.UpdatedAt
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryAnswerRepo) Delete(_ context.Context, answer *model.Answer) error {
	if err := r.fail("delete", answer); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = slices.DeleteFunc(r.answers, func(a *model.Answer) bool { return a.ID == answer.ID })
	return nil
}

func (r *MemoryAnswerRepo) DeleteBySheet(_ context.Context, answerSheetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = slices.DeleteFunc(r.answers, func(a *model.Answer) bool { return a.AnswerSheetID == answerSheetID })
	return nil
}

func (r *MemoryAnswerRepo) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryAnswerRepo) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make([]*model.Answer, len(r.answers))
	for i, a := range r.answers {
		c := *a
		snapshot[i] = &c
	}
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.answers = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

// MemoryQuestionSheetRepo keeps question sheets in process memory
type MemoryQuestionSheetRepo struct {
	mu     sync.RWMutex
	sheets map[string]*model.QuestionSheet
}

// NewMemoryQuestionSheetRepo creates an empty in-memory question sheet repository
func NewMemoryQuestionSheetRepo() *MemoryQuestionSheetRepo {
	return &MemoryQuestionSheetRepo{sheets: make(map[string]*model.QuestionSheet)}
}

func (r *MemoryQuestionSheetRepo) Create(_ context.Context, sheet *model.QuestionSheet) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	sheet.CreatedAt = time.Now()
	sheet.UpdatedAt = sheet.CreatedAt
	r.sheets[sheet.ID] = cloneQuestionSheet(sheet)
	return sheet.ID, nil
}

func (r *MemoryQuestionSheetRepo) GetByID(_ context.Context, id string) (*model.QuestionSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sheets[id]
	if !ok {
		return nil, nil
	}
	return cloneQuestionSheet(s), nil
}

func (r *MemoryQuestionSheetRepo) List(_ context.Context) ([]*model.QuestionSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.QuestionSheet{}
	for _, id := range slices.Sorted(maps.Keys(r.sheets)) {
		out = append(out, cloneQuestionSheet(r.sheets[id]))
	}
	slices.SortStableFunc(out, func(a, b *model.QuestionSheet) int { return strings.Compare(a.Label, b.Label) })
	return out, nil
}

func (r *MemoryQuestionSheetRepo) Update(_ context.Context, sheet *model.QuestionSheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[sheet.ID]; !ok {
		return ErrNotFound
	}
	sheet.UpdatedAt = time.Now()
	r.sheets[sheet.ID] = cloneQuestionSheet(sheet)
	return nil
}

func (r *MemoryQuestionSheetRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sheets, id)
	return nil
}

func (r *MemoryQuestionSheetRepo) SlugTaken(_ context.Context, slug, excludeSheetID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, s := range r.sheets {
		if id == excludeSheetID {
			continue
		}
		for _, q := range s.Questions() {
			if q.Slug == slug {
				return true, nil
			}
		}
	}
	return false, nil
}

func cloneQuestionSheet(s *model.QuestionSheet) *model.QuestionSheet {
	c := *s
	c.Pages = make([]model.Page, len(s.Pages))
	for i, p := range s.Pages {
		p.Questions = slices.Clone(p.Questions)
		c.Pages[i] = p
	}
	c.Conditions = slices.Clone(s.Conditions)
	return &c
}

// MemoryAnswerSheetRepo keeps answer sheets in process memory
type MemoryAnswerSheetRepo struct {
	mu     sync.RWMutex
	sheets map[string]*model.AnswerSheet
}

// NewMemoryAnswerSheetRepo creates an empty in-memory answer sheet repository
func NewMemoryAnswerSheetRepo() *MemoryAnswerSheetRepo {
	return &MemoryAnswerSheetRepo{sheets: make(map[string]*model.AnswerSheet)}
}

func (r *MemoryAnswerSheetRepo) Create(_ context.Context, sheet *model.AnswerSheet) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	sheet.CreatedAt = time.Now()
	sheet.UpdatedAt = sheet.CreatedAt
	c := *sheet
	r.sheets[sheet.ID] = &c
	return sheet.ID, nil
}

func (r *MemoryAnswerSheetRepo) GetByID(_ context.Context, id string) (*model.AnswerSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sheets[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *MemoryAnswerSheetRepo) ListByQuestionSheet(_ context.Context, questionSheetID string) ([]*model.AnswerSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.AnswerSheet{}
	for _, id := range slices.Sorted(maps.Keys(r.sheets)) {
		if s := r.sheets[id]; s.QuestionSheetID == questionSheetID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MemoryAnswerSheetRepo) Update(_ context.Context, sheet *model.AnswerSheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[sheet.ID]; !ok {
		return ErrNotFound
	}
	sheet.UpdatedAt = time.Now()
	c := *sheet
	r.sheets[sheet.ID] = &c
	return nil
}

func (r *MemoryAnswerSheetRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sheets, id)
	return nil
}

// MemoryObjectRepo keeps object graphs in process memory
type MemoryObjectRepo struct {
	mu      sync.RWMutex
	objects map[string]map[string]any
}

// NewMemoryObjectRepo creates an empty in-memory object repository
func NewMemoryObjectRepo() *MemoryObjectRepo {
	return &MemoryObjectRepo{objects: make(map[string]map[string]any)}
}

func (r *MemoryObjectRepo) Get(_ context.Context, id string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.objects[id]
	if !ok {
		return nil, nil
	}
	return deepCopy(data), nil
}

func (r *MemoryObjectRepo) Save(_ context.Context, id string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[id] = deepCopy(data)
	return nil
}

func (r *MemoryObjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, id)
	return nil
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = deepCopy(nested)
		}
		out[k] = v
	}
	return out
}
