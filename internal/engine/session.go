package engine

import (
	"context"
	"time"

	"dynaform/internal/model"
)

// AnswerStore persists free-question answers. InTransaction runs fn so that
// every write it makes is committed or rolled back together.
type AnswerStore interface {
	Find(ctx context.Context, questionID, answerSheetID string) ([]*model.Answer, error)
	Create(ctx context.Context, answer *model.Answer) error
	Update(ctx context.Context, answer *model.Answer, value string) error
	Delete(ctx context.Context, answer *model.Answer) error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CommitResult counts what one question's commit wrote
type CommitResult struct {
	Created int
	Updated int
	Deleted int
}

type staging struct {
	answers []*model.Answer
	deletes []*model.Answer
	stored  map[*model.Answer]string // last persisted value of loaded answers
	failed  bool                     // last commit rolled back; kept for retry only
}

// EditSession holds staged answer changes for one answer sheet during one
// request. It must not be shared between requests.
type EditSession struct {
	sheetID string
	staged  map[string]*staging
	order   []string
}

// NewEditSession creates an empty session for an answer sheet
func NewEditSession(sheetID string) *EditSession {
	return &EditSession{sheetID: sheetID, staged: make(map[string]*staging)}
}

// Values returns the staged values of a question, if it has been staged.
// Staging whose commit rolled back is not reported; readers fall through
// to the store.
func (s *EditSession) Values(questionID string) ([]string, bool) {
	st, ok := s.staged[questionID]
	if !ok || st.failed {
		return nil, false
	}
	values := make([]string, 0, len(st.answers))
	for _, a := range st.answers {
		values = append(values, a.Value)
	}
	return values, true
}

// Pending lists the questions with uncommitted changes in staging order
func (s *EditSession) Pending() []string {
	return append([]string(nil), s.order...)
}

// Stage reconciles values against the question's current answers and holds
// the result until Commit. Staging the same question again reconciles
// against the previously staged state.
func (s *EditSession) Stage(ctx context.Context, store AnswerStore, questionID string, values []string) (Plan, error) {
	st, ok := s.staged[questionID]
	if !ok {
		existing, err := store.Find(ctx, questionID, s.sheetID)
		if err != nil {
			return Plan{}, persistencef(questionID, err, "load answers")
		}
		st = &staging{stored: make(map[*model.Answer]string, len(existing))}
		for _, a := range existing {
			c := *a
			st.answers = append(st.answers, &c)
			st.stored[&c] = c.Value
		}
		s.staged[questionID] = st
		s.order = append(s.order, questionID)
	}

	plan := reconcile(st.answers, st.deletes, values)
	for _, w := range plan.Writes {
		w.Answer.QuestionID = questionID
		w.Answer.AnswerSheetID = s.sheetID
		w.Answer.Value = w.Value
	}
	st.answers = plan.Answers()
	st.deletes = plan.Deletes
	st.failed = false

	reconcileOps.WithLabelValues("stage").Inc()
	return plan, nil
}

// Commit persists the staged changes of one question inside a single store
// transaction: creates and updates first, then deletes. On failure nothing
// is persisted and the staged state is kept for a retry, hidden from Values
// until it is staged again or committed.
func (s *EditSession) Commit(ctx context.Context, store AnswerStore, questionID string) (CommitResult, error) {
	st, ok := s.staged[questionID]
	if !ok {
		return CommitResult{}, nil
	}

	start := time.Now()
	var (
		res     CommitResult
		created []*model.Answer
	)
	err := store.InTransaction(ctx, func(ctx context.Context) error {
		res = CommitResult{}
		created = created[:0]
		for _, a := range st.answers {
			if !a.IsPersisted() {
				if err := store.Create(ctx, a); err != nil {
					return err
				}
				created = append(created, a)
				res.Created++
				continue
			}
			if prev, ok := st.stored[a]; !ok || prev != a.Value {
				if err := store.Update(ctx, a, a.Value); err != nil {
					return err
				}
				res.Updated++
			}
		}
		for _, a := range st.deletes {
			if !a.IsPersisted() {
				continue
			}
			if err := store.Delete(ctx, a); err != nil {
				return err
			}
			res.Deleted++
		}
		return nil
	})
	commitDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// the rolled back inserts never happened
		for _, a := range created {
			a.ID = ""
			a.CreatedAt = time.Time{}
			a.UpdatedAt = time.Time{}
		}
		st.failed = true
		reconcileOps.WithLabelValues("rollback").Inc()
		return CommitResult{}, persistencef(questionID, err, "commit answers")
	}

	s.Discard(questionID)
	reconcileOps.WithLabelValues("create").Add(float64(res.Created))
	reconcileOps.WithLabelValues("update").Add(float64(res.Updated))
	reconcileOps.WithLabelValues("delete").Add(float64(res.Deleted))
	return res, nil
}

// CommitAll commits every staged question independently. Failures are
// returned per question and do not stop the others.
func (s *EditSession) CommitAll(ctx context.Context, store AnswerStore) map[string]error {
	errs := make(map[string]error)
	for _, qid := range s.Pending() {
		if _, err := s.Commit(ctx, store, qid); err != nil {
			errs[qid] = err
		}
	}
	return errs
}

// Discard drops a question's staged changes
func (s *EditSession) Discard(questionID string) {
	if s == nil {
		return
	}
	if _, ok := s.staged[questionID]; !ok {
		return
	}
	delete(s.staged, questionID)
	for i, id := range s.order {
		if id == questionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
