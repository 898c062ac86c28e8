// Package engine binds submitted values to answers or object attributes,
// reconciles them against stored answers and evaluates which questions of
// an answer sheet are active, required, locked and complete.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"dynaform/internal/config"
	"dynaform/internal/logging"
	"dynaform/internal/model"
)

var ErrPageNotFound = errors.New("page not found")

// Engine processes submissions and builds page views for answer sheets.
type Engine struct {
	cfg       config.Engine
	store     AnswerStore
	binder    *Binder
	evaluator *Evaluator
	locks     *LockRules
	sources   SourceCache
}

// Option customizes an Engine
type Option func(*Engine)

// WithLockRules replaces the built-in lock rules
func WithLockRules(rules *LockRules) Option {
	return func(e *Engine) { e.locks = rules }
}

// WithSourceCache caches remote choice documents
func WithSourceCache(cache SourceCache) Option {
	return func(e *Engine) { e.sources = cache }
}

// New creates an engine over an answer store
func New(cfg config.Engine, store AnswerStore, opts ...Option) *Engine {
	binder := NewBinder(store, cfg.DateLayout)
	e := &Engine{
		cfg:       cfg,
		store:     store,
		binder:    binder,
		evaluator: NewEvaluator(binder),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = DefaultLockRules()
	}
	return e
}

// Binder exposes the engine's binder
func (e *Engine) Binder() *Binder { return e.binder }

// Evaluator exposes the engine's condition evaluator
func (e *Engine) Evaluator() *Evaluator { return e.evaluator }

// Submit applies a submission to an answer sheet. Each question is
// processed and committed on its own; a failure is recorded in that
// question's outcome and never stops the others.
func (e *Engine) Submit(ctx context.Context, form *Form, sheet *Sheet, sub model.Submission, lc LockContext) *model.SubmissionResult {
	logger := logging.FromContext(ctx)
	res := &model.SubmissionResult{AnswerSheetID: sheet.ID}
	if sheet.Session == nil {
		sheet.Session = NewEditSession(sheet.ID)
	}

	seen := make(map[string]bool, len(sub.Values)+len(sub.Files))
	for _, q := range form.Sheet.Questions() {
		values, hasValues := sub.Values[q.ID]
		upload, hasFile := sub.Files[q.ID]
		if !hasValues && !hasFile {
			continue
		}
		seen[q.ID] = true

		out := e.submitQuestion(ctx, q, sheet, values, upload, hasFile, lc)
		if out.Route == model.RouteBound && out.Updated > 0 {
			res.GraphChanged = true
		}
		result := "ok"
		if out.Err != nil {
			result = "error"
			out.Error = out.Err.Error()
			if errors.Is(out.Err, ErrPersistence) {
				logger.Error("question submission failed", "question_id", q.ID, "route", out.Route, "error", out.Err)
			} else {
				logger.Warn("question submission failed", "question_id", q.ID, "route", out.Route, "error", out.Err)
			}
		}
		questionOutcomes.WithLabelValues(string(out.Route), result).Inc()
		res.Outcomes = append(res.Outcomes, out)
	}

	for _, id := range unknownQuestions(sub, seen) {
		err := &Error{Kind: ErrValidation, QuestionID: id, Msg: "unknown question"}
		res.Outcomes = append(res.Outcomes, model.QuestionOutcome{
			QuestionID: id, Route: model.RouteSkipped, Err: err, Error: err.Error(),
		})
		questionOutcomes.WithLabelValues(string(model.RouteSkipped), "error").Inc()
	}

	res.Complete = e.IsComplete(ctx, form, sheet)
	return res
}

func unknownQuestions(sub model.Submission, seen map[string]bool) []string {
	var ids []string
	for id := range sub.Values {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	for id := range sub.Files {
		if _, ok := sub.Values[id]; !ok && !seen[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) submitQuestion(ctx context.Context, q *model.Question, sheet *Sheet, values []string, upload model.FileUpload, hasFile bool, lc LockContext) (out model.QuestionOutcome) {
	out.QuestionID = q.ID
	route := e.binder.Route(q)
	out.Route = route.Kind

	defer func() {
		if r := recover(); r != nil {
			sheet.Session.Discard(q.ID)
			out.Err = fmt.Errorf("question %s: panic: %v", q.ID, r)
		}
	}()

	if e.locks.IsLocked(q, sheet.AnswerSheet, lc) {
		out.Route = model.RouteLocked
		out.Err = lockedf(q.ID)
		return out
	}

	switch {
	case hasFile && (q.Kind == model.KindFile || values == nil):
		out.Route = model.RouteFile
		res, err := e.SaveFile(ctx, q, sheet, upload)
		out.Created, out.Deleted, out.Err = res.Created, res.Deleted, err
	case route.Kind == model.RouteBound:
		changed, err := e.binder.WriteBound(ctx, q, sheet, values)
		if changed {
			out.Updated = 1
		}
		out.Err = err
	default:
		if _, err := sheet.Session.Stage(ctx, e.store, q.ID, values); err != nil {
			out.Err = err
			return out
		}
		res, err := sheet.Session.Commit(ctx, e.store, q.ID)
		out.Created, out.Updated, out.Deleted, out.Err = res.Created, res.Updated, res.Deleted, err
	}
	return out
}

// SaveFile replaces every answer of a file question with one answer
// carrying the upload.
func (e *Engine) SaveFile(ctx context.Context, q *model.Question, sheet *Sheet, upload model.FileUpload) (CommitResult, error) {
	if q.Kind != model.KindFile {
		return CommitResult{}, formatf(q.ID, nil, "question does not accept files")
	}
	if e.cfg.MaxUploadBytes > 0 && int64(len(upload.Data)) > e.cfg.MaxUploadBytes {
		return CommitResult{}, formatf(q.ID, nil, "file %s exceeds %d bytes", upload.Filename, e.cfg.MaxUploadBytes)
	}

	var res CommitResult
	answer := &model.Answer{
		QuestionID:    q.ID,
		AnswerSheetID: sheet.ID,
		Value:         upload.Filename,
		Attachment: &model.Attachment{
			Filename:    upload.Filename,
			ContentType: upload.ContentType,
			Size:        int64(len(upload.Data)),
			Data:        upload.Data,
		},
	}
	err := e.store.InTransaction(ctx, func(ctx context.Context) error {
		res = CommitResult{}
		existing, err := e.store.Find(ctx, q.ID, sheet.ID)
		if err != nil {
			return err
		}
		for _, a := range existing {
			if err := e.store.Delete(ctx, a); err != nil {
				return err
			}
			res.Deleted++
		}
		if err := e.store.Create(ctx, answer); err != nil {
			return err
		}
		res.Created++
		return nil
	})
	if err != nil {
		answer.ID = ""
		return CommitResult{}, persistencef(q.ID, err, "save file")
	}
	sheet.Session.Discard(q.ID)
	return res, nil
}

// IsComplete reports whether every active required question has a response
func (e *Engine) IsComplete(ctx context.Context, form *Form, sheet *Sheet) bool {
	return len(e.MissingQuestions(ctx, form, sheet)) == 0
}

// MissingQuestions lists the active required questions without a response,
// in page order. A question whose value cannot be read counts as missing.
func (e *Engine) MissingQuestions(ctx context.Context, form *Form, sheet *Sheet) []string {
	return e.missing(ctx, form, newScope(sheet))
}

// HasResponse reports whether any value is non-empty. A stored "false"
// is a response.
func HasResponse(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// DisplayResponse joins responses for display
func DisplayResponse(values []string) string {
	return strings.Join(values, ", ")
}

// PageView prepares the active questions of one page for rendering
func (e *Engine) PageView(ctx context.Context, form *Form, sheet *Sheet, number int, lc LockContext) (*model.PageView, error) {
	page, ok := form.Page(number)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, number)
	}

	sc := newScope(sheet)
	choices := NewChoiceResolver(e.cfg.ChoiceSourceDir, e.cfg.ChoiceFetchTimeout, e.sources)
	view := &model.PageView{AnswerSheetID: sheet.ID, Number: number, Label: page.Label}

	for i := range page.Questions {
		q := &page.Questions[i]
		if !e.evaluator.isActive(ctx, form, q, sc) {
			continue
		}
		qv := model.QuestionView{
			ID:       q.ID,
			Kind:     q.Kind,
			Label:    q.Label,
			Style:    q.Style,
			Slug:     q.Slug,
			Required: e.evaluator.isRequired(ctx, form, q, sc),
			Locked:   e.locks.IsLocked(q, sheet.AnswerSheet, lc),
		}
		if qv.Required {
			qv.ValidationClass = "required"
		}

		values, err := sc.read(ctx, e.binder, q)
		if err != nil {
			logging.FromContext(ctx).Warn("question unreadable", "question_id", q.ID, "error", err)
			values = []string{}
		}
		qv.Responses = values
		if len(values) > 0 {
			qv.Response = values[0]
		}
		qv.DisplayResponse = DisplayResponse(values)

		if q.Kind == model.KindChoice {
			list, err := choices.Choices(ctx, q)
			qv.Choices = list
			if err != nil {
				qv.ChoiceError = err.Error()
			}
		}
		view.Questions = append(view.Questions, qv)
	}

	view.Complete = len(e.missing(ctx, form, sc)) == 0
	return view, nil
}

func (e *Engine) missing(ctx context.Context, form *Form, sc *scope) []string {
	var missing []string
	for _, q := range form.Sheet.Questions() {
		if !e.evaluator.isRequired(ctx, form, q, sc) || !e.evaluator.isActive(ctx, form, q, sc) {
			continue
		}
		values, err := sc.read(ctx, e.binder, q)
		if err != nil {
			logging.FromContext(ctx).Warn("question unreadable", "question_id", q.ID, "error", err)
		}
		if err != nil || !HasResponse(values) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
