package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dynaform/internal/engine"
	"dynaform/internal/logging"
	"dynaform/internal/model"
	"dynaform/internal/objectgraph"
	"dynaform/internal/repository"
)

var (
	ErrIncomplete = errors.New("answer sheet is incomplete")
	ErrFrozen     = errors.New("answer sheet is already submitted")
)

// IncompleteError lists the questions still missing a response
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %d required questions unanswered", ErrIncomplete, len(e.Missing))
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

var tracer = otel.Tracer("dynaform/service")

// AnswerSheetService handles answer sheet creation, page rendering,
// submission and completion
type AnswerSheetService struct {
	sheets      repository.AnswerSheetRepo
	answers     repository.AnswerRepo
	objects     repository.ObjectRepo
	questionSvc *QuestionSheetService
	engine      *engine.Engine
	schema      *objectgraph.Schema
	defaultType string
}

// NewAnswerSheetService creates a new answer sheet service
func NewAnswerSheetService(
	sheets repository.AnswerSheetRepo,
	answers repository.AnswerRepo,
	objects repository.ObjectRepo,
	questionSvc *QuestionSheetService,
	eng *engine.Engine,
	schema *objectgraph.Schema,
	defaultType string,
) *AnswerSheetService {
	return &AnswerSheetService{
		sheets:      sheets,
		answers:     answers,
		objects:     objects,
		questionSvc: questionSvc,
		engine:      eng,
		schema:      schema,
		defaultType: defaultType,
	}
}

// Create starts a new answer sheet for a question sheet
func (s *AnswerSheetService) Create(ctx context.Context, questionSheetID, sheetType string) (*model.AnswerSheet, error) {
	if _, err := s.questionSvc.GetByID(ctx, questionSheetID); err != nil {
		return nil, err
	}
	if sheetType == "" {
		sheetType = s.defaultType
	}
	sheet := &model.AnswerSheet{QuestionSheetID: questionSheetID, Type: sheetType}
	if _, err := s.sheets.Create(ctx, sheet); err != nil {
		return nil, fmt.Errorf("create answer sheet: %w", err)
	}
	sheet.ObjectID = sheet.ID
	if err := s.sheets.Update(ctx, sheet); err != nil {
		return nil, fmt.Errorf("create answer sheet: %w", err)
	}
	return sheet, nil
}

// loaded is everything one request needs to evaluate an answer sheet
type loaded struct {
	sheet *engine.Sheet
	form  *engine.Form
	graph *objectgraph.Document
}

func (s *AnswerSheetService) load(ctx context.Context, id string) (*loaded, error) {
	as, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if as == nil {
		return nil, fmt.Errorf("answer sheet %s: %w", id, ErrNotFound)
	}
	form, err := s.questionSvc.Form(ctx, as.QuestionSheetID)
	if err != nil {
		return nil, err
	}

	graph := objectgraph.New(s.schema)
	if as.ObjectID != "" {
		data, err := s.objects.Get(ctx, as.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("load object graph: %w", err)
		}
		if data != nil {
			if graph, err = objectgraph.FromMap(s.schema, data); err != nil {
				return nil, fmt.Errorf("load object graph: %w", err)
			}
		}
	}
	return &loaded{sheet: engine.NewSheet(as, graph), form: form, graph: graph}, nil
}

// Show summarizes an answer sheet and its completeness
func (s *AnswerSheetService) Show(ctx context.Context, id string) (*model.SheetView, error) {
	ctx, span := tracer.Start(ctx, "service.AnswerSheetService.Show",
		trace.WithAttributes(attribute.String("answer_sheet.id", id)))
	defer span.End()

	l, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}
	missing := s.engine.MissingQuestions(ctx, l.form, l.sheet)
	span.SetAttributes(attribute.Int("answer_sheet.missing", len(missing)))
	return &model.SheetView{
		Sheet:    l.sheet.AnswerSheet,
		Pages:    len(l.form.Sheet.Pages),
		Complete: len(missing) == 0,
		Missing:  missing,
	}, nil
}

// Page renders the active questions of one page
func (s *AnswerSheetService) Page(ctx context.Context, id string, number int, lc engine.LockContext) (*model.PageView, error) {
	ctx, span := tracer.Start(ctx, "service.AnswerSheetService.Page",
		trace.WithAttributes(attribute.String("answer_sheet.id", id), attribute.Int("page.number", number)))
	defer span.End()

	l, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}
	view, err := s.engine.PageView(ctx, l.form, l.sheet, number, lc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page view failed")
		return nil, err
	}
	return view, nil
}

// Submit applies posted values to an answer sheet. Per-question failures
// are reported in the result, not as an error.
func (s *AnswerSheetService) Submit(ctx context.Context, id string, sub model.Submission, lc engine.LockContext) (*model.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "service.AnswerSheetService.Submit",
		trace.WithAttributes(attribute.String("answer_sheet.id", id), attribute.Int("submission.questions", len(sub.Values)+len(sub.Files))))
	defer span.End()

	l, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	res := s.engine.Submit(ctx, l.form, l.sheet, sub, lc)

	if res.GraphChanged || l.graph.Dirty() {
		if err := s.objects.Save(ctx, l.sheet.ObjectID, l.graph.ToMap()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "object graph save failed")
			return nil, fmt.Errorf("save object graph: %w", err)
		}
		l.graph.MarkClean()
	}

	failed := len(res.Failed())
	span.SetAttributes(attribute.Int("submission.failed", failed), attribute.Bool("answer_sheet.complete", res.Complete))
	if failed > 0 {
		logging.FromContext(ctx).Info("submission finished with failures", "answer_sheet_id", id, "failed", failed)
	}
	return res, nil
}

// Complete freezes a fully answered sheet. An incomplete sheet yields an
// *IncompleteError listing the missing questions.
func (s *AnswerSheetService) Complete(ctx context.Context, id string) (*model.SheetView, error) {
	ctx, span := tracer.Start(ctx, "service.AnswerSheetService.Complete",
		trace.WithAttributes(attribute.String("answer_sheet.id", id)))
	defer span.End()

	l, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}
	if l.sheet.Frozen {
		return nil, ErrFrozen
	}

	if missing := s.engine.MissingQuestions(ctx, l.form, l.sheet); len(missing) > 0 {
		span.SetStatus(codes.Error, "incomplete")
		return nil, &IncompleteError{Missing: missing}
	}

	l.sheet.Freeze(time.Now())
	if err := s.sheets.Update(ctx, l.sheet.AnswerSheet); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "freeze failed")
		return nil, fmt.Errorf("freeze answer sheet: %w", err)
	}
	logging.FromContext(ctx).Info("answer sheet submitted", "answer_sheet_id", id)
	return &model.SheetView{Sheet: l.sheet.AnswerSheet, Pages: len(l.form.Sheet.Pages), Complete: true}, nil
}

// Delete removes an answer sheet with its answers and object graph
func (s *AnswerSheetService) Delete(ctx context.Context, id string) error {
	as, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if as == nil {
		return fmt.Errorf("answer sheet %s: %w", id, ErrNotFound)
	}
	if err := s.answers.DeleteBySheet(ctx, id); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if as.ObjectID != "" {
		if err := s.objects.Delete(ctx, as.ObjectID); err != nil {
			return fmt.Errorf("delete object graph: %w", err)
		}
	}
	return s.sheets.Delete(ctx, id)
}

// Answers lists every stored answer of a sheet
func (s *AnswerSheetService) Answers(ctx context.Context, id string) ([]*model.Answer, error) {
	return s.answers.ListBySheet(ctx, id)
}
