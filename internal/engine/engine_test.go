package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynaform/internal/config"
	"dynaform/internal/engine"
	"dynaform/internal/model"
	"dynaform/internal/objectgraph"
	"dynaform/internal/repository"
)

func applicationSheet() *model.QuestionSheet {
	return &model.QuestionSheet{
		ID:    "qs-1",
		Label: "Application",
		Pages: []model.Page{
			{
				Label: "About You",
				Questions: []model.Question{
					{ID: "color", Kind: model.KindText, Label: "Favorite color", Required: true},
					{ID: "pets", Kind: model.KindChoice, Style: model.StyleCheckbox, Label: "Pets",
						Choice: &model.ChoiceOptions{Content: "a;Cat\nb;Dog\nc;Fish"}},
					{ID: "married", Kind: model.KindChoice, Style: "radio", Label: "Married?",
						Choice: &model.ChoiceOptions{Content: "yes;Yes\nno;No"}},
					{ID: "spouse", Kind: model.KindText, Label: "Spouse name", Required: true},
					{ID: "first_name", Kind: model.KindText, Label: "First name", Required: true,
						ObjectPath: "person", AttributeName: "first_name"},
					{ID: "birth_date", Kind: model.KindDate, Label: "Birth date",
						ObjectPath: "application.person", AttributeName: "birth_date"},
				},
			},
			{
				Label: "Details",
				Questions: []model.Question{
					{ID: "resume", Kind: model.KindFile, Label: "Resume"},
					{ID: "city", Kind: model.KindText, Label: "City",
						ObjectPath: "person.current_address", AttributeName: "city"},
					{ID: "referral", Kind: model.KindText, Label: "Referral",
						ObjectPath: "answer_sheet", AttributeName: "referral_source"},
					{ID: "agree", Kind: model.KindChoice, Style: model.StyleYesNo, Label: "Agree?"},
					{ID: "why_not", Kind: model.KindText, Label: "Why not?",
						RequiredWhen: &model.Condition{ID: "why-required", TriggerID: "agree", Expression: "0"}},
				},
			},
		},
		Conditions: []model.Condition{
			{ID: "spouse-married", TriggerID: "married", ToggleID: "spouse", Expression: "yes; Y"},
		},
	}
}

type fixture struct {
	eng   *engine.Engine
	store *repository.MemoryAnswerRepo
	form  *engine.Form
	graph *objectgraph.Document
	sheet *engine.Sheet
}

func newFixture(t *testing.T, qs *model.QuestionSheet) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, qs, config.DefaultEngine())
}

func newFixtureWithConfig(t *testing.T, qs *model.QuestionSheet, cfg config.Engine) *fixture {
	t.Helper()
	form, err := engine.NewForm(qs)
	require.NoError(t, err)
	store := repository.NewMemoryAnswerRepo()
	graph := objectgraph.New(objectgraph.DefaultSchema())
	return &fixture{
		eng:   engine.New(cfg, store),
		store: store,
		form:  form,
		graph: graph,
		sheet: engine.NewSheet(&model.AnswerSheet{ID: "as-1", QuestionSheetID: qs.ID}, graph),
	}
}

var editing = engine.LockContext{Editing: true}

func (f *fixture) submit(t *testing.T, values map[string]model.Values) *model.SubmissionResult {
	t.Helper()
	return f.eng.Submit(context.Background(), f.form, f.sheet, model.Submission{Values: values}, editing)
}

func (f *fixture) stored(t *testing.T, questionID string) []string {
	t.Helper()
	answers, err := f.store.Find(context.Background(), questionID, f.sheet.ID)
	require.NoError(t, err)
	out := []string{}
	for _, a := range answers {
		out = append(out, a.Value)
	}
	return out
}

func outcome(t *testing.T, res *model.SubmissionResult, questionID string) model.QuestionOutcome {
	t.Helper()
	for _, o := range res.Outcomes {
		if o.QuestionID == questionID {
			return o
		}
	}
	t.Fatalf("no outcome for %s", questionID)
	return model.QuestionOutcome{}
}

func TestSubmitFreeQuestionIsIdempotent(t *testing.T) {
	f := newFixture(t, applicationSheet())

	res := f.submit(t, map[string]model.Values{"color": {"blue"}})
	o := outcome(t, res, "color")
	require.True(t, o.OK(), o.Error)
	assert.Equal(t, model.RouteFree, o.Route)
	assert.Equal(t, 1, o.Created)
	assert.Equal(t, []string{"blue"}, f.stored(t, "color"))

	res = f.submit(t, map[string]model.Values{"color": {"blue"}})
	o = outcome(t, res, "color")
	require.True(t, o.OK())
	assert.Zero(t, o.Created+o.Updated+o.Deleted)

	res = f.submit(t, map[string]model.Values{"color": {"green"}})
	o = outcome(t, res, "color")
	assert.Equal(t, 1, o.Updated)
	assert.Equal(t, []string{"green"}, f.stored(t, "color"))
}

func TestSubmitMultiValuedQuestion(t *testing.T) {
	f := newFixture(t, applicationSheet())

	f.submit(t, map[string]model.Values{"pets": {"a", "b", "c"}})
	res := f.submit(t, map[string]model.Values{"pets": {"a", "c"}})

	o := outcome(t, res, "pets")
	assert.Equal(t, 0, o.Created)
	assert.Equal(t, 0, o.Updated)
	assert.Equal(t, 1, o.Deleted)
	assert.Equal(t, []string{"a", "c"}, f.stored(t, "pets"))

	res = f.submit(t, map[string]model.Values{"pets": {}})
	assert.Equal(t, 2, outcome(t, res, "pets").Deleted)
	assert.Empty(t, f.stored(t, "pets"))
}

func TestSubmitBoundQuestions(t *testing.T) {
	f := newFixture(t, applicationSheet())

	res := f.submit(t, map[string]model.Values{
		"first_name": {"Ada"},
		"birth_date": {"1815-12-10"},
		"referral":   {"friend"},
	})
	for _, id := range []string{"first_name", "birth_date", "referral"} {
		o := outcome(t, res, id)
		require.True(t, o.OK(), o.Error)
		assert.Equal(t, model.RouteBound, o.Route)
		assert.Equal(t, 1, o.Updated)
	}
	assert.True(t, res.GraphChanged)
	assert.True(t, f.graph.Dirty())

	data := f.graph.ToMap()
	assert.Equal(t, "friend", data["referral_source"])
	person := data["person"].(map[string]any)
	assert.Equal(t, "Ada", person["first_name"])
	assert.Equal(t, "1815-12-10", person["birth_date"])
	assert.Empty(t, f.stored(t, "first_name"), "bound values never reach the answer store")

	f.graph.MarkClean()
	res = f.submit(t, map[string]model.Values{"first_name": {"Ada"}})
	assert.False(t, res.GraphChanged)
	assert.Zero(t, outcome(t, res, "first_name").Updated)
	assert.False(t, f.graph.Dirty())
}

func TestSubmitIsolatesFailures(t *testing.T) {
	f := newFixture(t, applicationSheet())

	res := f.submit(t, map[string]model.Values{
		"birth_date": {"10/12/1815"},
		"color":      {"red"},
	})

	bad := outcome(t, res, "birth_date")
	assert.ErrorIs(t, bad.Err, engine.ErrFormat)
	assert.NotEmpty(t, bad.Error)
	assert.True(t, outcome(t, res, "color").OK())
	assert.Equal(t, []string{"red"}, f.stored(t, "color"))
	assert.Len(t, res.Failed(), 1)
}

func TestReadBoundDoesNotCreateObjects(t *testing.T) {
	f := newFixture(t, applicationSheet())
	q := f.form.Question("city")

	values, err := f.eng.Binder().Read(context.Background(), q, f.sheet)
	require.NoError(t, err)
	assert.Equal(t, []string{}, values)
	assert.False(t, f.graph.Dirty())
	_, hasPerson := f.graph.ToMap()["person"]
	assert.False(t, hasPerson)

	changed, err := f.eng.Binder().WriteBound(context.Background(), q, f.sheet, []string{"Portland"})
	require.NoError(t, err)
	assert.True(t, changed)

	values, err = f.eng.Binder().Read(context.Background(), q, f.sheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Portland"}, values)
}

func TestBindingErrors(t *testing.T) {
	qs := applicationSheet()
	qs.Pages[0].Questions = append(qs.Pages[0].Questions,
		model.Question{ID: "ship", Kind: model.KindText, ObjectPath: "person.spaceship", AttributeName: "name"},
		model.Question{ID: "shoe", Kind: model.KindText, ObjectPath: "person", AttributeName: "shoe_size"},
	)
	f := newFixture(t, qs)

	res := f.submit(t, map[string]model.Values{"ship": {"Enterprise"}, "shoe": {"42"}})
	assert.ErrorIs(t, outcome(t, res, "ship").Err, engine.ErrBinding)
	assert.ErrorIs(t, outcome(t, res, "shoe").Err, engine.ErrBinding)

	var engErr *engine.Error
	require.True(t, errors.As(outcome(t, res, "ship").Err, &engErr))
	assert.Equal(t, "ship", engErr.QuestionID)

	assert.False(t, f.graph.Dirty(), "objects created for a failed write are removed")
	_, hasPerson := f.graph.ToMap()["person"]
	assert.False(t, hasPerson)

	res = f.submit(t, map[string]model.Values{"city": {"Portland"}, "shoe": {"42"}})
	require.True(t, outcome(t, res, "city").OK())
	assert.ErrorIs(t, outcome(t, res, "shoe").Err, engine.ErrBinding)
	person := f.graph.ToMap()["person"].(map[string]any)
	assert.Equal(t, map[string]any{"city": "Portland"}, person["current_address"], "existing objects are kept")

	_, err := f.eng.Binder().Read(context.Background(), f.form.Question("ship"), f.sheet)
	assert.ErrorIs(t, err, engine.ErrBinding)
}

func TestSubmitBadDateKeepsPriorValue(t *testing.T) {
	f := newFixture(t, applicationSheet())
	q := f.form.Question("birth_date")

	res := f.submit(t, map[string]model.Values{"birth_date": {"1815-12-10"}})
	require.True(t, outcome(t, res, "birth_date").OK())
	f.graph.MarkClean()

	res = f.submit(t, map[string]model.Values{"birth_date": {"10/12/1815"}})
	assert.ErrorIs(t, outcome(t, res, "birth_date").Err, engine.ErrFormat)
	assert.False(t, res.GraphChanged)
	assert.False(t, f.graph.Dirty())

	values, err := f.eng.Binder().Read(context.Background(), q, f.sheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"1815-12-10"}, values)
}

func TestSubmitBoundComparesStoredForm(t *testing.T) {
	qs := applicationSheet()
	qs.Pages[1].Questions = append(qs.Pages[1].Questions,
		model.Question{ID: "terms", Kind: model.KindChoice, Style: model.StyleYesNo,
			ObjectPath: "answer_sheet", AttributeName: "agreed_to_terms"},
		model.Question{ID: "years", Kind: model.KindText,
			ObjectPath: "person", AttributeName: "years_in_ministry"},
	)
	f := newFixture(t, qs)

	res := f.submit(t, map[string]model.Values{"terms": {"1"}, "years": {"42"}, "first_name": {"Ada"}})
	for _, id := range []string{"terms", "years", "first_name"} {
		require.True(t, outcome(t, res, id).OK(), outcome(t, res, id).Error)
	}
	f.graph.MarkClean()

	res = f.submit(t, map[string]model.Values{"terms": {"yes"}, "years": {"42.0"}, "first_name": {" Ada "}})
	for _, id := range []string{"terms", "years", "first_name"} {
		o := outcome(t, res, id)
		require.True(t, o.OK(), o.Error)
		assert.Zero(t, o.Updated, id)
	}
	assert.False(t, res.GraphChanged)
	assert.False(t, f.graph.Dirty())

	res = f.submit(t, map[string]model.Values{"terms": {"0"}})
	assert.Equal(t, 1, outcome(t, res, "terms").Updated)
	assert.True(t, f.graph.Dirty())
}

func TestSubmitClearingMissingObjectIsNoop(t *testing.T) {
	f := newFixture(t, applicationSheet())

	res := f.submit(t, map[string]model.Values{"city": {""}})
	o := outcome(t, res, "city")
	require.True(t, o.OK(), o.Error)
	assert.Zero(t, o.Updated)
	assert.False(t, f.graph.Dirty())
	assert.Empty(t, f.graph.ToMap())
}

func TestSubmitFile(t *testing.T) {
	f := newFixture(t, applicationSheet())
	sub := model.Submission{Files: map[string]model.FileUpload{
		"resume": {Filename: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}}

	res := f.eng.Submit(context.Background(), f.form, f.sheet, sub, editing)
	o := outcome(t, res, "resume")
	require.True(t, o.OK(), o.Error)
	assert.Equal(t, model.RouteFile, o.Route)
	assert.Equal(t, 1, o.Created)

	sub.Files["resume"] = model.FileUpload{Filename: "cv2.pdf", Data: []byte("%PDF-1.5")}
	res = f.eng.Submit(context.Background(), f.form, f.sheet, sub, editing)
	o = outcome(t, res, "resume")
	assert.Equal(t, 1, o.Created)
	assert.Equal(t, 1, o.Deleted)

	answers, err := f.store.Find(context.Background(), "resume", f.sheet.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "cv2.pdf", answers[0].Value)
	require.NotNil(t, answers[0].Attachment)
	assert.EqualValues(t, 8, answers[0].Attachment.Size)
}

func TestSubmitFileTooLarge(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.MaxUploadBytes = 4
	f := newFixtureWithConfig(t, applicationSheet(), cfg)

	sub := model.Submission{Files: map[string]model.FileUpload{"resume": {Filename: "big.bin", Data: []byte("12345")}}}
	res := f.eng.Submit(context.Background(), f.form, f.sheet, sub, editing)
	assert.ErrorIs(t, outcome(t, res, "resume").Err, engine.ErrFormat)
	assert.Empty(t, f.stored(t, "resume"))
}

func TestSubmitFileToNonFileQuestion(t *testing.T) {
	f := newFixture(t, applicationSheet())
	f.submit(t, map[string]model.Values{"color": {"red"}})

	sub := model.Submission{Files: map[string]model.FileUpload{"color": {Filename: "x.txt", Data: []byte("x")}}}
	res := f.eng.Submit(context.Background(), f.form, f.sheet, sub, editing)
	assert.ErrorIs(t, outcome(t, res, "color").Err, engine.ErrFormat)
	assert.Equal(t, []string{"red"}, f.stored(t, "color"), "existing answers survive")
}

func TestSubmitLockedAndUnknown(t *testing.T) {
	f := newFixture(t, applicationSheet())
	f.sheet.Frozen = true

	res := f.submit(t, map[string]model.Values{"color": {"red"}, "nope": {"x"}})

	locked := outcome(t, res, "color")
	assert.Equal(t, model.RouteLocked, locked.Route)
	assert.ErrorIs(t, locked.Err, engine.ErrLocked)
	assert.Empty(t, f.stored(t, "color"))

	unknown := outcome(t, res, "nope")
	assert.Equal(t, model.RouteSkipped, unknown.Route)
	assert.ErrorIs(t, unknown.Err, engine.ErrValidation)

	ref := f.eng.Submit(context.Background(), f.form, f.sheet,
		model.Submission{Values: map[string]model.Values{"color": {"red"}}},
		engine.LockContext{Editing: true, Reference: true})
	assert.True(t, outcome(t, ref, "color").OK())
}

func TestCommitRollsBackQuestionBatch(t *testing.T) {
	f := newFixture(t, applicationSheet())
	f.submit(t, map[string]model.Values{"pets": {"a", "b", "c"}})

	f.store.FailOn = func(op string, a *model.Answer) error {
		if op == "delete" {
			return errors.New("disk full")
		}
		return nil
	}
	res := f.submit(t, map[string]model.Values{"pets": {"x"}, "color": {"red"}})

	assert.ErrorIs(t, outcome(t, res, "pets").Err, engine.ErrPersistence)
	assert.Equal(t, []string{"a", "b", "c"}, f.stored(t, "pets"), "update rolled back with the failed delete")
	assert.True(t, outcome(t, res, "color").OK(), "other questions still commit")
	assert.Equal(t, []string{"red"}, f.stored(t, "color"))

	f.store.FailOn = nil
	f.sheet = engine.NewSheet(f.sheet.AnswerSheet, f.graph)
	res = f.submit(t, map[string]model.Values{"pets": {"x"}})
	o := outcome(t, res, "pets")
	require.True(t, o.OK(), o.Error)
	assert.Equal(t, 1, o.Updated)
	assert.Equal(t, 2, o.Deleted)
	assert.Equal(t, []string{"x"}, f.stored(t, "pets"))
}

func TestSubmitRolledBackAnswerCountsAsMissing(t *testing.T) {
	f := newFixture(t, applicationSheet())
	f.store.FailOn = func(op string, a *model.Answer) error {
		if op == "create" {
			return errors.New("disk full")
		}
		return nil
	}

	res := f.submit(t, map[string]model.Values{"color": {"red"}, "first_name": {"Ada"}})
	assert.ErrorIs(t, outcome(t, res, "color").Err, engine.ErrPersistence)
	assert.True(t, outcome(t, res, "first_name").OK())
	assert.Empty(t, f.stored(t, "color"))
	assert.False(t, res.Complete, "a write that rolled back is no response")

	ctx := context.Background()
	assert.Equal(t, []string{"color"}, f.eng.MissingQuestions(ctx, f.form, f.sheet))
	values, err := f.eng.Binder().Read(ctx, f.form.Question("color"), f.sheet)
	require.NoError(t, err)
	assert.Empty(t, values)

	f.store.FailOn = nil
	res = f.submit(t, map[string]model.Values{"color": {"red"}})
	o := outcome(t, res, "color")
	require.True(t, o.OK(), o.Error)
	assert.Equal(t, 1, o.Created)
	assert.True(t, res.Complete)
}

func TestEditSessionRetryAfterRollback(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryAnswerRepo()
	store.FailOn = func(op string, a *model.Answer) error {
		if op == "create" && a.Value == "boom" {
			return errors.New("constraint violation")
		}
		return nil
	}

	sess := engine.NewEditSession("as-1")
	_, err := sess.Stage(ctx, store, "color", []string{"ok", "boom"})
	require.NoError(t, err)

	_, err = sess.Commit(ctx, store, "color")
	assert.ErrorIs(t, err, engine.ErrPersistence)
	stored, _ := store.Find(ctx, "color", "as-1")
	assert.Empty(t, stored)
	assert.Equal(t, []string{"color"}, sess.Pending(), "kept for a retry")
	_, ok := sess.Values("color")
	assert.False(t, ok, "rolled back values are not readable")

	store.FailOn = nil
	res, err := sess.Commit(ctx, store, "color")
	require.NoError(t, err)
	assert.Equal(t, engine.CommitResult{Created: 2}, res)
	assert.Empty(t, sess.Pending())
}

func TestEditSessionRestaging(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryAnswerRepo()
	sess := engine.NewEditSession("as-1")

	_, err := sess.Stage(ctx, store, "pets", []string{"a", "b"})
	require.NoError(t, err)
	plan, err := sess.Stage(ctx, store, "pets", []string{"b"})
	require.NoError(t, err)
	assert.Len(t, plan.Deletes, 1)

	res, err := sess.Commit(ctx, store, "pets")
	require.NoError(t, err)
	assert.Equal(t, engine.CommitResult{Created: 1}, res)

	errs := sess.CommitAll(ctx, store)
	assert.Empty(t, errs)
}

func TestConditions(t *testing.T) {
	f := newFixture(t, applicationSheet())
	ev := f.eng.Evaluator()
	spouse := f.form.Question("spouse")
	ctx := context.Background()

	assert.False(t, ev.IsActive(ctx, f.form, spouse, f.sheet), "no trigger response")
	assert.True(t, ev.IsActive(ctx, f.form, f.form.Question("color"), f.sheet), "no conditions")

	f.submit(t, map[string]model.Values{"married": {" YES "}})
	assert.True(t, ev.IsActive(ctx, f.form, spouse, f.sheet))

	f.submit(t, map[string]model.Values{"married": {"no"}})
	assert.False(t, ev.IsActive(ctx, f.form, spouse, f.sheet))
}

func TestConditionsConjunction(t *testing.T) {
	qs := applicationSheet()
	qs.Conditions = append(qs.Conditions, model.Condition{ID: "spouse-color", TriggerID: "color", ToggleID: "spouse", Expression: "red"})
	f := newFixture(t, qs)
	spouse := f.form.Question("spouse")

	f.submit(t, map[string]model.Values{"married": {"yes"}, "color": {"blue"}})
	assert.False(t, f.eng.Evaluator().IsActive(context.Background(), f.form, spouse, f.sheet))

	f.submit(t, map[string]model.Values{"color": {"red"}})
	assert.True(t, f.eng.Evaluator().IsActive(context.Background(), f.form, spouse, f.sheet))
}

func TestExpressionCondition(t *testing.T) {
	qs := applicationSheet()
	qs.Conditions = []model.Condition{{
		ID: "spouse-expr", TriggerID: "married", ToggleID: "spouse",
		Mode: model.ConditionExpression, Expression: `lower(response) == "yes" || contains(responses, "y")`,
	}}
	f := newFixture(t, qs)

	f.submit(t, map[string]model.Values{"married": {"Yes"}})
	assert.True(t, f.eng.Evaluator().IsActive(context.Background(), f.form, f.form.Question("spouse"), f.sheet))

	qs = applicationSheet()
	qs.Conditions[0].Mode = model.ConditionExpression
	qs.Conditions[0].Expression = `response ==`
	_, err := engine.NewForm(qs)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestCompletion(t *testing.T) {
	f := newFixture(t, applicationSheet())
	ctx := context.Background()

	assert.Equal(t, []string{"color", "first_name"}, f.eng.MissingQuestions(ctx, f.form, f.sheet))
	assert.False(t, f.eng.IsComplete(ctx, f.form, f.sheet))

	res := f.submit(t, map[string]model.Values{"color": {"red"}, "first_name": {"Ada"}})
	assert.True(t, res.Complete, "only the inactive spouse question is unanswered")

	f.submit(t, map[string]model.Values{"married": {"yes"}})
	assert.Equal(t, []string{"spouse"}, f.eng.MissingQuestions(ctx, f.form, f.sheet))

	f.submit(t, map[string]model.Values{"agree": {"0"}})
	assert.Equal(t, []string{"spouse", "why_not"}, f.eng.MissingQuestions(ctx, f.form, f.sheet))

	res = f.submit(t, map[string]model.Values{"spouse": {"Charles"}, "why_not": {"false"}})
	assert.True(t, res.Complete, `"false" is a response`)
}

func TestHasResponse(t *testing.T) {
	assert.True(t, engine.HasResponse([]string{"false"}))
	assert.True(t, engine.HasResponse([]string{"", "x"}))
	assert.False(t, engine.HasResponse([]string{"", "  "}))
	assert.False(t, engine.HasResponse(nil))
	assert.Equal(t, "a, c", engine.DisplayResponse([]string{"a", "c"}))
}

func TestPageView(t *testing.T) {
	f := newFixture(t, applicationSheet())
	f.submit(t, map[string]model.Values{"pets": {"a", "c"}})

	view, err := f.eng.PageView(context.Background(), f.form, f.sheet, 1, editing)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Number)
	assert.Equal(t, "About You", view.Label)
	assert.False(t, view.Complete)

	ids := make([]string, 0, len(view.Questions))
	byID := make(map[string]model.QuestionView)
	for _, q := range view.Questions {
		ids = append(ids, q.ID)
		byID[q.ID] = q
	}
	assert.Equal(t, []string{"color", "pets", "married", "first_name", "birth_date"}, ids, "inactive spouse is hidden")

	pets := byID["pets"]
	assert.Equal(t, []string{"a", "c"}, pets.Responses)
	assert.Equal(t, "a", pets.Response)
	assert.Equal(t, "a, c", pets.DisplayResponse)
	assert.Len(t, pets.Choices, 3)
	assert.False(t, pets.Locked)

	assert.True(t, byID["color"].Required)
	assert.Equal(t, "required", byID["color"].ValidationClass)
	assert.Empty(t, byID["married"].ValidationClass)

	review, err := f.eng.PageView(context.Background(), f.form, f.sheet, 2, engine.LockContext{})
	require.NoError(t, err)
	for _, q := range review.Questions {
		assert.True(t, q.Locked, q.ID)
	}

	_, err = f.eng.PageView(context.Background(), f.form, f.sheet, 9, editing)
	assert.ErrorIs(t, err, engine.ErrPageNotFound)
}
