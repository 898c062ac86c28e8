package engine

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"dynaform/internal/model"
)

// Bindable is an external domain object reachable from an answer sheet
// through an object path. Child returns (nil, nil) when the segment is
// absent; CreateChild builds it.
type Bindable interface {
	Child(segment string) (Bindable, error)
	CreateChild(segment string) (Bindable, error)
	Get(attr string) (any, error)
	Set(attr string, value any) error
}

// ChildRemover is implemented by Bindables that can drop a child again.
// The binder removes children it created for a write that then failed.
type ChildRemover interface {
	RemoveChild(segment string)
}

// Normalizer is implemented by Bindables that can coerce a value to its
// stored form without writing it.
type Normalizer interface {
	Normalize(attr string, value any) (any, error)
}

// Sheet is an answer sheet together with the object graph its bound
// questions write to and the edit session staging its free answers.
type Sheet struct {
	*model.AnswerSheet
	Root    Bindable
	Session *EditSession
}

// NewSheet wraps an answer sheet for one request
func NewSheet(as *model.AnswerSheet, root Bindable) *Sheet {
	return &Sheet{AnswerSheet: as, Root: root, Session: NewEditSession(as.ID)}
}

// Route describes where a question's value lives
type Route struct {
	Kind      model.Route
	Path      []string // hops below the sheet root; empty for zero-hop paths
	Attribute string
}

// Binder reads and writes question values through their storage route.
type Binder struct {
	store      AnswerStore
	dateLayout string
}

// NewBinder creates a binder over the given answer store
func NewBinder(store AnswerStore, dateLayout string) *Binder {
	if dateLayout == "" {
		dateLayout = time.DateOnly
	}
	return &Binder{store: store, dateLayout: dateLayout}
}

// Route resolves the storage route of a question
func (b *Binder) Route(q *model.Question) Route {
	if !q.IsBound() {
		return Route{Kind: model.RouteFree}
	}
	return Route{Kind: model.RouteBound, Path: splitObjectPath(q.ObjectPath), Attribute: q.AttributeName}
}

func splitObjectPath(path string) []string {
	segments := strings.Split(path, ".")
	if len(segments) > 0 && isSheetAlias(segments[0]) {
		segments = segments[1:]
	}
	out := segments[:0]
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isSheetAlias(segment string) bool {
	return segment == "answer_sheet" || segment == "application"
}

// Read returns the current values of a question. Free questions yield their
// answers in stored order; bound questions yield at most one value.
func (b *Binder) Read(ctx context.Context, q *model.Question, sheet *Sheet) ([]string, error) {
	route := b.Route(q)
	if route.Kind == model.RouteFree {
		return b.readFree(ctx, q, sheet)
	}

	target, _, err := b.resolve(sheet, q.ID, route.Path, false)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return []string{}, nil
	}
	raw, err := target.Get(route.Attribute)
	if err != nil {
		return nil, bindingf(q.ID, err, "read attribute %s", route.Attribute)
	}
	value, ok := b.stringify(raw)
	if !ok {
		return []string{}, nil
	}
	return []string{value}, nil
}

func (b *Binder) readFree(ctx context.Context, q *model.Question, sheet *Sheet) ([]string, error) {
	if sheet.Session != nil {
		if values, ok := sheet.Session.Values(q.ID); ok {
			return values, nil
		}
	}
	answers, err := b.store.Find(ctx, q.ID, sheet.ID)
	if err != nil {
		return nil, persistencef(q.ID, err, "load answers")
	}
	values := make([]string, 0, len(answers))
	for _, a := range answers {
		values = append(values, a.Value)
	}
	return values, nil
}

// WriteBound writes the first value to a bound question's attribute,
// creating missing intermediate objects. Returns false when the value
// already matches and nothing was written. Objects created for a write that
// fails are removed again when the graph supports it.
func (b *Binder) WriteBound(ctx context.Context, q *model.Question, sheet *Sheet, values []string) (bool, error) {
	route := b.Route(q)
	if route.Kind != model.RouteBound {
		return false, bindingf(q.ID, nil, "question is not bound")
	}

	var value any
	if len(values) > 0 {
		value = values[0]
		if q.Kind == model.KindDate && values[0] != "" {
			t, err := time.Parse(b.dateLayout, strings.TrimSpace(values[0]))
			if err != nil {
				return false, formatf(q.ID, err, "invalid date %q", values[0])
			}
			value = t
		}
	}

	current, err := b.Read(ctx, q, sheet)
	if err != nil {
		return false, err
	}
	existing, _, err := b.resolve(sheet, q.ID, route.Path, false)
	if err != nil {
		return false, err
	}
	if b.unchanged(existing, route.Attribute, current, values, value) {
		return false, nil
	}

	target, created, err := b.resolve(sheet, q.ID, route.Path, true)
	if err != nil {
		return false, err
	}
	if err := target.Set(route.Attribute, value); err != nil {
		removeCreated(created)
		return false, bindingf(q.ID, err, "set attribute %s", route.Attribute)
	}
	return true, nil
}

// unchanged compares the stored value with the submitted one in stored form.
// Clearing an attribute of an object that does not exist is a no-op.
func (b *Binder) unchanged(target Bindable, attr string, current, values []string, value any) bool {
	if target == nil {
		if s, ok := value.(string); value == nil || ok && strings.TrimSpace(s) == "" {
			return true
		}
		return slices.Equal(current, values)
	}
	n, ok := target.(Normalizer)
	if !ok {
		return slices.Equal(current, values)
	}
	norm, err := n.Normalize(attr, value)
	if err != nil {
		// Set reports it
		return false
	}
	want := []string{}
	if s, ok := b.stringify(norm); ok {
		want = []string{s}
	}
	return slices.Equal(current, want)
}

type createdChild struct {
	parent  Bindable
	segment string
}

func removeCreated(created []createdChild) {
	for i := len(created) - 1; i >= 0; i-- {
		if r, ok := created[i].parent.(ChildRemover); ok {
			r.RemoveChild(created[i].segment)
		}
	}
}

// resolve walks the object path from the sheet root. With create unset a
// missing hop yields (nil, nil, nil). With create set it returns the
// children it built, in creation order; on error those are already removed.
func (b *Binder) resolve(sheet *Sheet, qid string, path []string, create bool) (Bindable, []createdChild, error) {
	if sheet.Root == nil {
		return nil, nil, bindingf(qid, nil, "answer sheet %s has no object graph", sheet.ID)
	}
	var created []createdChild
	fail := func(err error) (Bindable, []createdChild, error) {
		removeCreated(created)
		return nil, nil, err
	}

	current := sheet.Root
	for i, segment := range path {
		next, err := current.Child(segment)
		if err != nil {
			return fail(bindingf(qid, err, "resolve %s", strings.Join(path[:i+1], ".")))
		}
		if next == nil {
			if !create {
				return nil, nil, nil
			}
			next, err = current.CreateChild(segment)
			if err != nil {
				return fail(bindingf(qid, err, "create %s", strings.Join(path[:i+1], ".")))
			}
			if next == nil {
				return fail(bindingf(qid, nil, "create %s returned nothing", strings.Join(path[:i+1], ".")))
			}
			created = append(created, createdChild{parent: current, segment: segment})
		}
		current = next
	}
	return current, created, nil
}

func (b *Binder) stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case time.Time:
		return t.Format(b.dateLayout), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return t.Format(b.dateLayout), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
