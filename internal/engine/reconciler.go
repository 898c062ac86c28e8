package engine

import (
	"slices"

	"dynaform/internal/model"
)

// Write pairs an answer with the value it will hold after commit. Answers
// without an ID are created, the rest updated in place.
type Write struct {
	Answer *model.Answer
	Value  string
}

// Create reports whether the write inserts a new answer
func (w Write) Create() bool {
	return !w.Answer.IsPersisted()
}

// Plan is the set of changes turning stored answers into submitted values.
type Plan struct {
	Keep    []*model.Answer
	Writes  []Write
	Deletes []*model.Answer
}

// IsEmpty reports whether the plan changes nothing
func (p Plan) IsEmpty() bool {
	return len(p.Writes) == 0 && len(p.Deletes) == 0
}

// Counts returns the number of creates, updates and deletes in the plan
func (p Plan) Counts() (created, updated, deleted int) {
	for _, w := range p.Writes {
		if w.Create() {
			created++
		} else {
			updated++
		}
	}
	return created, updated, len(p.Deletes)
}

// Answers returns the answer list after the plan is applied: kept answers
// in their original order followed by written ones.
func (p Plan) Answers() []*model.Answer {
	out := make([]*model.Answer, 0, len(p.Keep)+len(p.Writes))
	out = append(out, p.Keep...)
	for _, w := range p.Writes {
		out = append(out, w.Answer)
	}
	return out
}

// Reconcile computes the plan that turns existing answers into values.
//
// Existing answers are scanned last to first; each one whose value is
// still submitted consumes one occurrence of that value and is kept.
// The others become deletion candidates. Every leftover value then reuses
// the most recently marked candidate as an update target, and only when
// none remain is a new answer created. Pairing is positional.
func Reconcile(existing []*model.Answer, values []string) Plan {
	return reconcile(existing, nil, values)
}

// reconcile is Reconcile with a pool of answers already pending deletion
// from an earlier pass in the same session.
func reconcile(existing, pool []*model.Answer, values []string) Plan {
	remaining := slices.Clone(values)
	deletes := slices.Clone(pool)
	var keep []*model.Answer

	for i := len(existing) - 1; i >= 0; i-- {
		a := existing[i]
		if idx := slices.Index(remaining, a.Value); idx >= 0 {
			remaining = slices.Delete(remaining, idx, idx+1)
			keep = append(keep, a)
			continue
		}
		deletes = append(deletes, a)
	}
	slices.Reverse(keep)

	var writes []Write
	for _, v := range remaining {
		if n := len(deletes); n > 0 {
			writes = append(writes, Write{Answer: deletes[n-1], Value: v})
			deletes = deletes[:n-1]
			continue
		}
		writes = append(writes, Write{Answer: &model.Answer{}, Value: v})
	}

	return Plan{Keep: keep, Writes: writes, Deletes: deletes}
}
