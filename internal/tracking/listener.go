package tracking

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/ir"
)

// EventKind names a handled notification.
type EventKind string

const (
	EventReplaced EventKind = "replaced"
	EventRemoved  EventKind = "removed"
)

// Event is one notification as the listener saw it.
type Event struct {
	Seq         int64     `json:"seq"`
	Kind        EventKind `json:"kind"`
	Op          ir.OpID   `json:"op"`
	OpKind      string    `json:"op_kind"`
	Replacement ir.OpID   `json:"replacement,omitempty"`
}

// Listener is a cse.Listener that keeps a Mapping consistent with the IR.
//
// Errors never interrupt the run. They accumulate and are reported by
// CheckErrorState once the engine is done. The error state only grows.
type Listener struct {
	mapping  Mapping
	replaced map[ir.OpID]ir.OpID
	errs     []error
	journal  []Event
	seq      int64
}

var _ cse.Listener = (*Listener)(nil)

// NewListener creates a listener maintaining m.
func NewListener(m Mapping) *Listener {
	return &Listener{
		mapping:  m,
		replaced: make(map[ir.OpID]ir.OpID),
	}
}

func (l *Listener) record(kind EventKind, op *ir.Operation, replacement *ir.Operation) {
	l.seq++
	ev := Event{Seq: l.seq, Kind: kind, Op: op.ID(), OpKind: op.Kind()}
	if replacement != nil {
		ev.Replacement = replacement.ID()
	}
	l.journal = append(l.journal, ev)
}

func (l *Listener) fail(err *ConsistencyError) {
	slog.Debug("tracking inconsistency",
		"code", string(err.Code),
		"op", err.Op,
		"kind", err.Kind,
		"keys", len(err.Keys),
	)
	l.errs = append(l.errs, err)
}

func (l *Listener) mappingFailed(op *ir.Operation, err error) {
	l.fail(&ConsistencyError{
		Code:    ErrCodeMappingFailed,
		Message: "mapping update failed",
		Op:      op.ID(),
		Kind:    op.Kind(),
		Err:     err,
	})
}

// NotifyOperationReplaced repoints every key of op at replacement.
// A replacement of another kind drops the keys instead and records an
// error, since handles are typed by the kind they were taken on.
func (l *Listener) NotifyOperationReplaced(op, replacement *ir.Operation) {
	l.record(EventReplaced, op, replacement)
	l.replaced[op.ID()] = replacement.ID()

	keys, err := KeysOf(l.mapping, op.ID())
	if err != nil {
		l.mappingFailed(op, err)
		return
	}
	if len(keys) == 0 {
		return
	}

	mismatch := op.Kind() != replacement.Kind()
	for _, k := range keys {
		if err := l.mapping.Remove(k, op.ID()); err != nil {
			l.mappingFailed(op, err)
			continue
		}
		if mismatch {
			continue
		}
		if err := l.mapping.Insert(k, replacement.ID()); err != nil {
			l.mappingFailed(op, err)
		}
	}
	if mismatch {
		l.fail(&ConsistencyError{
			Code:    ErrCodeReplacementKindMismatch,
			Message: "tracked operation replaced by " + replacement.Kind(),
			Op:      op.ID(),
			Kind:    op.Kind(),
			Keys:    keys,
		})
		return
	}
	slog.Debug("tracking repointed", "op", op.ID(), "replacement", replacement.ID(), "keys", len(keys))
}

// NotifyOperationRemoved drops the keys of op, and of every operation
// nested in it, that were not replaced first. Each such operation records
// an error.
func (l *Listener) NotifyOperationRemoved(op *ir.Operation) {
	l.record(EventRemoved, op, nil)

	op.Walk(func(o *ir.Operation) {
		if _, ok := l.replaced[o.ID()]; ok {
			return
		}
		keys, err := KeysOf(l.mapping, o.ID())
		if err != nil {
			l.mappingFailed(o, err)
			return
		}
		if len(keys) == 0 {
			return
		}
		for _, k := range keys {
			if err := l.mapping.Remove(k, o.ID()); err != nil {
				l.mappingFailed(o, err)
			}
		}
		l.fail(&ConsistencyError{
			Code:    ErrCodeErasedWithoutReplacement,
			Message: "tracked operation erased without replacement",
			Op:      o.ID(),
			Kind:    o.Kind(),
			Keys:    keys,
		})
	})
}

// CheckErrorState returns nil if no inconsistency was recorded, the single
// error if exactly one was, and all of them joined otherwise.
func (l *Listener) CheckErrorState() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	}
	return errors.Join(l.errs...)
}

// Errors returns every recorded error in order.
func (l *Listener) Errors() []error {
	return slices.Clone(l.errs)
}

// Journal returns the notifications handled so far, in order.
func (l *Listener) Journal() []Event {
	return slices.Clone(l.journal)
}

// Replacements returns the OpID each replaced operation was redirected to.
func (l *Listener) Replacements() map[ir.OpID]ir.OpID {
	out := make(map[ir.OpID]ir.OpID, len(l.replaced))
	for k, v := range l.replaced {
		out[k] = v
	}
	return out
}
