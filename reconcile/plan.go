package reconcile

import (
	"reflect"
	"time"

	"github.com/gaurav-prasanna/motopipe/core"
)

// Action is what reconciliation does with one incoming record.
type Action int

const (
	ActionNone Action = iota
	ActionInsert
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	default:
		return "none"
	}
}

// Op is the planned write for one incoming record.
type Op struct {
	Action Action
	Record core.Record
	// ID is the stored record's id for updates, or the new id once an
	// insert has been applied.
	ID     int64
	Update core.RecordUpdate
	// History is set when the price changed from a positive stored price.
	History *core.PriceHistoryEntry
}

// Diff compares an incoming record with its stored counterpart (nil when
// there is none).
//
// A changed price always updates the price; the previous price and a
// history entry are only recorded when the stored price was positive.
// Other fields update only when the incoming value is present and differs,
// so a sparser source never blanks known specs.
func Diff(stored *core.StoredRecord, rec core.Record, now time.Time) Op {
	if stored == nil {
		return Op{Action: ActionInsert, Record: rec}
	}

	op := Op{Record: rec, ID: stored.ID, Update: fieldChanges(stored.Record, rec)}
	if rec.Price != stored.Price {
		op.Update.Price = core.Ptr(rec.Price)
		if stored.Price > 0 {
			op.Update.PreviousPrice = core.Ptr(stored.Price)
			entry := core.NewPriceHistoryEntry(stored.ID, stored.Brand, stored.Name, stored.Price, rec.Price, now)
			op.History = &entry
		}
	}
	if !op.Update.Empty() {
		op.Action = ActionUpdate
	}
	return op
}

func fieldChanges(old, rec core.Record) core.RecordUpdate {
	var u core.RecordUpdate
	if rec.Year > 0 && rec.Year != old.Year {
		u.Year = core.Ptr(rec.Year)
	}
	if rec.Category != "" && rec.Category != old.Category {
		u.Category = core.Ptr(rec.Category)
	}
	if changed(old.EngineCapacity, rec.EngineCapacity) {
		u.EngineCapacity = core.Ptr(*rec.EngineCapacity)
	}
	if changed(old.Power, rec.Power) {
		u.Power = core.Ptr(*rec.Power)
	}
	if changed(old.Torque, rec.Torque) {
		u.Torque = core.Ptr(*rec.Torque)
	}
	if changed(old.Weight, rec.Weight) {
		u.Weight = core.Ptr(*rec.Weight)
	}
	if rec.ImageURL != "" && rec.ImageURL != old.ImageURL {
		u.ImageURL = core.Ptr(rec.ImageURL)
	}
	if len(rec.Specifications) > 0 && !reflect.DeepEqual(rec.Specifications, old.Specifications) {
		u.Specifications = rec.Specifications
	}
	return u
}

func changed[T comparable](old, incoming *T) bool {
	if incoming == nil {
		return false
	}
	return old == nil || *old != *incoming
}

// Plan computes the operations Reconcile would perform against stored,
// without writing anything. Records are planned in order, so a repeated
// identity in the batch sees the effect of the earlier one.
func Plan(stored []core.StoredRecord, records []core.Record, now time.Time) []Op {
	index := make(map[core.IdentityKey]*core.StoredRecord, len(stored))
	for i := range stored {
		s := stored[i]
		s.Record = s.Record.Clone()
		index[s.Key()] = &s
	}

	ops := make([]Op, 0, len(records))
	for _, rec := range records {
		key := rec.Key()
		op := Diff(index[key], rec, now)
		switch op.Action {
		case ActionInsert:
			index[key] = &core.StoredRecord{Record: rec.Clone()}
		case ActionUpdate:
			s := index[key]
			s.Record = op.Update.Apply(s.Record)
		}
		ops = append(ops, op)
	}
	return ops
}

// Summarize counts planned operations the way Reconcile counts applied ones.
func Summarize(ops []Op) *Summary {
	sum := &Summary{}
	for _, op := range ops {
		sum.count(op)
	}
	return sum
}
