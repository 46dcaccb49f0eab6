package intake

import "time"

// Record is the field store for one lead session. It is not safe for
// concurrent use; the owning session serializes access per turn.
type Record struct {
	SessionID string
	Revision  int

	fields map[Key]Field
	now    func() time.Time
}

// NewRecord creates an empty record for a session.
func NewRecord(sessionID string) *Record {
	return &Record{
		SessionID: sessionID,
		fields:    make(map[Key]Field),
		now:       time.Now,
	}
}

// SetClock overrides the record clock. Used by tests.
func (r *Record) SetClock(now func() time.Time) {
	r.now = now
}

// Get returns the stored field for a key.
func (r *Record) Get(key Key) (Field, bool) {
	f, ok := r.fields[key]
	return f, ok
}

// Value returns the stored value for a key, or the zero Value.
func (r *Record) Value(key Key) Value {
	return r.fields[key].Value
}

// Status returns the confirmation status for a key, or "" when absent.
func (r *Record) Status(key Key) Status {
	return r.fields[key].Status
}

// Has reports whether a key holds a value.
func (r *Record) Has(key Key) bool {
	f, ok := r.fields[key]
	return ok && !f.Value.IsZero()
}

// Clone returns a copy of the record that shares no mutable state with
// the original.
func (r *Record) Clone() *Record {
	out := &Record{
		SessionID: r.SessionID,
		Revision:  r.Revision,
		fields:    make(map[Key]Field, len(r.fields)),
		now:       r.now,
	}
	for k, f := range r.fields {
		out.fields[k] = f
	}
	return out
}

// Fields returns a copy of all stored fields.
func (r *Record) Fields() map[Key]Field {
	out := make(map[Key]Field, len(r.fields))
	for k, f := range r.fields {
		out[k] = f
	}
	return out
}

// Apply applies a batch of proposed updates in order and returns the
// conflicts found. Confirmed fields are never overwritten by a differing
// value; the contradicting update is dropped and reported instead.
// Updates whose value variant does not match the key are dropped silently.
func (r *Record) Apply(updates []Update) []Conflict {
	var conflicts []Conflict

	rangeMin, rangeMax, isRange := detectRange(updates)
	if isRange {
		conflicts = append(conflicts, r.applyRange(rangeMin, rangeMax)...)
	}

	for _, u := range updates {
		if isRange && (u.Key == KeyBudget || u.Key == KeyBudgetMin) {
			continue
		}

		kind, known := KindOf(u.Key)
		if !known || u.Value.IsZero() || u.Value.Kind() != kind {
			continue
		}

		status := u.Status
		if status == "" {
			status = StatusConfirmed
		}

		if c, ok := r.checkConflict(u.Key, u.Value); ok {
			conflicts = append(conflicts, c)
			continue
		}

		r.set(u.Key, u.Value, status, u.Source)
	}

	return conflicts
}

// checkConflict applies the confirmed-field protection plus the budget
// containment rules for single-sided range updates.
func (r *Record) checkConflict(key Key, value Value) (Conflict, bool) {
	prev, exists := r.fields[key]
	if exists && prev.Status == StatusConfirmed && !prev.Value.Equal(value) {
		// A browsing-stage intent may still swing to buy or rent; only an
		// established operation is protected.
		if key == KeyIntent && !BuyRentIntents[prev.Value.Str()] {
			return Conflict{}, false
		}
		return Conflict{Key: key, Previous: prev.Value, New: value}, true
	}

	// A new ceiling below a confirmed floor contradicts the range even
	// when the ceiling itself was never stored, and vice versa.
	switch key {
	case KeyBudget:
		if min, ok := r.fields[KeyBudgetMin]; ok && min.Status == StatusConfirmed && value.Num() < min.Value.Num() {
			return Conflict{Key: key, Previous: min.Value, New: value}, true
		}
	case KeyBudgetMin:
		if max, ok := r.fields[KeyBudget]; ok && max.Status == StatusConfirmed && value.Num() > max.Value.Num() {
			return Conflict{Key: key, Previous: max.Value, New: value}, true
		}
	}

	return Conflict{}, false
}

// applyRange stores an explicit min..max budget pair. Prior single-sided
// confirmed values inside the new range are replaced without conflict;
// values outside it are kept and reported.
func (r *Record) applyRange(min, max Update) []Conflict {
	var conflicts []Conflict

	within := func(v int64) bool {
		return v >= min.Value.Num() && v <= max.Value.Num()
	}

	if prev, ok := r.fields[KeyBudget]; ok && prev.Status == StatusConfirmed && !within(prev.Value.Num()) {
		conflicts = append(conflicts, Conflict{Key: KeyBudget, Previous: prev.Value, New: max.Value})
	} else {
		r.set(KeyBudget, max.Value, statusOrConfirmed(max.Status), max.Source)
	}

	if prev, ok := r.fields[KeyBudgetMin]; ok && prev.Status == StatusConfirmed && !within(prev.Value.Num()) {
		conflicts = append(conflicts, Conflict{Key: KeyBudgetMin, Previous: prev.Value, New: min.Value})
	} else {
		r.set(KeyBudgetMin, min.Value, statusOrConfirmed(min.Status), min.Source)
	}

	return conflicts
}

func (r *Record) set(key Key, value Value, status Status, source string) {
	r.fields[key] = Field{
		Key:       key,
		Value:     value,
		Status:    status,
		Source:    source,
		UpdatedAt: r.now(),
	}
	r.Revision++
}

// detectRange finds a valid min..max budget pair inside one batch.
func detectRange(updates []Update) (min, max Update, ok bool) {
	var haveMin, haveMax bool
	for _, u := range updates {
		switch u.Key {
		case KeyBudgetMin:
			if !u.Value.IsZero() && u.Value.Kind() == KindInt {
				min, haveMin = u, true
			}
		case KeyBudget:
			if !u.Value.IsZero() && u.Value.Kind() == KindInt {
				max, haveMax = u, true
			}
		}
	}
	if !haveMin || !haveMax || min.Value.Num() > max.Value.Num() {
		return Update{}, Update{}, false
	}
	return min, max, true
}

func statusOrConfirmed(s Status) Status {
	if s == "" {
		return StatusConfirmed
	}
	return s
}

// BuyRentIntents are the operation-backed intents. Changing a confirmed
// intent between these is a conflict rather than an overwrite; the
// standard confirmed-field rule already enforces that, this set exists
// for scoring and routing checks.
var BuyRentIntents = map[string]bool{
	"comprar": true,
	"alugar":  true,
}
