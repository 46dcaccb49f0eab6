// Package intake holds the conflict-aware lead field store. Each lead
// session accumulates typed field values with a per-field confirmation
// status; updates that contradict confirmed data are reported back as
// conflicts instead of being applied.
package intake

import "time"

// Key identifies a recognized lead field.
type Key string

const (
	KeyIntent        Key = "intent"
	KeyCity          Key = "city"
	KeyNeighborhood  Key = "neighborhood"
	KeyMicroLocation Key = "micro_location"
	KeyPropertyType  Key = "property_type"
	KeyBedrooms      Key = "bedrooms"
	KeyParking       Key = "parking"
	KeySuites        Key = "suites"
	KeyBudget        Key = "budget"
	KeyBudgetMin     Key = "budget_min"
	KeyCondoMax      Key = "condo_max"
	KeyPaymentType   Key = "payment_type"
	KeyFurnished     Key = "furnished"
	KeyPet           Key = "pet"
	KeyFinancing     Key = "financing"
	KeyUrgency       Key = "urgency"
	KeyTimeline      Key = "timeline"
	KeyName          Key = "name"
	KeyPhone         Key = "phone"
	KeyEmail         Key = "email"
	KeyTags          Key = "tags"
)

// Status marks how a field value was obtained.
type Status string

const (
	// StatusConfirmed means the value was explicitly stated by the lead.
	StatusConfirmed Status = "confirmed"
	// StatusInferred means the value was assumed by the upstream extractor.
	StatusInferred Status = "inferred"
)

// Kind is the value variant expected for a field key.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindStringList
)

// fieldKinds is the static mapping from key to expected value variant.
// Updates carrying a mismatched variant are dropped per-field.
var fieldKinds = map[Key]Kind{
	KeyIntent:        KindString,
	KeyCity:          KindString,
	KeyNeighborhood:  KindString,
	KeyMicroLocation: KindString,
	KeyPropertyType:  KindString,
	KeyBedrooms:      KindInt,
	KeyParking:       KindInt,
	KeySuites:        KindInt,
	KeyBudget:        KindInt,
	KeyBudgetMin:     KindInt,
	KeyCondoMax:      KindInt,
	KeyPaymentType:   KindString,
	KeyFurnished:     KindBool,
	KeyPet:           KindBool,
	KeyFinancing:     KindBool,
	KeyUrgency:       KindString,
	KeyTimeline:      KindString,
	KeyName:          KindString,
	KeyPhone:         KindString,
	KeyEmail:         KindString,
	KeyTags:          KindStringList,
}

// KindOf returns the expected value variant for a key.
// The second return is false for unrecognized keys.
func KindOf(key Key) (Kind, bool) {
	kind, ok := fieldKinds[key]
	return kind, ok
}

// Value is a tagged union over the variants a field can hold.
// The zero Value is "empty" and never stored.
type Value struct {
	kind Kind
	str  string
	num  int64
	b    bool
	list []string
	set  bool
}

// String builds a string value.
func String(v string) Value { return Value{kind: KindString, str: v, set: true} }

// Int builds an integer value.
func Int(v int64) Value { return Value{kind: KindInt, num: v, set: true} }

// Bool builds a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v, set: true} }

// StringList builds a list-of-strings value.
func StringList(v []string) Value {
	out := make([]string, len(v))
	copy(out, v)
	return Value{kind: KindStringList, list: out, set: true}
}

// Kind returns the variant tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return !v.set }

// Str returns the string variant, or "" for other kinds.
func (v Value) Str() string { return v.str }

// Num returns the integer variant, or 0 for other kinds.
func (v Value) Num() int64 { return v.num }

// Flag returns the boolean variant, or false for other kinds.
func (v Value) Flag() bool { return v.b }

// List returns the list variant, or nil for other kinds.
func (v Value) List() []string { return v.list }

// Equal reports value identity, comparing only within the same variant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.set != other.set {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindStringList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Interface returns the value as a plain Go value for serialization.
func (v Value) Interface() any {
	if !v.set {
		return nil
	}
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.b
	case KindStringList:
		return v.list
	}
	return nil
}

// Field is one stored slot of a lead record.
type Field struct {
	Key       Key       `json:"key"`
	Value     Value     `json:"-"`
	Status    Status    `json:"status"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Update is a proposed change produced by the upstream extractor.
type Update struct {
	Key    Key
	Value  Value
	Status Status
	Source string
}

// Conflict reports an update that contradicted a confirmed field.
// The field keeps its previous value; the caller resolves via clarification.
type Conflict struct {
	Key      Key   `json:"key"`
	Previous Value `json:"-"`
	New      Value `json:"-"`
}
