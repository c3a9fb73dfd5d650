package metamodel

import "fmt"

// ValueState tells whether a state array slot holds data.
type ValueState uint8

const (
	// NotFetched means the attribute was not loaded for the row.
	NotFetched ValueState = iota
	// Loaded means the slot holds a non-null value.
	Loaded
	// NullValue means the attribute was loaded and is null.
	NullValue
)

func (s ValueState) String() string {
	switch s {
	case NotFetched:
		return "not-fetched"
	case Loaded:
		return "loaded"
	case NullValue:
		return "null"
	default:
		return fmt.Sprintf("ValueState(%d)", uint8(s))
	}
}

// Value is one slot of a state array.
type Value struct {
	state ValueState
	value any
}

// Unfetched returns the marker for an attribute that was not loaded.
func Unfetched() Value { return Value{state: NotFetched} }

// LoadedValue wraps an assembled value. nil becomes NullValue.
func LoadedValue(v any) Value {
	if v == nil {
		return Value{state: NullValue}
	}
	return Value{state: Loaded, value: v}
}

func (v Value) State() ValueState { return v.state }

func (v Value) IsFetched() bool { return v.state != NotFetched }

func (v Value) IsNull() bool { return v.state == NullValue }

// Get returns the held value; ok is false unless the slot is Loaded.
func (v Value) Get() (any, bool) {
	return v.value, v.state == Loaded
}

func (v Value) String() string {
	if v.state == Loaded {
		return fmt.Sprintf("%v", v.value)
	}
	return "<" + v.state.String() + ">"
}
