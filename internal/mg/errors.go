package mg

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each typed error below unwraps to one of them.
var (
	ErrStatementParse = errors.New("malformed statement")
	ErrEmptyBundle    = errors.New("lexical item has no features")
	ErrInvalidAffix   = errors.New("invalid affix: must start or end with '-'")
	ErrOutOfRange     = errors.New("index out of range")
	ErrUnconnected    = errors.New("lexical item not connected")
)

// StatementParseError reports a statement without a `::` separator.
type StatementParseError struct {
	Index     int // position among non-empty statements
	Statement string
}

func (e *StatementParseError) Error() string {
	return fmt.Sprintf("statement %d %q: missing '::' separator", e.Index, e.Statement)
}

func (e *StatementParseError) Unwrap() error { return ErrStatementParse }

// EmptyBundleWarning reports an item skipped during graph building.
type EmptyBundleWarning struct {
	Index int
	Morph string
}

func (e *EmptyBundleWarning) Error() string {
	return fmt.Sprintf("item %d %q: no features, skipped", e.Index, e.Morph)
}

func (e *EmptyBundleWarning) Unwrap() error { return ErrEmptyBundle }

// UnconnectedItemWarning reports an item whose category comes before its
// selectors, so the builder has no edge to draw for it.
type UnconnectedItemWarning struct {
	Index int
	Morph string
}

func (e *UnconnectedItemWarning) Error() string {
	return fmt.Sprintf("item %d %q: category precedes its selectors, not connected", e.Index, e.Morph)
}

func (e *UnconnectedItemWarning) Unwrap() error { return ErrUnconnected }

// InvalidAffixError reports an affix without a directional hyphen.
type InvalidAffixError struct {
	Morph string
}

func (e *InvalidAffixError) Error() string {
	return fmt.Sprintf("affix %q: must start or end with '-'", e.Morph)
}

func (e *InvalidAffixError) Unwrap() error { return ErrInvalidAffix }

// IndexOutOfRangeError reports a decomposition target outside its container.
// Kind is "item", "split" or "morph".
type IndexOutOfRangeError struct {
	Kind  string
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Kind, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrOutOfRange }
