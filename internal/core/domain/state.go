package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Kind identifies the JSON type held by a State.
type Kind uint8

const (
	// KindNone is the zero State: no document was supplied.
	KindNone Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "none"
	}
}

// State is an opaque JSON document attached to a budget snapshot.
//
// The held value is one of nil, bool, json.Number, string, []any or
// map[string]any, recursively. Numbers keep their decimal text so large
// integers and exact decimals survive a round-trip. A State is treated as
// immutable once built.
type State struct {
	v   any
	set bool
}

// ParseState parses a single JSON value.
func ParseState(data []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return State{}, ErrMalformedInput.WithDetails("state is not valid JSON").WithCause(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return State{}, ErrMalformedInput.WithDetails("state has trailing data")
	}

	return State{v: v, set: true}, nil
}

// MustParseState is like ParseState but panics on error.
func MustParseState(s string) State {
	st, err := ParseState([]byte(s))
	if err != nil {
		panic(err)
	}
	return st
}

// Kind returns the JSON type of the document.
func (s State) Kind() Kind {
	if !s.set {
		return KindNone
	}
	return kindOf(s.v)
}

// IsZero reports whether no document was supplied.
func (s State) IsZero() bool {
	return !s.set
}

// Canonical returns the durable text form: compact JSON with object keys sorted.
func (s State) Canonical() (string, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.v); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler. A literal null yields a
// present State of KindNull; an absent field leaves the State zero.
func (s *State) UnmarshalJSON(data []byte) error {
	st, err := ParseState(data)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Equal reports structural equality. Object key order is not significant and
// numbers compare by exact numeric value.
func (s State) Equal(other State) bool {
	if s.set != other.set {
		return false
	}
	return equalValue(s.v, other.v)
}

func kindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindNone
	}
}

func equalValue(a, b any) bool {
	if kindOf(a) != kindOf(b) {
		return false
	}

	switch av := a.(type) {
	case nil:
		return true
	case bool:
		return av == b.(bool)
	case string:
		return av == b.(string)
	case json.Number:
		return equalNumber(av, b.(json.Number))
	case []any:
		bv := b.([]any)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv := b.(map[string]any)
		if len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !equalValue(x, y) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalNumber(a, b json.Number) bool {
	if a == b {
		return true
	}
	x, okA := new(big.Rat).SetString(string(a))
	y, okB := new(big.Rat).SetString(string(b))
	if !okA || !okB {
		return false
	}
	return x.Cmp(y) == 0
}
