package store

import (
	"cmp"
	"strconv"
	"strings"
)

// KeyKind identifies how a store compares keys. It is decided once at build
// time: integer when every index key parses as an unsigned decimal, string
// otherwise.
type KeyKind uint8

// Key kinds.
const (
	KindInteger KeyKind = iota
	KindString
	kindMax
)

// String returns the name of the kind.
func (k KeyKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return "max"
	}
}

// Key is either an integer or a string key.
type Key struct {
	kind KeyKind
	n    uint64
	s    string
}

// MaxKey compares greater than every other key. KeyAt returns it for
// out-of-range positions.
var MaxKey = Key{kind: kindMax}

// IntKey returns an integer key.
func IntKey(n uint64) Key {
	return Key{kind: KindInteger, n: n}
}

// StringKey returns a string key.
func StringKey(s string) Key {
	return Key{kind: KindString, s: s}
}

// ParseKey returns an integer key when s is an unsigned decimal and a string
// key otherwise.
func ParseKey(s string) Key {
	if n, ok := parseUint(s); ok {
		return IntKey(n)
	}
	return StringKey(s)
}

// Kind reports the key kind.
func (k Key) Kind() KeyKind { return k.kind }

// IsMax reports whether k is the MaxKey sentinel.
func (k Key) IsMax() bool { return k.kind == kindMax }

// Int returns the integer value and whether k is an integer key.
func (k Key) Int() (uint64, bool) {
	return k.n, k.kind == KindInteger
}

// String returns the textual form of the key.
func (k Key) String() string {
	switch k.kind {
	case KindInteger:
		return strconv.FormatUint(k.n, 10)
	case KindString:
		return k.s
	default:
		return "<max>"
	}
}

// Compare orders keys of the same kind. Integer keys sort before string keys
// and MaxKey sorts last.
func (k Key) Compare(o Key) int {
	if k.kind != o.kind {
		return cmp.Compare(k.kind, o.kind)
	}
	switch k.kind {
	case KindInteger:
		return cmp.Compare(k.n, o.n)
	case KindString:
		return strings.Compare(k.s, o.s)
	default:
		return 0
	}
}

// as converts k to the given store kind. ok is false when the conversion is
// impossible (a non-numeric string probed against an integer store).
func (k Key) as(kind KeyKind) (Key, bool) {
	switch {
	case k.kind == kind:
		return k, true
	case kind == KindString && k.kind == KindInteger:
		return StringKey(k.String()), true
	case kind == KindInteger && k.kind == KindString:
		n, ok := parseUint(k.s)
		if !ok {
			return Key{}, false
		}
		return IntKey(n), true
	default:
		return Key{}, false
	}
}

// parseUint accepts plain unsigned decimals only; signs, spaces and
// leading "+" fall back to string keys.
func parseUint(s string) (uint64, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
