// Package prefixed_uuid builds type-tagged identifiers such as
// "evt-3f2b9c1e-...". The prefix makes ids self-describing in logs and event
// payloads.
package prefixed_uuid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid wraps every parse failure.
var ErrInvalid = errors.New("invalid prefixed uuid")

// PrefixedUUID is a UUID tagged with a short type prefix.
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New generates a random id with the given prefix.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: uuid.New()}
}

// FromString parses "prefix-uuid". The prefix ends at the first hyphen, so
// prefixes themselves cannot contain one.
func FromString(s string) (PrefixedUUID, error) {
	prefix, rest, ok := strings.Cut(s, "-")
	if !ok || prefix == "" {
		return PrefixedUUID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return PrefixedUUID{Prefix: prefix, UUID: id}, nil
}

// Expect parses s and checks it carries the wanted prefix.
func Expect(prefix, s string) (PrefixedUUID, error) {
	p, err := FromString(s)
	if err != nil {
		return p, err
	}
	if p.Prefix != prefix {
		return PrefixedUUID{}, fmt.Errorf("%w: prefix %q, want %q", ErrInvalid, p.Prefix, prefix)
	}
	return p, nil
}

// String formats the id as "prefix-uuid".
func (p PrefixedUUID) String() string {
	return p.Prefix + "-" + p.UUID.String()
}

// IsZero reports whether p is the zero value.
func (p PrefixedUUID) IsZero() bool {
	return p.Prefix == "" && p.UUID == uuid.Nil
}

// MarshalText also drives JSON encoding as a plain string.
func (p PrefixedUUID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the "prefix-uuid" form.
func (p *PrefixedUUID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
