package schema

import (
	"fmt"
)

// RelationType is the closed set of relation kinds
type RelationType int

const (
	OneToOne RelationType = iota + 1
	OneToMany
	ManyToOne
	ManyToMany
)

// RelationTypes lists every valid kind in declaration order
var RelationTypes = []RelationType{OneToOne, OneToMany, ManyToOne, ManyToMany}

// String returns the textual tag used in documents and graph labels
func (t RelationType) String() string {
	switch t {
	case OneToOne:
		return "OneToOne"
	case OneToMany:
		return "OneToMany"
	case ManyToOne:
		return "ManyToOne"
	case ManyToMany:
		return "ManyToMany"
	}
	return fmt.Sprintf("RelationType(%d)", int(t))
}

// Valid reports whether t is one of the declared kinds
func (t RelationType) Valid() bool {
	switch t {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// ParseRelationType parses a textual tag
func ParseRelationType(s string) (RelationType, error) {
	for _, t := range RelationTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown relation type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (t RelationType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid relation type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *RelationType) UnmarshalText(text []byte) error {
	parsed, err := ParseRelationType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
