// Package common keeps enums shared between configuration and document
// building packages so that config does not have to depend on the builder.
package common

import (
	"fmt"
	"strings"
)

// Structural role of a tag, drives builder behavior.
type Role int

const (
	RoleNone Role = iota
	RoleBlock
	RoleParagraph
	RoleCharacter
	RoleSpecial
	RoleForm
	RoleHidden
)

var roleNames = []string{"none", "block", "paragraph", "character", "special", "form", "hidden"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// IsBlock reports whether role opens a block element in the tree.
func (r Role) IsBlock() bool {
	return r == RoleBlock || r == RoleParagraph
}

// What to do with tags missing from the registry.
type UnknownTags int

const (
	UnknownTagsHidden UnknownTags = iota
	UnknownTagsDrop
)

var unknownTagsNames = []string{"hidden", "drop"}

func (u UnknownTags) String() string {
	if u < 0 || int(u) >= len(unknownTagsNames) {
		return fmt.Sprintf("UnknownTags(%d)", int(u))
	}
	return unknownTagsNames[u]
}

// UnknownTagsNames returns all supported policy names.
func UnknownTagsNames() []string {
	return append([]string(nil), unknownTagsNames...)
}

// ParseUnknownTags converts policy name to value.
func ParseUnknownTags(name string) (UnknownTags, error) {
	for i, n := range unknownTagsNames {
		if strings.EqualFold(n, name) {
			return UnknownTags(i), nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid UnknownTags, try [%s]", name, strings.Join(unknownTagsNames, ", "))
}

// MarshalText implements encoding.TextMarshaler, used by yaml.
func (u UnknownTags) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by yaml.
func (u *UnknownTags) UnmarshalText(text []byte) error {
	v, err := ParseUnknownTags(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// How edit instruction attaches to neighbors already in the tree.
type Direction int

const (
	DirectionOriginate Direction = iota
	DirectionJoinPrevious
	DirectionJoinNext
)

func (d Direction) String() string {
	switch d {
	case DirectionOriginate:
		return "originate"
	case DirectionJoinPrevious:
		return "joinPrevious"
	case DirectionJoinNext:
		return "joinNext"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}
