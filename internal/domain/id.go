package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Space tags the id namespace an object lives in.
type Space uint8

const (
	// SpaceRelative marks a placeholder id whose serial refers to the N-th
	// object created earlier in the same transaction.
	SpaceRelative Space = 0

	// SpaceProtocol is the namespace of all persistent chain objects.
	SpaceProtocol Space = 1
)

// ObjectType tags the entity kind of an ObjectID.
type ObjectType uint8

const (
	TypeAccount ObjectType = iota + 1
	TypeAsset
	TypeEvent
	TypeRules
	TypeGroup
	TypeMarket
	TypeBet
	TypePosition
	TypeProposal
)

// typeNames is used for error messages and the string form of ids.
var typeNames = map[ObjectType]string{
	TypeAccount:  "account",
	TypeAsset:    "asset",
	TypeEvent:    "event",
	TypeRules:    "rules",
	TypeGroup:    "group",
	TypeMarket:   "market",
	TypeBet:      "bet",
	TypePosition: "position",
	TypeProposal: "proposal",
}

// String returns the human-readable name of the object type.
func (t ObjectType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ObjectID identifies a persistent chain object as a (space, type, serial)
// triple, rendered as "1.6.42". Relative ids use SpaceRelative and carry the
// index of a created object in the enclosing transaction as their serial.
type ObjectID struct {
	Space  Space
	Type   ObjectType
	Serial uint64
}

// NewID returns a protocol-space id of the given type and serial.
func NewID(t ObjectType, serial uint64) ObjectID {
	return ObjectID{Space: SpaceProtocol, Type: t, Serial: serial}
}

// RelativeID returns a placeholder id referring to the index-th object
// created by the enclosing transaction.
func RelativeID(index uint64) ObjectID {
	return ObjectID{Space: SpaceRelative, Serial: index}
}

// IsRelative reports whether the id is a relative placeholder.
func (id ObjectID) IsRelative() bool {
	return id.Space == SpaceRelative
}

// IsType reports whether the id is a resolved protocol id of the given type.
func (id ObjectID) IsType(t ObjectType) bool {
	return id.Space == SpaceProtocol && id.Type == t
}

// IsZero reports whether the id is the zero value.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// String renders the id in dotted form, e.g. "1.6.42".
func (id ObjectID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Space, id.Type, id.Serial)
}

// MarshalText implements encoding.TextMarshaler so ids serialize as their
// dotted form in JSON and TOML.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses a dotted id string such as "1.6.42".
func ParseID(s string) (ObjectID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ObjectID{}, fmt.Errorf("domain: malformed object id %q", s)
	}

	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return ObjectID{}, fmt.Errorf("domain: malformed object id %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[0] > 255 || nums[1] > 255 {
		return ObjectID{}, fmt.Errorf("domain: malformed object id %q: space/type out of range", s)
	}

	return ObjectID{
		Space:  Space(nums[0]),
		Type:   ObjectType(nums[1]),
		Serial: nums[2],
	}, nil
}

// Less provides the canonical total order over ids used by the secondary
// indices: space, then type, then serial.
func (id ObjectID) Less(other ObjectID) bool {
	if id.Space != other.Space {
		return id.Space < other.Space
	}
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	return id.Serial < other.Serial
}
