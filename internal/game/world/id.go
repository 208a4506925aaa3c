package world

import (
	"strconv"
	"strings"
)

// EntityID is the opaque handle of any world entity.
// The zero value is a valid id; InvalidID marks "no entity". Encoders write
// ids as JSON numbers, because a legacy string id "0" decodes as 1000.
type EntityID uint64

// InvalidID is the "no entity" sentinel.
const InvalidID EntityID = ^EntityID(0)

// zoneWidth is the number of local ids reserved per zone in the legacy
// numbering scheme (zone 30 owns 3000..3099).
const zoneWidth = 100

// MakeID builds an id from a legacy zone number and a zone-local number.
//
// Precondition: local < 100.
func MakeID(zone, local uint64) EntityID {
	return EntityID(zone*zoneWidth + local)
}

// IsValid reports whether id refers to an entity.
func (id EntityID) IsValid() bool { return id != InvalidID }

// ZoneNumber returns the legacy zone number encoded in id.
func (id EntityID) ZoneNumber() uint64 { return uint64(id) / zoneWidth }

// LocalNumber returns the zone-relative prototype number encoded in id.
func (id EntityID) LocalNumber() uint64 { return uint64(id) % zoneWidth }

func (id EntityID) String() string {
	if !id.IsValid() {
		return "invalid"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// ParseEntityID parses a decimal id. "-1" and the empty string yield InvalidID.
//
// Postcondition: Returns a ParseError wrapped error when s is not numeric.
func ParseEntityID(s string) (EntityID, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-1" {
		return InvalidID, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return InvalidID, newError(ErrParse, "ParseEntityID", "invalid entity id "+strconv.Quote(s), err)
	}
	return EntityID(n), nil
}
