package dataset

import (
	"fmt"
	"strings"
)

// Location is one monitored room or area.
type Location uint8

const (
	LocationUnknown Location = iota
	U4C
	Jedilnica
	U4B
	Hodnik
	Soba18
	U11
	U3A
	Zbornica
)

var locationNames = [...]string{
	LocationUnknown: "unknown",
	U4C:             "u4c",
	Jedilnica:       "jedilnica",
	U4B:             "u4b",
	Hodnik:          "hodnik",
	Soba18:          "soba18",
	U11:             "u11",
	U3A:             "u3a",
	Zbornica:        "zbornica",
}

// DefaultExcludedLocations are the common areas dropped after the merge:
// they are not classrooms and carry no lesson schedule.
var DefaultExcludedLocations = []Location{Jedilnica, Hodnik, Zbornica}

// Locations returns every known location in declaration order.
func Locations() []Location {
	out := make([]Location, 0, len(locationNames)-1)
	for l := U4C; l <= Zbornica; l++ {
		out = append(out, l)
	}
	return out
}

// Valid reports whether l is one of the known locations.
func (l Location) Valid() bool {
	return l >= U4C && l <= Zbornica
}

func (l Location) String() string {
	if int(l) < len(locationNames) {
		return locationNames[l]
	}
	return fmt.Sprintf("location(%d)", uint8(l))
}

// ParseLocation resolves a canonical location name, case-insensitively.
func ParseLocation(name string) (Location, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for l := U4C; l <= Zbornica; l++ {
		if locationNames[l] == n {
			return l, nil
		}
	}
	return LocationUnknown, fmt.Errorf("unknown location %q", name)
}

// LocationSet is a membership set over locations.
type LocationSet map[Location]struct{}

// NewLocationSet builds a set from the given locations.
func NewLocationSet(locs ...Location) LocationSet {
	s := make(LocationSet, len(locs))
	for _, l := range locs {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether l is in the set. A nil set contains nothing.
func (s LocationSet) Contains(l Location) bool {
	_, ok := s[l]
	return ok
}
