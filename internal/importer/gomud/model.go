// Package gomud reads GoMud asset trees (zones, areas and rooms keyed by
// display name) for conversion into numbered zones.
package gomud

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GomudZone is one assets/zones/<name>.yaml file. Rooms and Areas hold
// display names.
type GomudZone struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Rooms       []string `yaml:"rooms"`
	Areas       []string `yaml:"areas"`
}

// GomudArea is one assets/areas/<name>.yaml file.
type GomudArea struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Rooms       []string `yaml:"rooms"`
}

// GomudRoom is one assets/rooms/<name>.yaml file. Room objects are not
// read; zone resets place objects.
type GomudRoom struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Exits       map[string]GomudExit `yaml:"exits"`
}

// GomudExit is one exit of a room. Direction is a compass name such as
// "North" or "Southwest"; when empty the map key is used. Target is the
// display name of the destination room.
type GomudExit struct {
	Direction string     `yaml:"direction"`
	Name      string     `yaml:"name"`
	Target    string     `yaml:"target"`
	Secret    bool       `yaml:"secret"`
	Lock      *GomudLock `yaml:"lock"`
}

// GomudLock makes an exit a locked, keyless door that can be picked.
type GomudLock struct {
	Difficulty int `yaml:"difficulty"`
}

func decode[T any](kind string, data []byte) (*T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing gomud %s: %w", kind, err)
	}
	return &v, nil
}

// ParseZone parses a zone file.
func ParseZone(data []byte) (*GomudZone, error) { return decode[GomudZone]("zone", data) }

// ParseArea parses an area file.
func ParseArea(data []byte) (*GomudArea, error) { return decode[GomudArea]("area", data) }

// ParseRoom parses a room file. Unknown fields such as objects are ignored.
func ParseRoom(data []byte) (*GomudRoom, error) { return decode[GomudRoom]("room", data) }
