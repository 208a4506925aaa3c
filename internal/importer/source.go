package importer

import "github.com/cory-johannsen/mudworld/internal/game/world"

// ZoneData is the common intermediate form produced by every Source: one
// zone with its reset program and the rooms that belong to it.
type ZoneData struct {
	Zone  *world.Zone
	Rooms []*world.Room
}

// Source loads content from a format-specific source directory.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// Postcondition: returns at least one ZoneData, or a non-nil error.
type Source interface {
	Load(sourceDir string) ([]*ZoneData, error)
}
