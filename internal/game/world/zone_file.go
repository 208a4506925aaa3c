package world

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ZoneFilePath returns the JSON file path of zone number n under dir.
func ZoneFilePath(dir string, n int) string {
	return filepath.Join(dir, strconv.Itoa(n)+".json")
}

var zoneFileRE = regexp.MustCompile(`(\d+)\.(?:json|zon|ya?ml)$`)

// ExtractZoneNumber returns the zone number encoded in a file name such as
// "lib/world/zon/30.zon".
func ExtractZoneNumber(path string) (int, bool) {
	m := zoneFileRE.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func readWorldFile(op, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, newError(ErrFileNotFound, op, path, err)
	case err != nil:
		return nil, newError(ErrFileAccess, op, path, err)
	}
	return data, nil
}

// ValidateZoneFile checks that path holds well-formed JSON with the
// required zone id and name, in either layout.
func ValidateZoneFile(path string) error {
	const op = "ValidateZoneFile"
	data, err := readWorldFile(op, path)
	if err != nil {
		return err
	}
	doc, err := parseDocument(op, data)
	if err != nil {
		return err
	}
	zd := doc
	if inner := doc.Get("zone"); inner.IsObject() {
		zd = inner
	}
	if !zd.Get("name").Exists() {
		return parseError(op, "%s: zone file missing required 'name' field", path)
	}
	if !zd.Get("id").Exists() {
		return parseError(op, "%s: zone file missing required 'id' field", path)
	}
	return nil
}

// ZoneFromFile reads and decodes a zone JSON file.
func ZoneFromFile(path string) (*Zone, error) {
	data, err := readWorldFile("ZoneFromFile", path)
	if err != nil {
		return nil, err
	}
	z, err := ZoneFromJSON(data)
	if err != nil {
		return nil, newError(ErrParse, "ZoneFromFile", path, err)
	}
	return z, nil
}

// SaveToFile writes the zone as indented JSON.
func (z *Zone) SaveToFile(path string) error {
	data, err := z.MarshalJSON()
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(data) {
		return newError(ErrSerialization, "Zone.SaveToFile", path, nil)
	}
	if err := os.WriteFile(path, pretty.Pretty(data), 0o644); err != nil {
		return newError(ErrFileAccess, "Zone.SaveToFile", path, err)
	}
	return nil
}

// ReloadFromFile replaces the zone's definition with the file's while
// keeping runtime state: statistics, room membership, callbacks, logger
// and clock survive.
func (z *Zone) ReloadFromFile(path string) error {
	fresh, err := ZoneFromFile(path)
	if err != nil {
		return err
	}
	if fresh.ID() != z.ID() {
		return invalidArgument("Zone.ReloadFromFile", "%s holds zone %s, not %s", path, fresh.ID(), z.ID())
	}
	z.Entity = fresh.Entity
	z.resetMinutes = fresh.resetMinutes
	z.resetMode = fresh.resetMode
	z.minLevel = fresh.minLevel
	z.maxLevel = fresh.maxLevel
	z.builders = fresh.builders
	z.flags = fresh.flags
	z.firstRoom = fresh.firstRoom
	z.lastRoom = fresh.lastRoom
	z.commands = fresh.commands
	return nil
}
