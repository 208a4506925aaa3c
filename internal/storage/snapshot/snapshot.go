// Package snapshot writes and restores zstd-compressed JSON images of a
// world.Store: zones with their reset programs, rooms, and object and mobile
// prototypes. Live mobiles and spawned objects are not captured; a restored
// world is repopulated by its next reset.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

func wrap(kind error, op, msg string, cause error) error {
	return &world.Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// Version is the snapshot format written by Write.
const Version = 1

// Stats counts the records in a snapshot.
type Stats struct {
	Zones   int
	Rooms   int
	Objects int
	Mobiles int
	Bytes   int64
}

type image struct {
	Version int               `json:"version"`
	Zones   []json.RawMessage `json:"zones"`
	Rooms   []json.RawMessage `json:"rooms"`
	Objects []json.RawMessage `json:"objects"`
	Mobiles []json.RawMessage `json:"mobiles"`
}

// Encode writes the compressed image of s to w.
//
// Postcondition: Returns the record counts, or an ErrSerialization world
// error when any record fails to encode.
func Encode(w io.Writer, s *world.Store) (Stats, error) {
	img := image{Version: Version}
	var err error
	if img.Zones, err = encodeAll(s.Zones()); err != nil {
		return Stats{}, err
	}
	if img.Rooms, err = encodeAll(s.Rooms()); err != nil {
		return Stats{}, err
	}
	if img.Objects, err = encodeAll(s.ObjectPrototypes()); err != nil {
		return Stats{}, err
	}
	if img.Mobiles, err = encodeAll(s.MobilePrototypes()); err != nil {
		return Stats{}, err
	}
	raw, err := json.Marshal(img)
	if err != nil {
		return Stats{}, wrap(world.ErrSerialization, "snapshot.Encode", "", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return Stats{}, fmt.Errorf("snapshot: creating encoder: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return Stats{}, fmt.Errorf("snapshot: compressing: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Stats{}, fmt.Errorf("snapshot: compressing: %w", err)
	}
	return Stats{
		Zones:   len(img.Zones),
		Rooms:   len(img.Rooms),
		Objects: len(img.Objects),
		Mobiles: len(img.Mobiles),
		Bytes:   int64(len(raw)),
	}, nil
}

func encodeAll[T json.Marshaler](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := it.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Write stores the image of s at path. The file is replaced atomically.
//
// Precondition: the directory of path must be writable.
// Postcondition: path holds a complete snapshot or is left untouched.
func Write(path string, s *world.Store) (Stats, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return Stats{}, wrap(world.ErrFileAccess, "snapshot.Write", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	st, err := Encode(tmp, s)
	if err != nil {
		tmp.Close()
		return Stats{}, err
	}
	if err := tmp.Close(); err != nil {
		return Stats{}, wrap(world.ErrFileAccess, "snapshot.Write", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Stats{}, wrap(world.ErrFileAccess, "snapshot.Write", path, err)
	}
	return st, nil
}

// Decode reads a compressed image from r into a new store.
//
// Postcondition: Returns ErrParse world errors for corrupt data or an
// unknown version.
func Decode(r io.Reader, logger *zap.Logger) (*world.Store, Stats, error) {
	const op = "snapshot.Decode"
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, Stats{}, wrap(world.ErrParse, op, "", err)
	}
	defer dec.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(dec); err != nil {
		return nil, Stats{}, wrap(world.ErrParse, op, "decompressing", err)
	}
	raw := buf.Bytes()
	if !gjson.ValidBytes(raw) {
		return nil, Stats{}, wrap(world.ErrParse, op, "invalid JSON", nil)
	}
	root := gjson.ParseBytes(raw)
	if v := root.Get("version").Int(); v != Version {
		return nil, Stats{}, wrap(world.ErrParse, op, fmt.Sprintf("unsupported version %d", v), nil)
	}

	s := world.NewStore(logger)
	st := Stats{Bytes: int64(len(raw))}
	// Zones go first so rooms join them as they are added.
	steps := []struct {
		key   string
		count *int
		add   func([]byte) error
	}{
		{"zones", &st.Zones, func(b []byte) error {
			z, err := world.ZoneFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddZone(z)
		}},
		{"rooms", &st.Rooms, func(b []byte) error {
			r, err := world.RoomFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddRoom(r)
		}},
		{"objects", &st.Objects, func(b []byte) error {
			o, err := world.ObjectFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddObjectPrototype(o)
		}},
		{"mobiles", &st.Mobiles, func(b []byte) error {
			m, err := world.MobileFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddMobilePrototype(m)
		}},
	}
	for _, step := range steps {
		for i, rec := range root.Get(step.key).Array() {
			if err := step.add([]byte(rec.Raw)); err != nil {
				return nil, Stats{}, fmt.Errorf("snapshot: %s[%d]: %w", step.key, i, err)
			}
			*step.count++
		}
	}
	return s, st, nil
}

// Read restores the snapshot at path.
//
// Postcondition: Returns an ErrFileNotFound world error when path is missing.
func Read(path string, logger *zap.Logger) (*world.Store, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Stats{}, wrap(world.ErrFileNotFound, "snapshot.Read", path, err)
		}
		return nil, Stats{}, wrap(world.ErrFileAccess, "snapshot.Read", path, err)
	}
	defer f.Close()
	return Decode(f, logger)
}
