package world

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed zone.schema.json
var defaultZoneSchema string

// LoadReport counts what a load produced.
type LoadReport struct {
	Files   int
	Zones   int
	Rooms   int
	Objects int
	Mobiles int
	Skipped int
}

func (r *LoadReport) add(o LoadReport) {
	r.Files += o.Files
	r.Zones += o.Zones
	r.Rooms += o.Rooms
	r.Objects += o.Objects
	r.Mobiles += o.Mobiles
	r.Skipped += o.Skipped
}

// Loader reads zone files into a Store. A zone file holds one zone plus its
// embedded "rooms", "objects" and "mobs" arrays; a record that fails to
// decode is skipped with a warning while its siblings load.
type Loader struct {
	logger *zap.Logger
	schema *jsonschema.Schema
}

// NewLoader creates a loader. A nil logger is replaced with a no-op.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// UseSchema validates every file against the JSON schema at path before
// decoding. An empty path selects the built-in zone schema.
func (l *Loader) UseSchema(path string) error {
	var (
		s   *jsonschema.Schema
		err error
	)
	if path == "" {
		s, err = jsonschema.CompileString("zone.schema.json", defaultZoneSchema)
	} else {
		s, err = jsonschema.Compile(path)
	}
	if err != nil {
		return newError(ErrParse, "Loader.UseSchema", "compiling zone schema", err)
	}
	l.schema = s
	return nil
}

// LoadDir loads every zone file in dir whose name matches pattern (default
// "*.json"). YAML files (".yaml", ".yml") are accepted when the pattern
// selects them. Files that fail to load are logged and skipped.
//
// Postcondition: returns an ErrFileNotFound error when no file loaded.
func (l *Loader) LoadDir(s *Store, dir, pattern string) (LoadReport, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return LoadReport{}, newError(ErrFileAccess, "Loader.LoadDir", dir, err)
	}
	slices.Sort(paths)

	var total LoadReport
	for _, p := range paths {
		rep, err := l.LoadFile(s, p)
		if err != nil {
			total.Skipped++
			l.logger.Warn("skipping zone file", zap.String("path", p), zap.Error(err))
			continue
		}
		total.add(rep)
	}
	if total.Files == 0 {
		return total, newError(ErrFileNotFound, "Loader.LoadDir", "no zone files loaded from "+dir, nil)
	}
	l.logger.Info("world loaded",
		zap.String("dir", dir),
		zap.Int("files", total.Files),
		zap.Int("zones", total.Zones),
		zap.Int("rooms", total.Rooms),
		zap.Int("objects", total.Objects),
		zap.Int("mobiles", total.Mobiles),
		zap.Int("skipped", total.Skipped),
	)
	return total, nil
}

// LoadFile loads one zone file. YAML is recognized by extension.
func (l *Loader) LoadFile(s *Store, path string) (LoadReport, error) {
	data, err := readWorldFile("Loader.LoadFile", path)
	if err != nil {
		return LoadReport{}, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return LoadReport{}, newError(ErrParse, "Loader.LoadFile", path, err)
		}
	}
	rep, err := l.Load(s, data)
	if err != nil {
		return LoadReport{}, fmt.Errorf("loading %s: %w", path, err)
	}
	rep.Files = 1
	return rep, nil
}

// Load decodes one zone document into s.
func (l *Loader) Load(s *Store, data []byte) (LoadReport, error) {
	const op = "Loader.Load"
	var rep LoadReport
	if l.schema != nil {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return rep, newError(ErrParse, op, "malformed JSON", err)
		}
		if err := l.schema.Validate(v); err != nil {
			return rep, newError(ErrParse, op, "schema validation failed", err)
		}
	}
	doc, err := parseDocument(op, data)
	if err != nil {
		return rep, err
	}
	zone, err := zoneFromResult(doc)
	if err != nil {
		return rep, err
	}
	if err := s.AddZone(zone); err != nil {
		return rep, err
	}
	rep.Zones++
	log := l.logger.With(zap.Uint64("zone", uint64(zone.ID())))

	var roomDocs []gjson.Result
	if rooms := doc.Get("rooms"); rooms.IsArray() {
		roomDocs = rooms.Array()
	} else if rooms.IsObject() {
		roomDocs = rooms.Get("rooms").Array()
	}
	for i, rd := range roomDocs {
		if !rd.IsObject() {
			continue
		}
		room, err := roomFromResult(rd)
		if err == nil {
			room.SetZoneID(zone.ID())
			err = s.AddRoom(room)
		}
		if err != nil {
			rep.Skipped++
			log.Warn("skipping room", zap.Int("index", i), zap.Error(err))
			continue
		}
		rep.Rooms++
	}

	for i, od := range doc.Get("objects").Array() {
		obj, err := objectFromResult(od)
		if err == nil {
			err = s.AddObjectPrototype(obj)
		}
		if err != nil {
			rep.Skipped++
			log.Warn("skipping object", zap.Int("index", i), zap.Error(err))
			continue
		}
		rep.Objects++
	}

	mobs := doc.Get("mobs")
	if !mobs.Exists() {
		mobs = doc.Get("mobiles")
	}
	for i, md := range mobs.Array() {
		mob, err := mobileFromResult(md)
		if err == nil {
			err = s.AddMobilePrototype(mob)
		}
		if err != nil {
			rep.Skipped++
			log.Warn("skipping mobile", zap.Int("index", i), zap.Error(err))
			continue
		}
		rep.Mobiles++
	}

	log.Debug("zone loaded",
		zap.String("name", zone.Name()),
		zap.Int("rooms", rep.Rooms),
		zap.Int("objects", rep.Objects),
		zap.Int("mobiles", rep.Mobiles),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// yamlToJSON re-encodes a YAML document as JSON so one decoder serves both.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	v, err := jsonCompatible(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonCompatible converts YAML maps with non-string keys, such as numeric
// ids used as keys, into string-keyed maps.
func jsonCompatible(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			c, err := jsonCompatible(e)
			if err != nil {
				return nil, err
			}
			t[k] = c
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			c, err := jsonCompatible(e)
			if err != nil {
				return nil, err
			}
			switch key := k.(type) {
			case string:
				out[key] = c
			case int:
				out[strconv.Itoa(key)] = c
			default:
				return nil, fmt.Errorf("unsupported YAML key %v", k)
			}
		}
		return out, nil
	case []any:
		for i, e := range t {
			c, err := jsonCompatible(e)
			if err != nil {
				return nil, err
			}
			t[i] = c
		}
		return t, nil
	}
	return v, nil
}

// LoadZonesFromDir is a convenience wrapper that loads dir into a new Store.
func LoadZonesFromDir(dir string, logger *zap.Logger) (*Store, LoadReport, error) {
	s := NewStore(logger)
	rep, err := NewLoader(logger).LoadDir(s, dir, "")
	if err != nil {
		return nil, rep, err
	}
	return s, rep, nil
}
