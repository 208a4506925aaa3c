package world

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// The readers below accept both generations of the world file format:
// numbers may arrive as numeric strings, and several fields have legacy
// aliases. Any type mismatch becomes an ErrParse carrying the field path.

func parseDocument(op string, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, parseError(op, "malformed JSON")
	}
	return gjson.ParseBytes(data), nil
}

// firstOf returns the first present field among keys.
func firstOf(r gjson.Result, keys ...string) (gjson.Result, bool) {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func readString(op, field string, v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.String:
		return v.Str, nil
	case gjson.Null:
		return "", nil
	default:
		return "", parseError(op, "field %q: expected string, got %s", field, v.Type)
	}
}

// readInt accepts a JSON number or a numeric string.
func readInt(op, field string, v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return int(v.Num), nil
		}
		return int(v.Int()), nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, newError(ErrParse, op, "field "+strconv.Quote(field)+": not a number", err)
		}
		return int(f), nil
	default:
		return 0, parseError(op, "field %q: expected number, got %s", field, v.Type)
	}
}

func readBool(op, field string, v gjson.Result) (bool, error) {
	switch v.Type {
	case gjson.True, gjson.False:
		return v.Bool(), nil
	case gjson.Number:
		return v.Num != 0, nil
	case gjson.String:
		b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		if err != nil {
			return false, newError(ErrParse, op, "field "+strconv.Quote(field)+": not a boolean", err)
		}
		return b, nil
	default:
		return false, parseError(op, "field %q: expected boolean, got %s", field, v.Type)
	}
}

// readID accepts a number or numeric string; -1 and "-1" mean InvalidID.
func readID(op, field string, v gjson.Result) (EntityID, error) {
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 {
			return InvalidID, nil
		}
		return EntityID(v.Uint()), nil
	case gjson.String:
		id, err := ParseEntityID(v.Str)
		if err != nil {
			return InvalidID, newError(ErrParse, op, "field "+strconv.Quote(field), err)
		}
		return id, nil
	case gjson.Null:
		return InvalidID, nil
	default:
		return InvalidID, parseError(op, "field %q: expected id, got %s", field, v.Type)
	}
}

// readStrings accepts an array of strings or a single string; sep splits
// the single-string form (empty sep keeps it whole).
func readStrings(op, field string, v gjson.Result, sep string) ([]string, error) {
	switch {
	case v.IsArray():
		var out []string
		for _, e := range v.Array() {
			if e.Type != gjson.String {
				return nil, parseError(op, "field %q: expected array of strings", field)
			}
			out = append(out, e.Str)
		}
		return out, nil
	case v.Type == gjson.String:
		if sep == "" {
			return []string{v.Str}, nil
		}
		var out []string
		for _, p := range strings.Split(v.Str, sep) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case v.Type == gjson.Null:
		return nil, nil
	default:
		return nil, parseError(op, "field %q: expected string or array", field)
	}
}

// jsonDoc builds a JSON object field by field, preserving insertion order.
type jsonDoc struct {
	buf []byte
	err error
}

func newDoc() *jsonDoc { return &jsonDoc{buf: []byte("{}")} }

func (d *jsonDoc) set(path string, v any) {
	if d.err != nil {
		return
	}
	d.buf, d.err = sjson.SetBytes(d.buf, path, v)
}

func (d *jsonDoc) setRaw(path string, raw []byte) {
	if d.err != nil {
		return
	}
	d.buf, d.err = sjson.SetRawBytes(d.buf, path, raw)
}

func (d *jsonDoc) bytes(op string) ([]byte, error) {
	if d.err != nil {
		return nil, newError(ErrSerialization, op, "encoding failed", d.err)
	}
	return d.buf, nil
}

func entityFromJSON(op string, r gjson.Result) (Entity, error) {
	if !r.IsObject() {
		return Entity{}, parseError(op, "expected JSON object")
	}
	idv := r.Get("id")
	if !idv.Exists() {
		return Entity{}, parseError(op, "missing 'id' field")
	}
	var id EntityID
	switch idv.Type {
	case gjson.String:
		n, err := strconv.ParseUint(strings.TrimSpace(idv.Str), 10, 64)
		if err != nil {
			return Entity{}, newError(ErrParse, op, "field \"id\"", err)
		}
		if n == 0 {
			n = 1000
		}
		id = EntityID(n)
	case gjson.Number:
		if idv.Num < 0 {
			return Entity{}, parseError(op, "field \"id\": negative id")
		}
		id = EntityID(idv.Uint())
	default:
		return Entity{}, parseError(op, "field \"id\": expected number or string, got %s", idv.Type)
	}

	var name string
	switch {
	case r.Get("name").Exists():
		s, err := readString(op, "name", r.Get("name"))
		if err != nil {
			return Entity{}, err
		}
		name = s
	case r.Get("short").Exists():
		name = r.Get("short").String()
	case r.Get("keywords").Exists():
		kw := r.Get("keywords")
		if kw.Type == gjson.String {
			name = kw.Str
		} else {
			for _, k := range kw.Array() {
				if k.Type == gjson.String {
					name = k.Str
					break
				}
			}
		}
	case r.Get("name_list").Exists():
		name = r.Get("name_list").String()
	default:
		return Entity{}, parseError(op, "missing 'name', 'short', 'keywords', or 'name_list' field")
	}
	if strings.TrimSpace(name) == "" {
		return Entity{}, parseError(op, "entity %s has an empty name", id)
	}

	e := NewEntity(id, name)
	if v, ok := firstOf(r, "ground", "description", "long_description"); ok {
		s, err := readString(op, "ground", v)
		if err != nil {
			return Entity{}, err
		}
		e.SetGround(s)
	}
	if v, ok := firstOf(r, "short", "short_desc", "short_description"); ok {
		s, err := readString(op, "short", v)
		if err != nil {
			return Entity{}, err
		}
		e.SetShortDesc(s)
	}

	var keywords []string
	if kw := r.Get("keywords"); kw.IsArray() {
		for _, k := range kw.Array() {
			if k.Type == gjson.String {
				keywords = append(keywords, k.Str)
			}
		}
	} else if kw.Type == gjson.String {
		keywords = strings.Fields(kw.Str)
	} else if nl := r.Get("name_list"); nl.Type == gjson.String {
		keywords = strings.Fields(nl.Str)
	}
	if len(keywords) > 0 {
		e.SetKeywords(keywords)
	}
	if err := e.Validate(); err != nil {
		return Entity{}, err
	}
	return e, nil
}

func (e *Entity) writeJSON(d *jsonDoc, typeName string) {
	d.set("type", typeName)
	d.set("id", uint64(e.id))
	d.set("name", e.name)
	d.set("keywords", e.keywords)
	d.set("ground", e.ground)
	if e.short != "" {
		d.set("short", e.short)
	}
}
