package source

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// level places a record group below the header: its parent group and the
// list field of the parent record that holds it.
type level struct {
	parent string
	field  string
}

var levels = map[string]level{
	GroupInteraction: {parent: GroupHeader, field: "interactions"},
	GroupSlice:       {parent: GroupHeader, field: "slices"},
	GroupPrimary:     {parent: GroupInteraction, field: "primaries"},
	GroupDaughter:    {parent: GroupPrimary, field: "daughters"},
}

// pathTo lists the groups walked from an event record down to group.
func pathTo(group string) []string {
	var path []string
	for g := group; g != GroupHeader; g = levels[g].parent {
		path = append([]string{g}, path...)
	}
	return path
}

// listFields returns the fields of a group's records that hold child
// lists rather than cells.
func listFields(group string) map[string]bool {
	out := map[string]bool{}
	for _, l := range levels {
		if l.parent == group {
			out[l.field] = true
		}
	}
	return out
}

// document is the on-disk layout of an event file.
type document struct {
	Events []map[string]any `yaml:"events"`
}

// YAMLSource serves tables from decoded event documents. It is immutable
// and safe for concurrent use.
type YAMLSource struct {
	first  int64 // entry number of events[0]
	events []map[string]any
}

// ReadFile decodes an event file.
func ReadFile(path string) (*YAMLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	src, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Decode reads an event document from r.
func Decode(r io.Reader) (*YAMLSource, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &YAMLSource{}, nil
		}
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return &YAMLSource{events: doc.Events}, nil
}

// Events returns the number of events.
func (s *YAMLSource) Events() int {
	return len(s.events)
}

// Batches splits the source into consecutive chunks of at most size events.
// Entry numbers are preserved, so keys from different batches never
// collide.
func (s *YAMLSource) Batches(size int) []*YAMLSource {
	if size <= 0 || size >= len(s.events) {
		return []*YAMLSource{s}
	}
	var out []*YAMLSource
	for lo := 0; lo < len(s.events); lo += size {
		hi := min(lo+size, len(s.events))
		out = append(out, &YAMLSource{first: s.first + int64(lo), events: s.events[lo:hi]})
	}
	return out
}

// Load implements Source.
func (s *YAMLSource) Load(group string, fields []string) (*frame.Table, error) {
	depth, err := DepthOf(group)
	if err != nil {
		return nil, err
	}

	var opts []frame.BuildOption
	if fields != nil {
		refs := make([]frame.ColumnRef, len(fields))
		for i, f := range fields {
			refs[i] = frame.Col(group, f)
		}
		opts = append(opts, frame.Columns(refs...))
	}
	b := frame.NewBuilder(depth, opts...)
	path := pathTo(group)
	var visit func(step int, rec map[string]any, key hkey.Key) error
	visit = func(step int, rec map[string]any, key hkey.Key) error {
		if step == len(path) {
			row, err := rowOf(group, rec, fields)
			if err != nil {
				return fmt.Errorf("record %s: %w", key, err)
			}
			b.Add(key, row)
			return nil
		}
		next := path[step]
		children, err := childrenOf(rec, levels[next].field)
		if err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
		for i, child := range children {
			component := int64(i)
			if next == GroupDaughter {
				id, err := daughterID(child)
				if err != nil {
					return fmt.Errorf("record %s daughter %d: %w", key, i, err)
				}
				component = id
			}
			if err := visit(step+1, child, key.Append(component)); err != nil {
				return err
			}
		}
		return nil
	}

	for i, ev := range s.events {
		if err := visit(0, ev, hkey.New(s.first+int64(i))); err != nil {
			return nil, fmt.Errorf("load %s: %w", group, err)
		}
	}
	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", group, err)
	}
	return t, nil
}

func childrenOf(rec map[string]any, field string) ([]map[string]any, error) {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: want a list, got %T", field, raw)
	}
	out := make([]map[string]any, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: want a mapping, got %T", field, i, item)
		}
		out[i] = m
	}
	return out, nil
}

func daughterID(rec map[string]any) (int64, error) {
	v, err := frame.FromAny(rec[DaughterIDField])
	if err != nil {
		return 0, err
	}
	id, ok := v.(frame.Int)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %s", DaughterIDField, frame.TypeName(v))
	}
	return int64(id), nil
}

// rowOf flattens rec and keeps the requested fields. Nested mappings become
// dotted fields: position: {x: 1} is field "position.x".
func rowOf(group string, rec map[string]any, fields []string) (frame.Row, error) {
	flat := map[string]frame.Value{}
	if err := flatten("", rec, listFields(group), flat); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make([]string, 0, len(flat))
		for f := range flat {
			fields = append(fields, f)
		}
		sort.Strings(fields)
	}
	row := make(frame.Row, len(fields))
	for _, f := range fields {
		v, ok := flat[f]
		if !ok {
			v = frame.Null{}
		}
		row[frame.Col(group, f)] = v
	}
	return row, nil
}

func flatten(prefix string, m map[string]any, skip map[string]bool, out map[string]frame.Value) error {
	for k, raw := range m {
		if prefix == "" && skip[k] {
			continue
		}
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch v := raw.(type) {
		case map[string]any:
			if err := flatten(name, v, nil, out); err != nil {
				return err
			}
		case []any:
			return fmt.Errorf("field %s: lists are not cell values", name)
		default:
			cell, err := frame.FromAny(v)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			out[name] = cell
		}
	}
	return nil
}
