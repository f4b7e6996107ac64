package frame

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/hierframe/internal/hkey"
)

// DomainTable prefixes table content hashes. The version suffix allows the
// encoding to change without colliding with old hashes.
const DomainTable = "hierframe/table/v1"

// MarshalKey encodes a key as a JSON array of integers. Absent components
// encode as null.
func MarshalKey(k hkey.Key) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		if c == hkey.Absent {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatInt(c, 10))
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// UnmarshalKey decodes a key written by MarshalKey.
func UnmarshalKey(data []byte) (hkey.Key, error) {
	var raw []*int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	k := make(hkey.Key, len(raw))
	for i, c := range raw {
		if c == nil {
			k[i] = hkey.Absent
			continue
		}
		k[i] = *c
	}
	return k, nil
}

// MarshalCells encodes row i as a canonical JSON object keyed by the dotted
// column name, keys in byte order, no insignificant whitespace.
func (t *Table) MarshalCells(i int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, ref := range t.canonicalRefs() {
		if n > 0 {
			buf.WriteByte(',')
		}
		name, err := marshalCanonicalString(ref.String())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		cell, err := MarshalValue(t.cols[ref][i])
		if err != nil {
			return nil, fmt.Errorf("row %s column %s: %w", t.keys[i], ref, err)
		}
		buf.Write(cell)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalCells decodes a cell object written by MarshalCells.
func UnmarshalCells(data []byte) (Row, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	row := make(Row, len(raw))
	for name, msg := range raw {
		ref, err := Ref(name)
		if err != nil {
			return nil, err
		}
		v, err := UnmarshalValue(msg)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		row[ref] = v
	}
	return row, nil
}

// MarshalCanonical encodes the whole table deterministically:
//
//	{"depth":4,"columns":["a.b",...],"rows":[{"key":[...],"cells":{...}},...]}
//
// Two tables with the same depth, keys, columns and cells always encode to
// the same bytes. Used for golden files and content hashes.
func (t *Table) MarshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"depth":`)
	buf.WriteString(strconv.Itoa(t.depth))
	buf.WriteString(`,"columns":[`)
	for n, ref := range t.canonicalRefs() {
		if n > 0 {
			buf.WriteByte(',')
		}
		name, err := marshalCanonicalString(ref.String())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
	}
	buf.WriteString(`],"rows":[`)
	for i := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"key":`)
		buf.Write(MarshalKey(t.keys[i]))
		buf.WriteString(`,"cells":`)
		cells, err := t.MarshalCells(i)
		if err != nil {
			return nil, err
		}
		buf.Write(cells)
		buf.WriteByte('}')
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// ContentHash returns the SHA-256 of the canonical encoding with domain
// separation: SHA256(domain + 0x00 + data).
func (t *Table) ContentHash() (string, error) {
	data, err := t.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainTable))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalRefs orders columns by their dotted name, which is what the JSON
// object keys sort by.
func (t *Table) canonicalRefs() []ColumnRef {
	refs := slices.Clone(t.refs)
	slices.SortFunc(refs, func(a, b ColumnRef) int {
		return strings.Compare(a.String(), b.String())
	})
	return refs
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// FromRows rebuilds a table from decoded keys and cells, validating it like
// a Builder would. Extra options, typically Columns, are passed through.
func FromRows(depth int, ragged bool, keys []hkey.Key, rows []Row, extra ...BuildOption) (*Table, error) {
	opts := slices.Clone(extra)
	if ragged {
		opts = append(opts, Ragged())
	}
	b := NewBuilder(depth, opts...)
	for i, k := range keys {
		b.Add(k, rows[i])
	}
	return b.Build()
}
