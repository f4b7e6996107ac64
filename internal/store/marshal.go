package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
)

// marshalColumns converts column refs to a JSON array of dotted names.
func marshalColumns(refs []frame.ColumnRef) (string, error) {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal columns: %w", err)
	}
	return string(data), nil
}

// unmarshalColumns parses a column list written by marshalColumns.
func unmarshalColumns(data string) ([]frame.ColumnRef, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	refs := make([]frame.ColumnRef, len(names))
	for i, n := range names {
		r, err := frame.Ref(n)
		if err != nil {
			return nil, fmt.Errorf("unmarshal columns: %w", err)
		}
		refs[i] = r
	}
	return refs, nil
}
