package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
)

// encodeExtra serialises extra fields for the extra column. An empty set is
// stored as NULL.
func encodeExtra(extra map[string]any) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding extra fields: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// decodeExtra is the inverse of encodeExtra. Numbers decode as json.Number
// to match what the HTTP layer hands to the store.
func decodeExtra(col sql.NullString) (map[string]any, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(col.String)))
	dec.UseNumber()
	var extra map[string]any
	if err := dec.Decode(&extra); err != nil {
		return nil, fmt.Errorf("decoding extra fields: %w", err)
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}
