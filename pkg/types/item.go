package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
)

// Reserved item field names. Every other key is an extra field.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
)

// Fields is a decoded JSON object as supplied by a caller, used both for
// create payloads and update patches.
type Fields map[string]any

// Has reports whether key is present, even with a null value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Item is a single record held by the store. Extra holds caller-supplied
// fields other than id, name and description; they are stored and returned
// unchanged.
type Item struct {
	ID          string
	Name        string
	Description string
	Extra       map[string]any
}

// NewItem builds an item with the given id from validated fields.
// Any id key inside fields is ignored.
func NewItem(id string, fields Fields) Item {
	it := Item{ID: id}
	return it.Merge(fields)
}

// Merge returns a copy of it with patch shallow-merged over it. Patch fields
// win, except id which never changes. Name and description are taken only
// when they hold strings; callers validate patches before merging.
func (it Item) Merge(patch Fields) Item {
	out := it.Clone()
	for k, v := range patch {
		switch k {
		case FieldID:
			continue
		case FieldName:
			if s, ok := v.(string); ok {
				out.Name = s
			}
		case FieldDescription:
			if s, ok := v.(string); ok {
				out.Description = s
			}
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[k] = cloneValue(v)
		}
	}
	return out
}

// Clone returns a deep copy of the item so that callers cannot reach the
// store's copy through nested maps or slices.
func (it Item) Clone() Item {
	out := it
	if it.Extra != nil {
		out.Extra = make(map[string]any, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// MarshalJSON writes id, name and description first, then extra fields in
// key order.
func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(first bool, key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	if err := write(true, FieldID, it.ID); err != nil {
		return nil, err
	}
	if err := write(false, FieldName, it.Name); err != nil {
		return nil, err
	}
	if err := write(false, FieldDescription, it.Description); err != nil {
		return nil, err
	}
	for _, k := range slices.Sorted(maps.Keys(it.Extra)) {
		if err := write(false, k, it.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. Numbers inside
// extra fields are kept as json.Number.
func (it *Item) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	id, _ := f[FieldID].(string)
	*it = NewItem(id, f)
	return nil
}

// ParseFields decodes a JSON object into Fields. An empty input decodes to
// an empty object. Syntax errors wrap ErrMalformedJSON and any other
// top-level value wraps ErrNotObject.
func ParseFields(data []byte) (Fields, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Fields{}, nil
	}
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, jsonKind(raw))
	}
	return Fields(obj), nil
}

// ParseBody decodes an HTTP request body. Objects decode as in
// ParseFields; an array becomes an object keyed by element index. Any
// other top-level value is rejected.
func ParseBody(data []byte) (Fields, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Fields{}, nil
	}
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case map[string]any:
		return Fields(v), nil
	case []any:
		f := make(Fields, len(v))
		for i, elem := range v {
			f[strconv.Itoa(i)] = elem
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, jsonKind(raw))
	}
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformedJSON)
	}
	return raw, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// NextID returns one more than the largest numeric item ID, or 1 when none
// of the items carries a numeric ID. It fails with ErrIDsExhausted when the
// largest ID is already math.MaxInt64.
func NextID(items []Item) (int64, error) {
	var highest int64
	for _, it := range items {
		n, err := strconv.ParseInt(it.ID, 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest == math.MaxInt64 {
		return 0, fmt.Errorf("%w: seed holds ID %d", ErrIDsExhausted, highest)
	}
	return highest + 1, nil
}

// FormatID renders a counter value as an item ID.
func FormatID(n int64) string {
	return strconv.FormatInt(n, 10)
}
