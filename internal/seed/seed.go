// Package seed builds the initial item collection: the built-in demo items
// and items read from a JSONL file.
package seed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Seed file errors.
var (
	ErrMissingID   = errors.New("seed item has no id")
	ErrInvalidItem = errors.New("invalid seed item")
)

// Defaults returns the three items every fresh store starts with.
func Defaults() []types.Item {
	return []types.Item{
		{ID: "1", Name: "Laptop", Description: "Powerful computing device"},
		{ID: "2", Name: "Smartphone", Description: "Mobile communication and entertainment"},
		{ID: "3", Name: "Headphones", Description: "Audio output device"},
	}
}

// FileResult is what ReadFile found in a seed file.
type FileResult struct {
	Items   []types.Item
	Skipped []int // 1-based line numbers of malformed JSON lines
}

// ReadFile reads one item per line. Blank lines are ignored and lines that
// are not valid JSON are skipped. A well-formed line that is not an item
// (not an object, no id, or failing create validation) is an error.
func ReadFile(path string) (FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var res FileResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		if !json.Valid(raw) {
			res.Skipped = append(res.Skipped, line)
			continue
		}
		it, err := parseItem(raw)
		if err != nil {
			return FileResult{}, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		res.Items = append(res.Items, it)
	}
	if err := scanner.Err(); err != nil {
		return FileResult{}, fmt.Errorf("scanning %s: %w", path, err)
	}
	return res, nil
}

// parseItem turns one JSON object into an Item. The id may be a string or
// a JSON number.
func parseItem(raw []byte) (types.Item, error) {
	fields, err := types.ParseFields(raw)
	if err != nil {
		return types.Item{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}

	var id string
	switch v := fields[types.FieldID].(type) {
	case string:
		id = strings.TrimSpace(v)
	case json.Number:
		id = v.String()
	}
	if id == "" {
		return types.Item{}, ErrMissingID
	}

	if err := types.ValidateFull(fields); err != nil {
		return types.Item{}, fmt.Errorf("%w %s: %v", ErrInvalidItem, id, err)
	}
	return types.NewItem(id, fields), nil
}

// Collect assembles the initial collection for cfg: the defaults when
// SeedDefaults is set, followed by the items of SeedFile. Duplicate IDs
// across both sources are an error. The returned int is the number of
// skipped seed-file lines.
func Collect(cfg types.Config) ([]types.Item, int, error) {
	var items []types.Item
	if cfg.SeedDefaults {
		items = append(items, Defaults()...)
	}

	skipped := 0
	if cfg.SeedFile != "" {
		res, err := ReadFile(cfg.SeedFile)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res.Items...)
		skipped = len(res.Skipped)
	}

	if err := CheckUnique(items); err != nil {
		return nil, 0, err
	}
	return items, skipped, nil
}

// CheckUnique returns ErrDuplicateID naming the first repeated ID.
func CheckUnique(items []types.Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return fmt.Errorf("%w: %s", types.ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}
