package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

var ErrInvalidSeed = errors.New("invalid catalog seed")

// DefaultSeed returns the base list compiled into the binary.
func DefaultSeed() ([]MediaItem, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed decodes a YAML list of media items and validates it.
func LoadSeed(r io.Reader) ([]MediaItem, error) {
	var items []MediaItem
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidSeed, i)
		}
		if strings.HasPrefix(item.ID, ReplicaPrefix) {
			return nil, fmt.Errorf("%w: id %q uses the reserved prefix %q", ErrInvalidSeed, item.ID, ReplicaPrefix)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidSeed, item.ID)
		}
		seen[item.ID] = true

		if strings.TrimSpace(item.URL) == "" {
			return nil, fmt.Errorf("%w: %q has no url", ErrInvalidSeed, item.ID)
		}
		if !item.Type.Valid() {
			return nil, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidSeed, item.ID, item.Type)
		}
		for _, c := range item.Categories {
			if !c.Valid() {
				return nil, fmt.Errorf("%w: %q has unknown category %q", ErrInvalidSeed, item.ID, c)
			}
		}
	}

	return items, nil
}
