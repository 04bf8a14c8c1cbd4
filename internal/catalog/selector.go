package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSelector = errors.New("unknown filter")

type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectCategory
	SelectType
	SelectInfo
)

const (
	TagAll  = "all"
	TagInfo = "info"
)

// Selector is the parsed value of the category/type filter.
type Selector struct {
	Kind     SelectorKind
	Category Category
	Type     MediaType
}

var All = Selector{Kind: SelectAll}

func (s Selector) String() string {
	switch s.Kind {
	case SelectCategory:
		return string(s.Category)
	case SelectType:
		return string(s.Type)
	case SelectInfo:
		return TagInfo
	default:
		return TagAll
	}
}

// ParseSelector accepts "all", "info", a media type or a category tag.
// An empty value means "all". Category tags compare case-insensitively.
func ParseSelector(value string) (Selector, error) {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "", TagAll:
		return All, nil
	case TagInfo:
		return Selector{Kind: SelectInfo}, nil
	}

	for _, t := range mediaTypes {
		if strings.EqualFold(v, string(t)) {
			return Selector{Kind: SelectType, Type: t}, nil
		}
	}

	for _, c := range Categories() {
		if strings.EqualFold(v, string(c)) {
			return Selector{Kind: SelectCategory, Category: c}, nil
		}
	}

	return Selector{}, fmt.Errorf("%w: %q", ErrUnknownSelector, value)
}

// Match reports whether item passes the selector and the free-text query.
// The query matches a substring of the lowercased name or format.
func Match(item MediaItem, sel Selector, query string) bool {
	switch sel.Kind {
	case SelectInfo:
		return false
	case SelectCategory:
		if !item.HasCategory(sel.Category) {
			return false
		}
	case SelectType:
		if item.Type != sel.Type {
			return false
		}
	}

	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Format), q)
}
