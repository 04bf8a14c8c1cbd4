package catalog

import "strings"

type MediaType string

const (
	TypeVideo    MediaType = "video"
	TypeAudio    MediaType = "audio"
	TypeSubtitle MediaType = "subtitle"
)

var mediaTypes = []MediaType{TypeVideo, TypeAudio, TypeSubtitle}

func (t MediaType) Valid() bool {
	for _, known := range mediaTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryOfficial  Category = "Oficial"
	CategoryLeaked    Category = "Filtrado"
	CategoryLostMedia Category = "Lost Media"
	CategoryOptimized Category = "Optimizado"
	CategoryFree      Category = "Free"
	CategoryCRO       Category = "C.R.O"
	CategoryDuki      Category = "Duki"
	CategoryPlaylist  Category = "Playlist"
	CategorySubtitle  Category = "Subtítulo"
)

// Categories lists every known category in navigation order.
func Categories() []Category {
	return []Category{
		CategoryOfficial,
		CategoryLeaked,
		CategoryLostMedia,
		CategoryOptimized,
		CategoryFree,
		CategoryCRO,
		CategoryDuki,
		CategoryPlaylist,
		CategorySubtitle,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

type MediaItem struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	URL         string     `json:"url" yaml:"url"`
	Mirrors     []string   `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`
	Type        MediaType  `json:"type" yaml:"type"`
	Categories  []Category `json:"category" yaml:"category"`
	Format      string     `json:"format" yaml:"format"`
	SubtitleURL string     `json:"subtitle_url,omitempty" yaml:"subtitle_url,omitempty"`
	Size        string     `json:"size,omitempty" yaml:"size,omitempty"`
	Artist      string     `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album       string     `json:"album,omitempty" yaml:"album,omitempty"`
}

// Sources returns the primary URL followed by the mirrors, in order.
func (m MediaItem) Sources() []string {
	sources := make([]string, 0, 1+len(m.Mirrors))
	sources = append(sources, m.URL)
	return append(sources, m.Mirrors...)
}

func (m MediaItem) HasSource(url string) bool {
	for _, src := range m.Sources() {
		if src == url {
			return true
		}
	}
	return false
}

func (m MediaItem) HasCategory(c Category) bool {
	for _, own := range m.Categories {
		if own == c {
			return true
		}
	}
	return false
}

func (m MediaItem) HasSubtitles() bool {
	return strings.TrimSpace(m.SubtitleURL) != ""
}

// PrimaryCategory is the tag shown on the card.
func (m MediaItem) PrimaryCategory() Category {
	if len(m.Categories) == 0 {
		return ""
	}
	return m.Categories[0]
}

func (m MediaItem) clone() MediaItem {
	c := m
	if m.Mirrors != nil {
		c.Mirrors = append([]string(nil), m.Mirrors...)
	}
	if m.Categories != nil {
		c.Categories = append([]Category(nil), m.Categories...)
	}
	return c
}
