package api

import (
	"time"

	"vaultview/internal/catalog"
	"vaultview/internal/navigation"
	"vaultview/internal/subtitle"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Items   int    `json:"items"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Catalog

type SourceDTO struct {
	Label     string `json:"label"`
	URL       string `json:"url"`
	MIMEType  string `json:"mime_type"`
	StreamURL string `json:"stream_url"`
}

type ItemResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Type         catalog.MediaType  `json:"type"`
	Category     catalog.Category   `json:"category"`
	Categories   []catalog.Category `json:"categories"`
	Format       string             `json:"format"`
	Size         string             `json:"size,omitempty"`
	Artist       string             `json:"artist,omitempty"`
	Album        string             `json:"album,omitempty"`
	SubtitleURL  string             `json:"subtitle_url,omitempty"`
	HasSubtitles bool               `json:"has_subtitles"`
	Sources      []SourceDTO        `json:"sources"`
	Active       bool               `json:"active"`
}

type CatalogResponse struct {
	Filter string         `json:"filter"`
	Query  string         `json:"query"`
	Count  int            `json:"count"`
	Empty  bool           `json:"empty"`
	Items  []ItemResponse `json:"items"`
}

type NavigationResponse struct {
	Active string           `json:"active"`
	Tags   []navigation.Tag `json:"tags"`
}

type SubtitlesResponse struct {
	ID    string         `json:"id"`
	URL   string         `json:"url"`
	Cues  []subtitle.Cue `json:"cues"`
	Count int            `json:"count"`
}

// Sessions and player

type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type SelectRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type ExpandRequest struct {
	// Expanded toggles the current value when omitted.
	Expanded *bool `json:"expanded"`
}

// EventRequest is a media element event forwarded by the browser.
type EventRequest struct {
	Type     string  `json:"type"`
	URL      string  `json:"url"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Message  string  `json:"message"`
}

type BrokenResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}
