package player

import (
	"vaultview/internal/catalog"
	"vaultview/internal/subtitle"
)

// Snapshot is a consistent copy of the player state.
type Snapshot struct {
	State         State              `json:"state"`
	Item          *catalog.MediaItem `json:"item,omitempty"`
	URL           string             `json:"url,omitempty"`
	MIMEType      string             `json:"mime_type,omitempty"`
	Kind          catalog.MediaType  `json:"kind,omitempty"`
	Playing       bool               `json:"playing"`
	Expanded      bool               `json:"expanded"`
	Elapsed       float64            `json:"elapsed"`
	Duration      float64            `json:"duration"`
	ElapsedClock  string             `json:"elapsed_clock"`
	DurationClock string             `json:"duration_clock"`
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	Cues          []subtitle.Cue     `json:"cues"`
	ActiveCue     int                `json:"active_cue"`
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		State:     p.state,
		Expanded:  p.expanded,
		Status:    "stopped",
		Error:     p.errMsg,
		Cues:      append([]subtitle.Cue{}, p.cues...),
		ActiveCue: -1,
	}

	if p.item != nil {
		item := *p.item
		snap.Item = &item
		snap.URL = p.src.URL()
		snap.MIMEType = p.src.MIMEType()
		snap.Kind = p.src.Kind()
		snap.Playing = p.src.Playing()
		snap.Elapsed = p.src.CurrentTime()
		snap.Duration = p.src.Duration()
	}

	if snap.Playing {
		snap.Status = "playing"
	}
	snap.ElapsedClock = subtitle.FormatClock(snap.Elapsed)
	snap.DurationClock = subtitle.FormatClock(snap.Duration)

	if i, ok := subtitle.Active(p.cues, snap.Elapsed); ok {
		snap.ActiveCue = i
	}

	return snap
}

// IsActive reports whether id is the active item and currently playing; this is
// what a catalog card highlights.
func (p *Player) IsActive(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.item != nil && p.item.ID == id && p.src.Playing()
}
