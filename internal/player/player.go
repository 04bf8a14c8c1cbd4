package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"vaultview/internal/catalog"
	"vaultview/internal/subtitle"
)

var (
	ErrNoActiveItem  = errors.New("no active item")
	ErrUnknownSource = errors.New("url is not a source of this item")
)

const (
	DefaultHideDelay = 2 * time.Second

	msgLoadFailed   = "file unavailable or link corrupt, removing from list"
	msgPlayRejected = "file unavailable"
)

type State int

const (
	Idle State = iota
	Paused
	Playing
	Failed
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, known := range []State{Idle, Paused, Playing, Failed} {
		if known.String() == string(text) {
			*s = known
			return nil
		}
	}
	return fmt.Errorf("unknown player state %q", text)
}

// Observer receives playback outcomes, typically for metrics.
type Observer interface {
	PlaybackStarted(kind catalog.MediaType)
	PlaybackFailed(reason string)
	ItemHidden(id string)
}

// Timer is the part of *time.Timer the player needs.
type Timer interface {
	Stop() bool
}

type Config struct {
	HideDelay time.Duration
	Subtitles subtitle.Loader
	Observer  Observer
	// AfterFunc schedules delayed work and must not run fn synchronously.
	// Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) Timer
}

type cueKey struct {
	itemID string
	url    string
}

type pendingHide struct {
	gen   uint64
	id    string
	timer Timer
}

// Player is the persistent player of one session. It owns at most one active
// item and all of its playback state.
type Player struct {
	broken    *catalog.BrokenSet
	subtitles subtitle.Loader
	observer  Observer
	hideDelay time.Duration
	afterFunc func(time.Duration, func()) Timer
	logger    zerolog.Logger

	mu       sync.Mutex
	item     *catalog.MediaItem
	src      Source
	state    State
	expanded bool
	errMsg   string
	gen      uint64

	cues   []subtitle.Cue
	cueKey cueKey
	cueSeq uint64

	hides map[uint64]*pendingHide
}

func New(broken *catalog.BrokenSet, cfg Config, logger zerolog.Logger) *Player {
	if cfg.HideDelay < 0 {
		cfg.HideDelay = 0
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		}
	}
	if broken == nil {
		broken = catalog.NewBrokenSet()
	}

	return &Player{
		broken:    broken,
		subtitles: cfg.Subtitles,
		observer:  cfg.Observer,
		hideDelay: cfg.HideDelay,
		afterFunc: cfg.AfterFunc,
		logger:    logger,
		hides:     make(map[uint64]*pendingHide),
	}
}

func (p *Player) Broken() *catalog.BrokenSet {
	return p.broken
}

// Select binds item to the player. A new item is loaded paused from url (the
// primary source when url is empty). Selecting the active item again toggles
// play/pause unless url names a different mirror, which is then loaded paused.
func (p *Player) Select(item catalog.MediaItem, url string) error {
	requested := url
	if url == "" {
		url = item.URL
	}
	if !item.HasSource(url) {
		return fmt.Errorf("%w: %s", ErrUnknownSource, url)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.item != nil && p.item.ID == item.ID {
		if requested == "" || requested == p.src.URL() {
			return p.toggleLocked()
		}
		p.cancelHidesLocked(item.ID)
		p.loadLocked(item, url)
		p.logger.Debug().Str("id", item.ID).Str("url", url).Msg("switched mirror")
		return nil
	}

	p.loadLocked(item, url)
	p.syncSubtitlesLocked()
	p.logger.Debug().Str("id", item.ID).Str("url", url).Msg("selected item")
	return nil
}

// loadLocked replaces the source and resets the time display. Playback never
// starts on its own.
func (p *Player) loadLocked(item catalog.MediaItem, url string) {
	if p.src != nil {
		p.src.Pause()
	}

	p.gen++
	gen := p.gen

	src := NewSource(item, url)
	src.OnError(func(err error) { p.onSourceError(gen, err) })
	src.OnMetadata(func(float64) { p.onMetadata(gen) })
	src.Load()

	selected := item
	p.item = &selected
	p.src = src
	p.state = Paused
	p.errMsg = ""
}

func (p *Player) syncSubtitlesLocked() {
	key := cueKey{itemID: p.item.ID, url: p.item.SubtitleURL}
	if key == p.cueKey {
		return
	}

	p.cueKey = key
	p.cueSeq++
	p.cues = nil

	if key.url == "" || p.subtitles == nil {
		return
	}

	seq := p.cueSeq
	go func() {
		cues := p.subtitles.Load(context.Background(), key.url)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.cueSeq != seq || p.cueKey != key {
			return
		}
		p.cues = cues
	}()
}

// Start asks the element to play. A rejected play marks the item broken at
// once and leaves it selected with an inline message.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked()
}

func (p *Player) startLocked() error {
	switch p.state {
	case Idle:
		return ErrNoActiveItem
	case Failed:
		return ErrSourceFailed
	case Playing:
		return nil
	}

	if err := p.src.Play(); err != nil {
		p.rejectLocked(err)
		return err
	}

	p.state = Playing
	if p.observer != nil {
		p.observer.PlaybackStarted(p.src.Kind())
	}
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Idle {
		return ErrNoActiveItem
	}
	p.src.Pause()
	if p.state == Playing {
		p.state = Paused
	}
	return nil
}

// Toggle flips between playing and paused.
func (p *Player) Toggle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggleLocked()
}

func (p *Player) toggleLocked() error {
	switch p.state {
	case Playing:
		p.src.Pause()
		p.state = Paused
		return nil
	case Paused:
		return p.startLocked()
	case Failed:
		return ErrSourceFailed
	default:
		return ErrNoActiveItem
	}
}

// Close stops playback and returns to idle. A hide already scheduled for a
// failed item still runs.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

func (p *Player) clearLocked() {
	if p.src != nil {
		p.src.Pause()
	}
	p.gen++
	p.item = nil
	p.src = nil
	p.state = Idle
	p.errMsg = ""
	p.cues = nil
	p.cueKey = cueKey{}
	p.cueSeq++
}

func (p *Player) SetExpanded(expanded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = expanded
}

func (p *Player) ToggleExpanded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = !p.expanded
	return p.expanded
}

// Source returns the active element, or nil when idle.
func (p *Player) Source() Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// current returns the active source when url is empty or matches it. Events
// for any other url belong to a superseded element.
func (p *Player) current(url string) Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil || (url != "" && url != p.src.URL()) {
		return nil
	}
	return p.src
}

// HandleTimeUpdate records a timeupdate event of the element playing url.
func (p *Player) HandleTimeUpdate(url string, t float64) {
	if src := p.current(url); src != nil {
		src.ReportTime(t)
	}
}

func (p *Player) HandleMetadata(url string, duration float64) {
	if src := p.current(url); src != nil {
		src.ReportMetadata(duration)
	}
}

func (p *Player) HandleError(url string, err error) {
	if src := p.current(url); src != nil {
		src.ReportError(err)
	}
}

// HandlePlay mirrors a native play event.
func (p *Player) HandlePlay(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil || (url != "" && url != p.src.URL()) || p.state != Paused {
		return
	}
	if err := p.src.Play(); err != nil {
		return
	}
	p.state = Playing
}

func (p *Player) HandlePause(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil || (url != "" && url != p.src.URL()) || p.state != Playing {
		return
	}
	p.src.Pause()
	p.state = Paused
}

// HandlePlayRejected records a rejected play() call reported by the element.
func (p *Player) HandlePlayRejected(url string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil || (url != "" && url != p.src.URL()) || p.state == Failed {
		return
	}
	p.src.Pause()
	p.rejectLocked(err)
}

func (p *Player) rejectLocked(err error) {
	id := p.item.ID
	p.state = Failed
	p.errMsg = msgPlayRejected
	if p.broken.Add(id) && p.observer != nil {
		p.observer.ItemHidden(id)
	}
	if p.observer != nil {
		p.observer.PlaybackFailed("play_rejected")
	}
	p.logger.Warn().Err(err).Str("id", id).Msg("playback rejected")
}

// onMetadata clears a stale alert once the element has loaded.
func (p *Player) onMetadata(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	if p.state != Failed {
		p.errMsg = ""
	}
}

// onSourceError shows the alert, then after the hide delay marks the item
// broken and deselects it if it is still the active selection.
func (p *Player) onSourceError(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.item == nil {
		return
	}
	if _, scheduled := p.hides[gen]; scheduled {
		return
	}

	id := p.item.ID
	p.state = Failed
	p.errMsg = msgLoadFailed
	if p.observer != nil {
		p.observer.PlaybackFailed("load_error")
	}
	p.logger.Warn().Err(err).Str("id", id).Dur("hide_in", p.hideDelay).Msg("media error")

	hide := &pendingHide{gen: gen, id: id}
	p.hides[gen] = hide
	hide.timer = p.afterFunc(p.hideDelay, func() { p.expire(hide) })
}

func (p *Player) expire(hide *pendingHide) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hides[hide.gen] != hide {
		return
	}
	delete(p.hides, hide.gen)

	if p.broken.Add(hide.id) && p.observer != nil {
		p.observer.ItemHidden(hide.id)
	}
	if hide.gen != p.gen {
		return
	}
	p.clearLocked()
	p.logger.Info().Str("id", hide.id).Msg("hid broken item")
}

// cancelHidesLocked drops scheduled hides of id, used when the user moves the
// failed item to another mirror in time.
func (p *Player) cancelHidesLocked(id string) {
	for gen, hide := range p.hides {
		if hide.id != id {
			continue
		}
		if hide.timer != nil {
			hide.timer.Stop()
		}
		delete(p.hides, gen)
	}
}

// Stop cancels pending hides; used when the owning session goes away.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for gen, hide := range p.hides {
		if hide.timer != nil {
			hide.timer.Stop()
		}
		delete(p.hides, gen)
	}
	p.clearLocked()
}
