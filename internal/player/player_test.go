package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"vaultview/internal/catalog"
	"vaultview/internal/subtitle"
)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type scheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *scheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer that was not stopped.
func (s *scheduler) fire() int {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()

	fired := 0
	for _, t := range timers {
		if !t.stopped {
			t.fn()
			fired++
		}
	}
	return fired
}

type stubLoader struct {
	mu    sync.Mutex
	calls []string
	cues  map[string][]subtitle.Cue
	gate  chan struct{}
}

func (l *stubLoader) Load(ctx context.Context, url string) []subtitle.Cue {
	if l.gate != nil {
		<-l.gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, url)
	return l.cues[url]
}

func (l *stubLoader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type recordingObserver struct {
	started []catalog.MediaType
	failed  []string
	hidden  []string
}

func (o *recordingObserver) PlaybackStarted(kind catalog.MediaType) { o.started = append(o.started, kind) }
func (o *recordingObserver) PlaybackFailed(reason string)           { o.failed = append(o.failed, reason) }
func (o *recordingObserver) ItemHidden(id string)                   { o.hidden = append(o.hidden, id) }

var (
	song = catalog.MediaItem{
		ID:          "song",
		Name:        "Test Song",
		URL:         "https://cdn.example/song.opus",
		Mirrors:     []string{"https://mirror.example/song.mp3"},
		Type:        catalog.TypeAudio,
		Categories:  []catalog.Category{catalog.CategoryLeaked},
		Format:      "opus",
		SubtitleURL: "https://cdn.example/song.srt",
	}
	clip = catalog.MediaItem{
		ID:         "clip",
		Name:       "Clip",
		URL:        "https://cdn.example/clip.mov",
		Type:       catalog.TypeVideo,
		Categories: []catalog.Category{catalog.CategoryOfficial},
		Format:     "mov",
	}
)

func newTestPlayer(t *testing.T, loader subtitle.Loader) (*Player, *scheduler, *recordingObserver) {
	t.Helper()
	sched := &scheduler{}
	obs := &recordingObserver{}
	p := New(catalog.NewBrokenSet(), Config{
		HideDelay: DefaultHideDelay,
		Subtitles: loader,
		Observer:  obs,
		AfterFunc: sched.AfterFunc,
	}, zerolog.Nop())
	return p, sched, obs
}

func TestSelectNewItemResetsState(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(clip, ""))
	require.NoError(p.Start())
	p.HandleMetadata("", 200)
	p.HandleTimeUpdate("", 75)

	snap := p.Snapshot()
	require.Equal(Playing, snap.State)
	require.Equal("1:15", snap.ElapsedClock)
	require.Equal("3:20", snap.DurationClock)

	require.NoError(p.Select(song, ""))
	snap = p.Snapshot()
	require.Equal(Paused, snap.State)
	require.False(snap.Playing)
	require.Equal("0:00", snap.ElapsedClock)
	require.Equal("0:00", snap.DurationClock)
	require.Equal(song.URL, snap.URL)
	require.Equal("audio/ogg; codecs=opus", snap.MIMEType)
	require.Equal(catalog.TypeAudio, snap.Kind)
	require.Empty(snap.Error)
}

func TestSelectDoesNotAutoplay(t *testing.T) {
	require := require.New(t)
	p, _, obs := newTestPlayer(t, nil)

	require.NoError(p.Select(clip, ""))
	require.Equal(Paused, p.Snapshot().State)
	require.False(p.Source().Playing())
	require.Empty(obs.started)

	require.NoError(p.Start())
	require.Equal(Playing, p.Snapshot().State)
	require.True(p.Source().Playing())
	require.Equal([]catalog.MediaType{catalog.TypeVideo}, obs.started)
}

func TestReselectTogglesPlayback(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	require.Equal(Paused, p.Snapshot().State)

	require.NoError(p.Select(song, ""))
	require.Equal(Playing, p.Snapshot().State)
	require.True(p.IsActive(song.ID))

	require.NoError(p.Select(song, song.URL))
	require.Equal(Paused, p.Snapshot().State)
	require.False(p.IsActive(song.ID))
}

func TestSelectMirrorSwitchesSource(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	require.NoError(p.Start())
	p.HandleTimeUpdate("", 30)

	mirror := song.Mirrors[0]
	require.NoError(p.Select(song, mirror))

	snap := p.Snapshot()
	require.Equal(Paused, snap.State)
	require.Equal(mirror, snap.URL)
	require.Equal("audio/mpeg", snap.MIMEType)
	require.Zero(snap.Elapsed)

	err := p.Select(song, "https://elsewhere.example/x.mp3")
	require.ErrorIs(err, ErrUnknownSource)
	require.Equal(mirror, p.Snapshot().URL)
}

func TestStaleEventsAreIgnored(t *testing.T) {
	require := require.New(t)
	p, sched, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	old := song.URL
	require.NoError(p.Select(song, song.Mirrors[0]))

	p.HandleTimeUpdate(old, 12)
	p.HandleError(old, errors.New("decode"))
	p.HandlePlay(old)

	snap := p.Snapshot()
	require.Zero(snap.Elapsed)
	require.Equal(Paused, snap.State)
	require.Zero(sched.fire())
}

func TestMediaErrorHidesAfterDelay(t *testing.T) {
	require := require.New(t)
	p, sched, obs := newTestPlayer(t, nil)
	c := catalog.New([]catalog.MediaItem{song, clip})

	require.NoError(p.Select(clip, ""))
	require.NoError(p.Start())
	p.HandleError("", errors.New("MEDIA_ERR_SRC_NOT_SUPPORTED"))

	snap := p.Snapshot()
	require.Equal(Failed, snap.State)
	require.NotEmpty(snap.Error)
	require.NotNil(snap.Item, "selection stays visible until the delay passes")
	require.False(p.Broken().Has(clip.ID))

	// A second error event for the same element does not schedule again.
	p.HandleError("", errors.New("again"))
	require.Len(sched.timers, 1)
	require.Equal(DefaultHideDelay, sched.timers[0].delay)

	require.Equal(1, sched.fire())

	snap = p.Snapshot()
	require.Equal(Idle, snap.State)
	require.Nil(snap.Item)
	require.True(p.Broken().Has(clip.ID))
	require.Equal([]string{clip.ID}, obs.hidden)
	require.Equal([]string{"load_error"}, obs.failed)

	for _, q := range []string{"", "clip", "mov"} {
		for _, item := range c.Filter(catalog.All, q, p.Broken()) {
			require.NotEqual(clip.ID, item.ID)
		}
	}
}

func TestMediaErrorAfterSwitchingAwayStillMarksBroken(t *testing.T) {
	require := require.New(t)
	p, sched, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(clip, ""))
	p.HandleError("", errors.New("network"))
	require.NoError(p.Select(song, ""))

	sched.fire()

	snap := p.Snapshot()
	require.Equal(Paused, snap.State)
	require.Equal(song.ID, snap.Item.ID)
	require.True(p.Broken().Has(clip.ID))
	require.False(p.Broken().Has(song.ID))
}

func TestMirrorSwitchCancelsPendingHide(t *testing.T) {
	require := require.New(t)
	p, sched, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	p.HandleError("", errors.New("404"))
	require.NoError(p.Select(song, song.Mirrors[0]))

	require.Zero(sched.fire())
	require.False(p.Broken().Has(song.ID))
	require.Equal(Paused, p.Snapshot().State)
}

func TestPlayRejectionMarksBrokenImmediately(t *testing.T) {
	require := require.New(t)
	p, sched, obs := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	require.NoError(p.Start())
	p.HandlePlayRejected("", errors.New("NotAllowedError"))

	snap := p.Snapshot()
	require.Equal(Failed, snap.State)
	require.Equal(song.ID, snap.Item.ID)
	require.NotEmpty(snap.Error)
	require.True(p.Broken().Has(song.ID))
	require.Empty(sched.timers)
	require.Equal([]string{"play_rejected"}, obs.failed)

	require.ErrorIs(p.Start(), ErrSourceFailed)
	require.ErrorIs(p.Toggle(), ErrSourceFailed)
}

func TestCloseReturnsToIdle(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.ErrorIs(p.Start(), ErrNoActiveItem)
	require.ErrorIs(p.Pause(), ErrNoActiveItem)

	require.NoError(p.Select(clip, ""))
	require.NoError(p.Start())
	p.SetExpanded(true)
	p.Close()

	snap := p.Snapshot()
	require.Equal(Idle, snap.State)
	require.Nil(snap.Item)
	require.Empty(snap.URL)
	require.True(snap.Expanded)
	require.Nil(p.Source())
}

func TestExpandDoesNotTouchPlayback(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(clip, ""))
	require.NoError(p.Start())

	require.True(p.ToggleExpanded())
	require.Equal(Playing, p.Snapshot().State)
	require.False(p.ToggleExpanded())
	require.Equal(Playing, p.Snapshot().State)

	p.SetExpanded(true)
	require.NoError(p.Select(song, ""))
	require.True(p.Snapshot().Expanded, "selection leaves the expanded flag alone")
}

func TestNativePlayPauseEvents(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(song, ""))
	p.HandlePlay("")
	require.Equal(Playing, p.Snapshot().State)
	p.HandlePause("")
	require.Equal(Paused, p.Snapshot().State)
}

func TestSubtitlesLoadOncePerPair(t *testing.T) {
	require := require.New(t)

	loader := &stubLoader{cues: map[string][]subtitle.Cue{
		song.SubtitleURL: {
			{Start: 1, End: 3, Text: "Hello"},
			{Start: 3, End: 5, Text: "World"},
		},
	}}
	p, _, _ := newTestPlayer(t, loader)

	require.NoError(p.Select(song, ""))
	require.Eventually(func() bool {
		return len(p.Snapshot().Cues) == 2
	}, time.Second, 5*time.Millisecond)

	p.HandleTimeUpdate("", 3)
	require.Equal(0, p.Snapshot().ActiveCue)
	p.HandleTimeUpdate("", 4)
	require.Equal(1, p.Snapshot().ActiveCue)
	p.HandleTimeUpdate("", 9)
	require.Equal(-1, p.Snapshot().ActiveCue)

	// toggling and mirror switches keep the same pair
	require.NoError(p.Select(song, ""))
	require.NoError(p.Select(song, song.Mirrors[0]))
	require.Len(p.Snapshot().Cues, 2)
	require.Equal([]string{song.SubtitleURL}, loader.Calls())

	require.NoError(p.Select(clip, ""))
	require.Empty(p.Snapshot().Cues)
}

func TestLateSubtitlesAreDiscarded(t *testing.T) {
	require := require.New(t)

	loader := &stubLoader{
		gate: make(chan struct{}),
		cues: map[string][]subtitle.Cue{song.SubtitleURL: {{Start: 0, End: 1, Text: "late"}}},
	}
	p, _, _ := newTestPlayer(t, loader)

	require.NoError(p.Select(song, ""))
	require.NoError(p.Select(clip, ""))
	close(loader.gate)

	require.Eventually(func() bool {
		return len(loader.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	// give the goroutine a moment to take the lock after Load returned
	time.Sleep(20 * time.Millisecond)

	snap := p.Snapshot()
	require.Equal(clip.ID, snap.Item.ID)
	require.Empty(snap.Cues)
}

func TestSnapshotReadsActiveElement(t *testing.T) {
	require := require.New(t)
	p, _, _ := newTestPlayer(t, nil)

	require.NoError(p.Select(clip, ""))
	require.NoError(p.Toggle())
	p.HandleMetadata(clip.URL, 90)
	p.HandleTimeUpdate(clip.URL, 61)

	src := p.Source()
	snap := p.Snapshot()
	require.Equal(src.CurrentTime(), snap.Elapsed)
	require.Equal(src.Duration(), snap.Duration)
	require.Equal("1:01", snap.ElapsedClock)
	require.Equal("1:30", snap.DurationClock)
	require.True(snap.Playing)
	require.True(p.IsActive(clip.ID))

	require.NoError(p.Toggle())
	require.False(p.Snapshot().Playing)
	require.False(p.IsActive(clip.ID))

	// a fresh element starts from zero
	p.Close()
	require.NoError(p.Select(clip, ""))
	snap = p.Snapshot()
	require.Zero(snap.Elapsed)
	require.Zero(snap.Duration)
}
