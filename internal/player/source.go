package player

import (
	"errors"
	"slices"
	"sync"

	"vaultview/internal/catalog"
)

var ErrSourceFailed = errors.New("source failed to load")

// Source is a playable media element regardless of whether it is backed by
// an audio or a video element. The browser owns the real element; Report*
// feed its events back in.
type Source interface {
	Kind() catalog.MediaType
	URL() string
	MIMEType() string

	Load()
	Play() error
	Pause()
	Playing() bool
	CurrentTime() float64
	Duration() float64

	OnError(func(error))
	OnMetadata(func(float64))

	ReportTime(t float64)
	ReportMetadata(duration float64)
	ReportError(err error)
}

// NewSource builds the element for item playing url. Only video items get a
// video element; everything else goes through audio.
func NewSource(item catalog.MediaItem, url string) Source {
	if item.Type == catalog.TypeVideo {
		return &videoSource{element: newElement(catalog.TypeVideo, url, MIMEType(url, true))}
	}
	return &audioSource{element: newElement(catalog.TypeAudio, url, MIMEType(url, false))}
}

type videoSource struct {
	*element
}

type audioSource struct {
	*element
}

type element struct {
	kind catalog.MediaType
	url  string
	mime string

	mu       sync.Mutex
	loads    int
	playing  bool
	time     float64
	duration float64
	err      error

	errorHandlers    []func(error)
	metadataHandlers []func(float64)
}

func newElement(kind catalog.MediaType, url, mime string) *element {
	return &element{kind: kind, url: url, mime: mime}
}

func (e *element) Kind() catalog.MediaType { return e.kind }
func (e *element) URL() string             { return e.url }
func (e *element) MIMEType() string        { return e.mime }

// Load rewinds the element and forgets any earlier failure.
func (e *element) Load() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads++
	e.playing = false
	e.time = 0
	e.duration = 0
	e.err = nil
}

func (e *element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return errors.Join(ErrSourceFailed, e.err)
	}
	e.playing = true
	return nil
}

func (e *element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
}

func (e *element) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

func (e *element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *element) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorHandlers = append(e.errorHandlers, fn)
}

func (e *element) OnMetadata(fn func(float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metadataHandlers = append(e.metadataHandlers, fn)
}

func (e *element) ReportTime(t float64) {
	e.mu.Lock()
	e.time = t
	e.mu.Unlock()
}

func (e *element) ReportMetadata(duration float64) {
	e.mu.Lock()
	e.duration = duration
	handlers := slices.Clone(e.metadataHandlers)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(duration)
	}
}

func (e *element) ReportError(err error) {
	if err == nil {
		err = ErrSourceFailed
	}

	e.mu.Lock()
	e.err = err
	e.playing = false
	handlers := slices.Clone(e.errorHandlers)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(err)
	}
}
