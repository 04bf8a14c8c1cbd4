package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"vaultview/internal/cache"
)

var ErrTooLarge = errors.New("subtitle body exceeds limit")

// Loader yields the cues behind a subtitle URL. Failures produce an empty list.
type Loader interface {
	Load(ctx context.Context, url string) []Cue
}

type FetcherConfig struct {
	Timeout       time.Duration
	MaxBytes      int64
	CacheCapacity int
	CacheMaxSize  int64
}

type Observer interface {
	SubtitleFetched(ok bool, cached bool)
}

// Fetcher downloads subtitle files over plain HTTP GET and caches their bodies.
type Fetcher struct {
	client   *http.Client
	cfg      FetcherConfig
	bodies   *cache.LRU[[]byte]
	group    singleflight.Group
	observer Observer
	logger   zerolog.Logger
}

func NewFetcher(client *http.Client, cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 64
	}
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = 16 << 20
	}

	return &Fetcher{
		client: client,
		cfg:    cfg,
		bodies: cache.NewBytes(cfg.CacheCapacity, cfg.CacheMaxSize),
		logger: logger,
	}
}

func (f *Fetcher) SetObserver(o Observer) {
	f.observer = o
}

// Load fetches and parses url. Network errors, non-2xx statuses and oversized
// bodies are logged at debug level and yield no cues.
func (f *Fetcher) Load(ctx context.Context, url string) []Cue {
	if url == "" {
		return []Cue{}
	}

	body, cached, err := f.Fetch(ctx, url)
	if f.observer != nil {
		f.observer.SubtitleFetched(err == nil, cached)
	}
	if err != nil {
		f.logger.Debug().Err(err).Str("url", url).Msg("subtitle fetch failed")
		return []Cue{}
	}

	cues := Parse(string(body))
	f.logger.Debug().Str("url", url).Int("cues", len(cues)).Bool("cached", cached).Msg("subtitles loaded")
	return cues
}

// Fetch returns the raw body for url, from cache when possible. Concurrent
// fetches of the same url share one request.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	if data, ok := f.bodies.Get(url); ok {
		return data, true, nil
	}

	v, err, _ := f.group.Do(url, func() (interface{}, error) {
		data, err := f.get(ctx, url)
		if err != nil {
			return nil, err
		}
		f.bodies.Set(url, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.([]byte), false, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get subtitle: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	return data, nil
}

// CacheStats reports the number of cached bodies and their total size.
func (f *Fetcher) CacheStats() (count int, size int64) {
	return f.bodies.Len(), f.bodies.Weight()
}

// CacheHits reports body cache lookups since start.
func (f *Fetcher) CacheHits() (hits, misses uint64) {
	return f.bodies.Stats()
}
