package subtitle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const sample = "1\n00:00:01,000 --> 00:00:03,000\nHello\n\n2\n00:00:03,000 --> 00:00:05,000\nWorld\n"

type countingObserver struct {
	ok, failed, cached atomic.Int32
}

func (o *countingObserver) SubtitleFetched(ok bool, cached bool) {
	if ok {
		o.ok.Add(1)
	} else {
		o.failed.Add(1)
	}
	if cached {
		o.cached.Add(1)
	}
}

func TestFetcherLoadCachesBodies(t *testing.T) {
	require := require.New(t)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), FetcherConfig{}, zerolog.Nop())
	obs := &countingObserver{}
	f.SetObserver(obs)

	cues := f.Load(context.Background(), srv.URL+"/a.srt")
	require.Len(cues, 2)

	cues = f.Load(context.Background(), srv.URL+"/a.srt")
	require.Len(cues, 2)

	require.Equal(int32(1), requests.Load())
	require.Equal(int32(2), obs.ok.Load())
	require.Equal(int32(1), obs.cached.Load())

	count, size := f.CacheStats()
	require.Equal(1, count)
	require.Equal(int64(len(sample)), size)

	hits, misses := f.CacheHits()
	require.Equal(uint64(1), hits)
	require.Equal(uint64(1), misses)
}

func TestFetcherFailuresYieldNoCues(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.srt":
			http.NotFound(w, r)
		case "/large.srt":
			w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow.srt":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(sample))
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), FetcherConfig{MaxBytes: 32, Timeout: 50 * time.Millisecond}, zerolog.Nop())
	obs := &countingObserver{}
	f.SetObserver(obs)

	for _, path := range []string{"/missing.srt", "/large.srt", "/slow.srt"} {
		cues := f.Load(context.Background(), srv.URL+path)
		require.NotNil(cues, path)
		require.Empty(cues, path)
	}

	_, _, err := f.Fetch(context.Background(), srv.URL+"/large.srt")
	require.ErrorIs(err, ErrTooLarge)

	require.Equal(int32(3), obs.failed.Load())
	count, _ := f.CacheStats()
	require.Zero(count)
}

func TestFetcherEmptyURL(t *testing.T) {
	f := NewFetcher(nil, FetcherConfig{}, zerolog.Nop())
	require.Empty(t, f.Load(context.Background(), ""))
}
