package streaming

import (
	"errors"
	"net/http"

	"vaultview/internal/catalog"
	"vaultview/internal/player"
)

var ErrMirrorOutOfRange = errors.New("mirror index out of range")

// HeaderContentTypeHint carries the advisory container type of a redirected
// source. The remote host decides the real Content-Type.
const HeaderContentTypeHint = "X-Content-Type-Hint"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// SourceURL returns the nth playable url of item: 0 is the primary, 1.. the
// mirrors in order.
func SourceURL(item catalog.MediaItem, n int) (string, error) {
	sources := item.Sources()
	if n < 0 || n >= len(sources) {
		return "", ErrMirrorOutOfRange
	}
	return sources[n], nil
}

// Redirect sends the client to the remote file. Media bytes never pass through
// this service.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request, item catalog.MediaItem, n int) error {
	url, err := SourceURL(item, n)
	if err != nil {
		return err
	}

	w.Header().Set(HeaderContentTypeHint, player.MIMEType(url, item.Type == catalog.TypeVideo))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url, http.StatusFound)
	return nil
}
