package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"vaultview/internal/catalog"
	"vaultview/internal/navigation"
	"vaultview/internal/player"
	"vaultview/internal/session"
	"vaultview/internal/streaming"
	"vaultview/internal/subtitle"
)

const Version = "0.1.0"

type Handler struct {
	catalog   *catalog.Catalog
	rail      *navigation.Rail
	sessions  *session.Store
	subtitles subtitle.Loader
	streamer  *streaming.Handler
	logger    zerolog.Logger
}

func NewHandler(cat *catalog.Catalog, rail *navigation.Rail, sessions *session.Store, subtitles subtitle.Loader, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog:   cat,
		rail:      rail,
		sessions:  sessions,
		subtitles: subtitles,
		streamer:  streaming.NewHandler(),
		logger:    logger,
	}
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/navigation", h.GetNavigation)

	r.Get("/catalog", h.GetCatalog)
	r.Get("/catalog/{id}", h.GetItem)
	r.Get("/catalog/{id}/subtitles", h.GetSubtitles)

	r.Get("/media/{id}/source", h.RedirectSource)

	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Delete("/", h.DeleteSession)
		r.Get("/broken", h.GetBroken)

		r.Get("/player", h.GetPlayer)
		r.Post("/player/select", h.Select)
		r.Post("/player/start", h.Start)
		r.Post("/player/pause", h.Pause)
		r.Post("/player/toggle", h.Toggle)
		r.Post("/player/close", h.Close)
		r.Post("/player/expand", h.Expand)
		r.Post("/player/events", h.Event)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Items:   h.catalog.Len(),
	})
}

func (h *Handler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active")
	if active == "" {
		active = catalog.TagAll
	}

	writeJSON(w, http.StatusOK, NavigationResponse{
		Active: active,
		Tags:   h.rail.Tags(active),
	})
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sel, err := h.rail.Resolve(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var sess *session.Session
	if sid := q.Get("session"); sid != "" {
		var ok bool
		if sess, ok = h.sessions.Get(sid); !ok {
			writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
			return
		}
	}

	var broken *catalog.BrokenSet
	if sess != nil {
		broken = sess.Broken
	}

	query := q.Get("q")
	items := h.catalog.Filter(sel, query, broken)

	resp := CatalogResponse{
		Filter: sel.String(),
		Query:  query,
		Count:  len(items),
		Empty:  len(items) == 0,
		Items: lo.Map(items, func(item catalog.MediaItem, _ int) ItemResponse {
			dto := itemDTO(item)
			if sess != nil {
				dto.Active = sess.Player.IsActive(item.ID)
			}
			return dto
		}),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.item(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, itemDTO(item))
}

func (h *Handler) GetSubtitles(w http.ResponseWriter, r *http.Request) {
	item, ok := h.item(w, r)
	if !ok {
		return
	}

	cues := []subtitle.Cue{}
	if item.HasSubtitles() && h.subtitles != nil {
		if loaded := h.subtitles.Load(r.Context(), item.SubtitleURL); loaded != nil {
			cues = loaded
		}
	}

	writeJSON(w, http.StatusOK, SubtitlesResponse{
		ID:    item.ID,
		URL:   item.SubtitleURL,
		Cues:  cues,
		Count: len(cues),
	})
}

func (h *Handler) RedirectSource(w http.ResponseWriter, r *http.Request) {
	item, ok := h.item(w, r)
	if !ok {
		return
	}

	n := 0
	if raw := r.URL.Query().Get("mirror"); raw != "" {
		var err error
		if n, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid mirror index")
			return
		}
	}

	if err := h.streamer.Redirect(w, r, item, n); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
}

// Sessions

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	writeJSON(w, http.StatusCreated, SessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "sid")) {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBroken(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	ids := sess.Broken.IDs()
	writeJSON(w, http.StatusOK, BrokenResponse{IDs: ids, Count: len(ids)})
}

// Player

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Player.Snapshot())
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	item, found := h.catalog.Get(req.ID)
	if !found {
		writeError(w, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
		return
	}

	// Hidden items can only be reached through the player that still shows them.
	if sess.Broken.Has(item.ID) {
		if snap := sess.Player.Snapshot(); snap.Item == nil || snap.Item.ID != item.ID {
			writeError(w, http.StatusConflict, "CONFLICT", "Media is hidden")
			return
		}
	}

	if err := sess.Player.Select(item, req.URL); err != nil {
		h.playerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess.Player.Snapshot())
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, func(p *player.Player) error { return p.Start() })
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, func(p *player.Player) error { return p.Pause() })
}

// Toggle is the play/pause button of the player bar.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, func(p *player.Player) error { return p.Toggle() })
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, func(p *player.Player) error {
		p.Close()
		return nil
	})
}

func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
			return
		}
	}

	h.playerAction(w, r, func(p *player.Player) error {
		if req.Expanded == nil {
			p.ToggleExpanded()
		} else {
			p.SetExpanded(*req.Expanded)
		}
		return nil
	})
}

// Event applies a media element event reported by the browser.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	var apply func(p *player.Player)
	switch strings.ToLower(req.Type) {
	case "play", "playing":
		apply = func(p *player.Player) { p.HandlePlay(req.URL) }
	case "pause":
		apply = func(p *player.Player) { p.HandlePause(req.URL) }
	case "timeupdate":
		apply = func(p *player.Player) { p.HandleTimeUpdate(req.URL, req.Time) }
	case "loadedmetadata":
		apply = func(p *player.Player) { p.HandleMetadata(req.URL, req.Duration) }
	case "error":
		apply = func(p *player.Player) { p.HandleError(req.URL, eventError(req)) }
	case "play_rejected":
		apply = func(p *player.Player) { p.HandlePlayRejected(req.URL, eventError(req)) }
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Unknown event type")
		return
	}

	h.playerAction(w, r, func(p *player.Player) error {
		apply(p)
		return nil
	})
}

func eventError(req EventRequest) error {
	if req.Message == "" {
		return errors.New(req.Type)
	}
	return errors.New(req.Message)
}

func (h *Handler) playerAction(w http.ResponseWriter, r *http.Request, fn func(*player.Player) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := fn(sess.Player); err != nil {
		h.playerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess.Player.Snapshot())
}

func (h *Handler) playerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, player.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, player.ErrNoActiveItem), errors.Is(err, player.ErrSourceFailed):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		h.logger.Error().Err(err).Msg("player action failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Player action failed")
	}
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request) (catalog.MediaItem, bool) {
	item, ok := h.catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
	}
	return item, ok
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := h.sessions.Get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	}
	return sess, ok
}

func itemDTO(item catalog.MediaItem) ItemResponse {
	categories := item.Categories
	if categories == nil {
		categories = []catalog.Category{}
	}

	video := item.Type == catalog.TypeVideo
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Type:         item.Type,
		Category:     item.PrimaryCategory(),
		Categories:   categories,
		Format:       item.Format,
		Size:         item.Size,
		Artist:       item.Artist,
		Album:        item.Album,
		SubtitleURL:  item.SubtitleURL,
		HasSubtitles: item.HasSubtitles(),
		Sources: lo.Map(item.Sources(), func(url string, i int) SourceDTO {
			return SourceDTO{
				Label:     "LINK " + strconv.Itoa(i+1),
				URL:       url,
				MIMEType:  player.MIMEType(url, video),
				StreamURL: "/api/v1/media/" + item.ID + "/source?mirror=" + strconv.Itoa(i),
			}
		}),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
