package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"shopbuzz/internal/delivery"
	"shopbuzz/internal/eventbus"
	"shopbuzz/internal/settings"
	logx "shopbuzz/pkg/logx"
)

func (s *Service) routes(token string, stop <-chan struct{}) http.Handler {
	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc { return s.withAuth(token, h) }

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/settings", wrap(s.handleGetSettings))
	mux.HandleFunc("PATCH /api/settings", wrap(s.handlePatchSettings))
	mux.HandleFunc("POST /api/settings/reset", wrap(s.handleResetSettings))

	mux.HandleFunc("GET /api/history", wrap(s.handleGetHistory))
	mux.HandleFunc("POST /api/history/{id}/read", wrap(s.handleMarkRead))
	mux.HandleFunc("DELETE /api/history", wrap(s.handleClearHistory))

	mux.HandleFunc("POST /api/notify/test", wrap(s.handleTestNotification))
	mux.HandleFunc("POST /api/refresh", wrap(s.handleRefresh))

	mux.HandleFunc("GET /api/events", wrap(func(w http.ResponseWriter, r *http.Request) {
		s.handleEvents(w, r, stop)
	}))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func (s *Service) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Service) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read failed")
		return
	}
	var patch settings.Patch
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch: "+err.Error())
		return
	}
	merged := s.settings.Update(r.Context(), patch)
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeSettingsChanged, Data: merged})
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Service) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	def := s.settings.Reset(r.Context())
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeSettingsChanged, Data: def})
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Service) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	var lastMs int64
	if last := s.history.LastNotificationTime(); !last.IsZero() {
		lastMs = last.UnixMilli()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history":              s.history.Entries(),
		"lastNotificationTime": lastMs, // 0 = never
		"unread":               s.history.UnreadCount(),
	})
}

func (s *Service) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	// Missing ids are a no-op by contract, so this always succeeds.
	s.history.MarkRead(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.history.Clear(r.Context())
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeHistoryCleared})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deliver.TriggerTest(r.Context())
	if err != nil {
		s.writeDeliveryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deliver.Refresh(r.Context())
	if err != nil {
		s.writeDeliveryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Service) writeDeliveryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, delivery.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, "throttled")
	case errors.Is(err, delivery.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited")
	case errors.Is(err, delivery.ErrPermissionDenied):
		writeError(w, http.StatusServiceUnavailable, "permission_denied")
	case errors.Is(err, delivery.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, "delivery_failed")
	default:
		s.log.Error("trigger failed", logx.Err(err))
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

// handleEvents streams bus events as server-sent events until the client
// disconnects or the server stops.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request, stop <-chan struct{}) {
	if s.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "events unavailable")
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, unsub := s.bus.Subscribe(16)
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stop:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]any{"type": ev.Type, "time": ev.Time.UnixMilli(), "data": ev.Data})
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("event: " + ev.Type + "\ndata: " + string(data) + "\n\n")); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
