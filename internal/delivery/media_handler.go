package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/cableposter/internal/scheduler"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
)

type MediaHandler struct {
	media  ports.MediaRepository
	cycles ports.CycleTrigger
	log    *logger.ZapLogger
}

func NewMediaHandler(media ports.MediaRepository, cycles ports.CycleTrigger, log *logger.ZapLogger) *MediaHandler {
	return &MediaHandler{
		media:  media,
		cycles: cycles,
		log:    log,
	}
}

// GET /api/media/stats
func (h *MediaHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.media.Stats(r.Context())
	if err != nil {
		http.Error(w, "failed get stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// POST /api/cycles/{name}
func (h *MediaHandler) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "missing cycle name", http.StatusBadRequest)
		return
	}

	started, err := h.cycles.Trigger(name)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			http.Error(w, "unknown cycle", http.StatusNotFound)
			return
		}
		http.Error(w, "trigger failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "manual cycle trigger",
		Fields:  map[string]any{"cycle": name, "started": started},
	})

	if !started {
		writeJSON(w, http.StatusConflict, map[string]any{"started": false, "reason": "in_flight"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
