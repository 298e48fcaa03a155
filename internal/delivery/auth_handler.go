package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
)

type AuthHandler struct {
	auth ports.AuthService
	log  *logger.ZapLogger
}

func NewAuthHandler(auth ports.AuthService, log *logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		http.Error(w, "password required", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "operator login rejected",
			Fields:  map[string]any{"remote": r.RemoteAddr},
		})
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
