package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/internal/logging"
	"github.com/MrEthical07/phoneauth/middleware"
)

const healthTimeout = 2 * time.Second

type handlers struct {
	engine *phoneauth.Engine
	db     Pinger
	log    logging.Logger
}

func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var body signUpBody
	if err := decode(w, r, &body); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.engine.SignUp(r.Context(), w, body.request()); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var body signInBody
	if err := decode(w, r, &body); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.engine.SignIn(r.Context(), w, body.Phone, body.Password); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteTokens(r.Context(), w, h.engine.RefreshCredentials(r).Cookie); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.UpdateTokens(r.Context(), w, h.engine.RefreshCredentials(r)); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := phoneauth.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, phoneauth.ErrAccessNotFound)
		return
	}
	u, err := h.engine.Profile(r.Context(), claims.Subject)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := phoneauth.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, phoneauth.ErrAccessNotFound)
		return
	}
	var body profileBody
	if err := decode(w, r, &body); err != nil {
		middleware.WriteError(w, err)
		return
	}
	u, err := h.engine.UpdateProfile(r.Context(), claims.Subject, body.update())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.engine.Ping(ctx); err != nil {
		h.log.Warn(ctx, "health: redis unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, detailBody{Detail: "redis unavailable"})
		return
	}
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn(ctx, "health: postgres unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, detailBody{Detail: "postgres unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
