package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/outputs/{kind}", listOutputsHandler(cfg))
		r.Patch("/outputs/{kind}/{row}", renameOutputHandler(cfg))
		r.Post("/outputs/video/view", switchViewHandler(cfg))
		r.Post("/outputs/video/current", currentOutputHandler(cfg))
		r.Get("/outputs/video/{row}/heuristics", heuristicsHandler(cfg))
		r.Post("/session/reload", reloadHandler(cfg))
		r.Post("/session/save", saveHandler(cfg))
		r.Get("/sessions", listSessionsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusToResponse(cfg.Session.Status())

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(r.Context())
			if err == nil && caps != nil {
				resp.Plugins = CapabilitiesToResponse(caps)
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listOutputsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		rows, err := cfg.Session.Rows(kind)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		resp := OutputsResponse{Kind: kind, Outputs: make([]OutputResponse, len(rows))}
		if kind == session.KindVideo {
			resp.View = cfg.Session.Status().View.String()
		}
		for i, row := range rows {
			resp.Outputs[i] = RowToResponse(row)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func renameOutputHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, ok := rowParam(w, r)
		if !ok {
			return
		}

		var req RenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == nil {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		changed, err := cfg.Session.Rename(chi.URLParam(r, "kind"), row, *req.Name)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if !changed {
			WriteError(w, http.StatusBadRequest, "output not renamed", "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func switchViewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ViewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var view outputs.View
		switch req.View {
		case outputs.ViewPrimary.String():
			view = outputs.ViewPrimary
		case outputs.ViewAlternate.String():
			view = outputs.ViewAlternate
		default:
			WriteError(w, http.StatusBadRequest, "view must be primary or alternate", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.SwitchView(view, req.Force); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ViewResponse{View: cfg.Session.Status().View.String()})
	}
}

func currentOutputHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CurrentOutputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		frame := -1
		if req.Frame != nil {
			frame = *req.Frame
		}

		if err := cfg.Session.SetCurrentOutput(req.Row, frame); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func heuristicsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, ok := rowParam(w, r)
		if !ok {
			return
		}
		withProps := r.URL.Query().Get("props") == "true"

		h, err := cfg.Session.Heuristics(row, withProps)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, HeuristicsToResponse(h))
	}
}

func reloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.Reload(r.Context())
		if cfg.Doctor != nil {
			cfg.Doctor.Invalidate()
		}
		if err != nil {
			if errors.Is(err, session.ErrNotLoaded) {
				writeSessionError(w, err)
				return
			}
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "SCRIPT_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func saveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.Save(r.Context()); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := cfg.Repository.ListSessions(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list sessions", "INTERNAL_ERROR")
			return
		}

		resp := SessionsResponse{Sessions: make([]SessionResponse, len(sessions))}
		for i, s := range sessions {
			resp.Sessions[i] = SessionToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func rowParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "row must be an integer", "BAD_REQUEST")
		return 0, false
	}
	return row, true
}

// writeSessionError maps session and output list errors to responses.
func writeSessionError(w http.ResponseWriter, err error) {
	var capErr *outputs.MissingCapabilityError
	switch {
	case errors.As(err, &capErr):
		WriteError(w, http.StatusFailedDependency, capErr.Error(), "MISSING_PLUGIN")
	case errors.Is(err, session.ErrUnknownKind), errors.Is(err, outputs.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, session.ErrNotLoaded):
		WriteError(w, http.StatusConflict, err.Error(), "NOT_LOADED")
	case errors.Is(err, outputs.ErrReleased):
		WriteError(w, http.StatusConflict, err.Error(), "RELEASED")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
