package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"villagenird/internal/decision"
	"villagenird/internal/indicator"
	"villagenird/internal/progress"
	"villagenird/internal/realtime"
	"villagenird/internal/simulation"
)

type Handler struct {
	svc *Service
	ws  *realtime.Server
}

func NewHandler(svc *Service, ws *realtime.Server) *Handler {
	return &Handler{svc: svc, ws: ws}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, decision.ErrUnknownOption),
		errors.Is(err, simulation.ErrInvalidPhase):
		return http.StatusBadRequest
	case errors.Is(err, simulation.ErrNotSimulating),
		errors.Is(err, simulation.ErrFinished),
		errors.Is(err, simulation.ErrPhaseRegression):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeSvcErr(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err.Error())
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

type decisionsRequest struct {
	Decisions decision.Decisions `json:"decisions"`
}

type advanceResponse struct {
	Result  simulation.YearResult `json:"result"`
	Session progress.Record       `json:"session"`
}

// Catalogue serves GET /api/catalogue.
func (h *Handler) Catalogue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Catalogue())
}

// Stats serves GET /api/stats[?since=RFC3339].
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var since time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}
	stats, err := h.svc.Stats(since)
	if err != nil {
		writeSvcErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SessionsRoot serves /api/sessions.
func (h *Handler) SessionsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rec, err := h.svc.Create(r.Context())
		if err != nil {
			writeSvcErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	case http.MethodGet:
		recs, err := h.svc.List(r.Context())
		if err != nil {
			writeSvcErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": recs})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// SessionsSub serves /api/sessions/{id} and /api/sessions/{id}/{action}.
func (h *Handler) SessionsSub(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	if tail == "" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	parts := strings.Split(tail, "/")
	id := parts[0]
	ctx := r.Context()

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			rec, err := h.svc.Get(ctx, id)
			if err != nil {
				writeSvcErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		case http.MethodDelete:
			if err := h.svc.Delete(ctx, id); err != nil {
				writeSvcErr(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	if len(parts) != 2 {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	action := parts[1]
	if action == "ws" {
		h.serveWS(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "phase":
		var req phaseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		h.respond(w)(h.svc.SetPhase(ctx, id, simulation.Phase(strings.TrimSpace(req.Phase))))
	case "next-phase":
		h.respond(w)(h.svc.NextPhase(ctx, id))
	case "start":
		h.respond(w)(h.svc.StartSimulation(ctx, id))
	case "indicators":
		var p indicator.Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		h.respond(w)(h.svc.UpdateIndicators(ctx, id, p))
	case "increment-year":
		h.respond(w)(h.svc.IncrementYear(ctx, id))
	case "reset":
		h.respond(w)(h.svc.Reset(ctx, id))
	case "advance":
		d, ok := decodeDecisions(w, r)
		if !ok {
			return
		}
		res, rec, err := h.svc.Advance(ctx, id, d)
		if err != nil {
			writeSvcErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, advanceResponse{Result: res, Session: rec})
	case "preview":
		d, ok := decodeDecisions(w, r)
		if !ok {
			return
		}
		p, err := h.svc.Preview(ctx, id, d)
		if err != nil {
			writeSvcErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) respond(w http.ResponseWriter) func(any, error) {
	return func(v any, err error) {
		if err != nil {
			writeSvcErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// decodeDecisions writes the error response itself; unknown option values
// are rejected while decoding.
func decodeDecisions(w http.ResponseWriter, r *http.Request) (decision.Decisions, bool) {
	var req decisionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return decision.Decisions{}, false
	}
	if err := req.Decisions.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return decision.Decisions{}, false
	}
	return req.Decisions, true
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.ws == nil {
		writeErr(w, http.StatusNotImplemented, "websocket disabled")
		return
	}
	ctx := r.Context()
	if _, err := h.svc.State(ctx, id); err != nil {
		writeSvcErr(w, err)
		return
	}
	h.ws.Serve(w, r, id, func() (realtime.Message, error) {
		snap, err := h.svc.State(ctx, id)
		if err != nil {
			return realtime.Message{}, err
		}
		return realtime.Message{Type: "state", SessionID: id, Payload: snap}, nil
	})
}
