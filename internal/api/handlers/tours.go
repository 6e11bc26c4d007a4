package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"landmark-tour-service/internal/api/dto"
	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/navigation"
)

type TourManager interface {
	PlanTour(ctx context.Context, req domain.TourRequest) (string, domain.TourPlan, error)
	Plan(ctx context.Context, sessionID string) (domain.TourPlan, error)
	StartNavigation(ctx context.Context, sessionID string) (*navigation.Machine, error)
	Navigation(sessionID string) (*navigation.Machine, error)
	Abandon(ctx context.Context, sessionID string) error
	AcknowledgeNarration(sessionID, utteranceID string) (bool, error)
}

// TourHandler exposes tour planning and the navigation controls of a running tour.
// Every navigation endpoint answers with the machine snapshot after the action.
type TourHandler struct {
	Tours TourManager
}

func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TourRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, plan, err := h.Tours.PlanTour(r.Context(), req.Domain())
	if err != nil {
		writeServiceError(w, r, "plan tour", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromPlan(id, plan))
}

func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tourID")
	plan, err := h.Tours.Plan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get tour", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromPlan(id, plan))
}

func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Tours.Abandon(r.Context(), chi.URLParam(r, "tourID")); err != nil {
		writeServiceError(w, r, "abandon tour", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TourHandler) StartNavigation(w http.ResponseWriter, r *http.Request) {
	m, err := h.Tours.StartNavigation(r.Context(), chi.URLParam(r, "tourID"))
	if err != nil {
		writeServiceError(w, r, "start navigation", err)
		return
	}
	writeJSON(w, r, http.StatusOK, m.Snapshot())
}

func (h *TourHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, "snapshot", func(*navigation.Machine) error { return nil })
}

func (h *TourHandler) Position(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := domain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if msg := strings.TrimSpace(req.Error); msg == "" {
		if err := c.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.withMachine(w, r, "position", func(m *navigation.Machine) error {
		if msg := strings.TrimSpace(req.Error); msg != "" {
			m.OnPositionError(errors.New(msg))
			return nil
		}
		m.OnPositionUpdate(c)
		return nil
	})
}

func (h *TourHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, "continue", (*navigation.Machine).Continue)
}

func (h *TourHandler) Repeat(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, "repeat", (*navigation.Machine).Repeat)
}

func (h *TourHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, "retry segment", (*navigation.Machine).RetrySegment)
}

func (h *TourHandler) Mute(w http.ResponseWriter, r *http.Request) {
	var req dto.MuteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withMachine(w, r, "mute", func(m *navigation.Machine) error {
		m.SetMuted(req.Muted)
		return nil
	})
}

func (h *TourHandler) NarrationAck(w http.ResponseWriter, r *http.Request) {
	var req dto.NarrationAckRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	ok, err := h.Tours.AcknowledgeNarration(chi.URLParam(r, "tourID"), req.UtteranceID)
	if err != nil {
		writeServiceError(w, r, "acknowledge narration", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NarrationAckResponse{Acknowledged: ok})
}

func (h *TourHandler) withMachine(w http.ResponseWriter, r *http.Request, op string, fn func(*navigation.Machine) error) {
	m, err := h.Tours.Navigation(chi.URLParam(r, "tourID"))
	if err != nil {
		if errors.Is(err, domain.ErrTourNotFound) {
			writeError(w, r, http.StatusNotFound, "navigation not started")
			return
		}
		writeServiceError(w, r, op, err)
		return
	}
	if err := fn(m); err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m.Snapshot())
}
