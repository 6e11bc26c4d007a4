package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"landmark-tour-service/internal/api/dto"
	"landmark-tour-service/internal/domain"
)

type PlaceFinder interface {
	IdentifyPlace(ctx context.Context, c domain.Coordinate) (domain.Place, bool)
	Landmarks(ctx context.Context, placeID string) []domain.Landmark
	SearchPlace(ctx context.Context, name string) (domain.Place, []domain.Landmark, bool)
	SuggestPlaces(ctx context.Context, prefix string) []domain.Place
}

// PlaceHandler exposes place and landmark lookups for the selection screen.
type PlaceHandler struct {
	Places PlaceFinder
}

func (h *PlaceHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req dto.CoordinateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := req.Domain()
	if err := c.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.Places.IdentifyPlace(r.Context(), c)
	if !ok {
		writeError(w, r, http.StatusNotFound, "no known place near this position")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromPlace(p))
}

func (h *PlaceHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	p, lms, ok := h.Places.SearchPlace(r.Context(), name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "place not found")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SearchPlaceResponse{
		PlaceResponse: dto.FromPlace(p),
		Landmarks:     dto.FromLandmarks(lms),
	})
}

func (h *PlaceHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	places := h.Places.SuggestPlaces(r.Context(), r.URL.Query().Get("q"))

	res := dto.SuggestPlacesResponse{Places: make([]dto.PlaceResponse, 0, len(places))}
	for _, p := range places {
		res.Places = append(res.Places, dto.FromPlace(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Landmarks never fails: an unknown place simply has no landmarks.
func (h *PlaceHandler) Landmarks(w http.ResponseWriter, r *http.Request) {
	lms := h.Places.Landmarks(r.Context(), chi.URLParam(r, "placeID"))
	writeJSON(w, r, http.StatusOK, dto.ListLandmarksResponse{Landmarks: dto.FromLandmarks(lms)})
}
