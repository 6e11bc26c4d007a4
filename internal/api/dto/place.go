package dto

import "landmark-tour-service/internal/domain"

type CoordinateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c CoordinateRequest) Domain() domain.Coordinate {
	return domain.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

type PlaceResponse struct {
	PlaceID   string `json:"placeId"`
	PlaceName string `json:"placeName"`
}

// LandmarkDTO is the landmark shape shared by place lookups and tour requests.
type LandmarkDTO struct {
	Landmark    string  `json:"landmark"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description,omitempty"`
}

func (l LandmarkDTO) Domain() domain.Landmark {
	return domain.Landmark{
		ID:          l.Landmark,
		Coordinate:  domain.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude},
		Description: l.Description,
	}
}

type ListLandmarksResponse struct {
	Landmarks []LandmarkDTO `json:"landmarks"`
}

type SearchPlaceResponse struct {
	PlaceResponse
	Landmarks []LandmarkDTO `json:"landmarks"`
}

type SuggestPlacesResponse struct {
	Places []PlaceResponse `json:"places"`
}

func FromPlace(p domain.Place) PlaceResponse {
	return PlaceResponse{PlaceID: p.ID, PlaceName: p.Name}
}

func FromLandmarks(lms []domain.Landmark) []LandmarkDTO {
	out := make([]LandmarkDTO, 0, len(lms))
	for _, lm := range lms {
		out = append(out, LandmarkDTO{
			Landmark:    lm.ID,
			Latitude:    lm.Coordinate.Latitude,
			Longitude:   lm.Coordinate.Longitude,
			Description: lm.Description,
		})
	}
	return out
}
