package dto

import "landmark-tour-service/internal/domain"

type TourRequest struct {
	Origin    CoordinateRequest `json:"origin"`
	Landmarks []LandmarkDTO     `json:"landmarks"`
}

func (r TourRequest) Domain() domain.TourRequest {
	lms := make([]domain.Landmark, 0, len(r.Landmarks))
	for _, l := range r.Landmarks {
		lms = append(lms, l.Domain())
	}
	return domain.TourRequest{Origin: r.Origin.Domain(), Landmarks: lms}
}

type TourPlanResponse struct {
	SessionID            string            `json:"session_id"`
	Origin               CoordinateRequest `json:"origin"`
	OrderedStops         []LandmarkDTO     `json:"ordered_stops"`
	TotalDistanceMeters  float64           `json:"total_distance_meters"`
	PerLegDistanceMeters []float64         `json:"per_leg_distance_meters"`
	Metric               string            `json:"metric"`
}

func FromPlan(sessionID string, p domain.TourPlan) TourPlanResponse {
	legs := p.PerLegDistanceMeters
	if legs == nil {
		legs = []float64{}
	}
	return TourPlanResponse{
		SessionID:            sessionID,
		Origin:               CoordinateRequest{Latitude: p.Origin.Latitude, Longitude: p.Origin.Longitude},
		OrderedStops:         FromLandmarks(p.OrderedStops),
		TotalDistanceMeters:  p.TotalDistanceMeters,
		PerLegDistanceMeters: legs,
		Metric:               p.Metric,
	}
}

// PositionRequest carries one sample; a non-empty Error reports a provider failure instead.
type PositionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     string  `json:"error,omitempty"`
}

type MuteRequest struct {
	Muted bool `json:"muted"`
}

type NarrationAckRequest struct {
	UtteranceID string `json:"utterance_id"`
}

type NarrationAckResponse struct {
	Acknowledged bool `json:"acknowledged"`
}
