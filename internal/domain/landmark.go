package domain

// Landmark is a point of interest a visitor can select for a tour.
// Identity is by ID; two landmarks with the same ID are the same entity.
type Landmark struct {
	ID          string     `json:"id"`
	Coordinate  Coordinate `json:"coordinate"`
	Description string     `json:"description,omitempty"`
}

// Place groups the landmarks of one site (a park, a campus, a district).
type Place struct {
	ID   string `json:"place_id"`
	Name string `json:"place_name"`
}
