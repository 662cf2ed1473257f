package ratings

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("rating not found")
	ErrPlaceNotFound = errors.New("place not found")
	ErrOutOfRange    = errors.New("ratings must be between 1 and 5")
)

// Dimension names one of the six accessibility axes a place is rated on.
type Dimension string

const (
	Mobility Dimension = "mobility"
	Visual   Dimension = "visual"
	Hearing  Dimension = "hearing"
	Toilet   Dimension = "toilet"
	Parking  Dimension = "parking"
	GuideDog Dimension = "guide_dog"
)

var Dimensions = []Dimension{Mobility, Visual, Hearing, Toilet, Parking, GuideDog}

// Scores is one user's six 1-5 scores for a place.
type Scores struct {
	Mobility int `json:"mobility_rating" validate:"required,min=1,max=5"`
	Visual   int `json:"visual_rating" validate:"required,min=1,max=5"`
	Hearing  int `json:"hearing_rating" validate:"required,min=1,max=5"`
	Toilet   int `json:"toilet_rating" validate:"required,min=1,max=5"`
	Parking  int `json:"parking_rating" validate:"required,min=1,max=5"`
	GuideDog int `json:"guide_dog_rating" validate:"required,min=1,max=5"`
}

func (s Scores) Get(d Dimension) int {
	switch d {
	case Mobility:
		return s.Mobility
	case Visual:
		return s.Visual
	case Hearing:
		return s.Hearing
	case Toilet:
		return s.Toilet
	case Parking:
		return s.Parking
	case GuideDog:
		return s.GuideDog
	}
	return 0
}

func (s Scores) Validate() error {
	for _, d := range Dimensions {
		if v := s.Get(d); v < 1 || v > 5 {
			return ErrOutOfRange
		}
	}
	return nil
}

// Averages are the rolling per-dimension means stored on a place.
type Averages struct {
	Mobility float64 `json:"average_mobility_rating"`
	Visual   float64 `json:"average_visual_rating"`
	Hearing  float64 `json:"average_hearing_rating"`
	Toilet   float64 `json:"average_toilet_rating"`
	Parking  float64 `json:"average_parking_rating"`
	GuideDog float64 `json:"average_guide_dog_rating"`
	Count    int     `json:"ratings_count"`
}

func (a Averages) Get(d Dimension) float64 {
	switch d {
	case Mobility:
		return a.Mobility
	case Visual:
		return a.Visual
	case Hearing:
		return a.Hearing
	case Toilet:
		return a.Toilet
	case Parking:
		return a.Parking
	case GuideDog:
		return a.GuideDog
	}
	return 0
}

// Column returns the places column holding the average for d.
func Column(d Dimension) string {
	return "average_" + string(d) + "_rating"
}

type Rating struct {
	ID      int64 `json:"id"`
	PlaceID int64 `json:"place_id"`
	UserID  int64 `json:"user_id"`
	Scores
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	PlaceName string `json:"place_name,omitempty"`
	PlaceCity string `json:"place_city,omitempty"`
}

// WriteResult reports the outcome of a rating write together with the
// place's recomputed averages.
type WriteResult struct {
	Rating   *Rating  `json:"rating,omitempty"`
	Created  bool     `json:"created"`
	Averages Averages `json:"averages"`
}
