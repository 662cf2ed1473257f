package places

import (
	"errors"
	"time"

	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/search"
)

var ErrNotFound = errors.New("place not found")

// Type is the category of a place.
type Type string

const (
	Restaurant         Type = "RESTAURANT"
	Cinema             Type = "CINEMA"
	Parc               Type = "PARC"
	Musee              Type = "MUSEE"
	Bar                Type = "BAR"
	ToilettesPubliques Type = "TOILETTES_PUBLIQUES"
	Hopital            Type = "HOPITAL"
	Ecole              Type = "ECOLE"
	Universite         Type = "UNIVERSITE"
	Transport          Type = "TRANSPORT"
	Hotel              Type = "HOTEL"
	Magasin            Type = "MAGASIN"
	Bureau             Type = "BUREAU"
	Autre              Type = "AUTRE"
)

var Types = []Type{
	Restaurant, Cinema, Parc, Musee, Bar, ToilettesPubliques, Hopital,
	Ecole, Universite, Transport, Hotel, Magasin, Bureau, Autre,
}

func IsValidType(t string) bool {
	for _, v := range Types {
		if string(v) == t {
			return true
		}
	}
	return false
}

// Place is a public location in the directory. The embedded averages are
// maintained by the ratings repository and are never written here.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	Type        Type      `json:"type"`
	Description *string   `json:"description,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ratings.Averages
	CommentsCount int `json:"comments_count"`
}

func (p Place) SearchFields() search.Fields {
	f := search.Fields{
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		Type:      string(p.Type),
		Averages:  p.Averages,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: p.CreatedAt,
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	return f
}

// DeleteResult counts what went away with a place.
type DeleteResult struct {
	DeletedRatings  int `json:"deleted_ratings"`
	DeletedComments int `json:"deleted_comments"`
}
