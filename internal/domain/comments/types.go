package comments

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNotFound       = errors.New("comment not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrInvalidParent  = errors.New("parent comment belongs to another place")
	ErrPlaceNotFound  = errors.New("place not found")
	ErrEmptyContent   = errors.New("comment content is required")
)

// Flags are the accessibility observations attached to a comment. Each one
// is tri-state: nil means the author did not say.
type Flags struct {
	WheelchairAccess  *bool `json:"wheelchair_access"`
	VisualImpairment  *bool `json:"visual_impairment"`
	HearingImpairment *bool `json:"hearing_impairment"`
	MobilityIssues    *bool `json:"mobility_issues"`
	ParkingAccess     *bool `json:"parking_access"`
	GuideDogAccepted  *bool `json:"guide_dog_accepted"`
}

type Comment struct {
	ID                   int64   `json:"id"`
	PlaceID              int64   `json:"place_id"`
	UserID               int64   `json:"user_id"`
	ParentID             *int64  `json:"parent_id"`
	Content              string  `json:"content"`
	ImageURL             *string `json:"image_url,omitempty"`
	AccessibilityDetails *string `json:"accessibility_details,omitempty"`
	Flags
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	PlaceName    string `json:"place_name,omitempty"`
	RepliesCount int    `json:"replies_count"`

	Replies []*Comment `json:"replies,omitempty"`
}

// BuildTree nests flat comments under their parents. Roots come newest
// first, replies oldest first at every level. Comments whose parent is not
// in the list are treated as roots.
func BuildTree(flat []Comment) []*Comment {
	byID := make(map[int64]*Comment, len(flat))
	nodes := make([]*Comment, len(flat))
	for i := range flat {
		c := flat[i]
		c.Replies = nil
		nodes[i] = &c
		byID[c.ID] = &c
	}

	roots := []*Comment{}
	for _, c := range nodes {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	for _, c := range nodes {
		sort.SliceStable(c.Replies, func(i, j int) bool {
			return c.Replies[i].CreatedAt.Before(c.Replies[j].CreatedAt)
		})
		c.RepliesCount = len(c.Replies)
	}

	return roots
}
