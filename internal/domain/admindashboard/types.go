package admindashboard

import (
	"context"
	"sort"
	"time"
)

type Overview struct {
	TotalUsers    int64 `json:"total_users"`
	TotalAdmins   int64 `json:"total_admins"`
	TotalBanned   int64 `json:"total_banned"`
	TotalPlaces   int64 `json:"total_places"`
	TotalRatings  int64 `json:"total_ratings"`
	TotalComments int64 `json:"total_comments"`

	RecentActivity []Activity `json:"recent_activity"`
}

// ActivityType tags an entry of the recent activity feed.
type ActivityType string

const (
	ActivityUser   ActivityType = "user"
	ActivityPlace  ActivityType = "place"
	ActivityRating ActivityType = "rating"
)

type Activity struct {
	ID          int64        `json:"id"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
}

// How many of each kind feed the activity list, and its final length.
const (
	RecentUsers   = 3
	RecentPlaces  = 3
	RecentRatings = 2
	MaxActivity   = 10
)

// MergeActivity interleaves feeds newest first and keeps at most MaxActivity
// entries.
func MergeActivity(feeds ...[]Activity) []Activity {
	merged := []Activity{}
	for _, f := range feeds {
		merged = append(merged, f...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > MaxActivity {
		merged = merged[:MaxActivity]
	}
	return merged
}

type Store interface {
	GetOverview(ctx context.Context) (*Overview, error)
}
