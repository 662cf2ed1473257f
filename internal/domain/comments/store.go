package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"accessimaps/internal/db"
	"accessimaps/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, commentID int64) (*Comment, error)
	ListByPlace(ctx context.Context, placeID int64) ([]*Comment, error)
	ListAdmin(ctx context.Context, p params.Pagination) ([]Comment, int, error)
	Recent(ctx context.Context, n int) ([]Comment, error)
	Delete(ctx context.Context, commentID int64) (int, error)
	Count(ctx context.Context) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const commentColumns = `
	c.id, c.place_id, c.user_id, c.parent_id, c.content, c.image_url,
	c.accessibility_details,
	c.wheelchair_access, c.visual_impairment, c.hearing_impairment,
	c.mobility_issues, c.parking_access, c.guide_dog_accepted,
	c.created_at, c.updated_at, u.name, u.email, p.name,
	(SELECT COUNT(*) FROM comments r WHERE r.parent_id = c.id) AS replies_count
`

func scanComment(row pgx.Row, c *Comment) error {
	return row.Scan(
		&c.ID, &c.PlaceID, &c.UserID, &c.ParentID, &c.Content, &c.ImageURL,
		&c.AccessibilityDetails,
		&c.WheelchairAccess, &c.VisualImpairment, &c.HearingImpairment,
		&c.MobilityIssues, &c.ParkingAccess, &c.GuideDogAccepted,
		&c.CreatedAt, &c.UpdatedAt, &c.UserName, &c.UserEmail, &c.PlaceName,
		&c.RepliesCount,
	)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Create stores a comment or a reply. The content is trimmed and must not be
// empty; a parent must exist and sit on the same place.
func (r *Repository) Create(ctx context.Context, comment *Comment) error {
	comment.Content = strings.TrimSpace(comment.Content)
	if comment.Content == "" {
		return ErrEmptyContent
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM places WHERE id = $1)`, comment.PlaceID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrPlaceNotFound
		}

		if comment.ParentID != nil {
			var parentPlace int64
			err := tx.QueryRow(ctx, `SELECT place_id FROM comments WHERE id = $1`, *comment.ParentID).Scan(&parentPlace)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrParentNotFound
				}
				return err
			}
			if parentPlace != comment.PlaceID {
				return ErrInvalidParent
			}
		}

		const query = `
			INSERT INTO comments (
				place_id, user_id, parent_id, content, image_url, accessibility_details,
				wheelchair_access, visual_impairment, hearing_impairment,
				mobility_issues, parking_access, guide_dog_accepted
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at
		`
		f := comment.Flags
		err := tx.QueryRow(ctx, query,
			comment.PlaceID, comment.UserID, comment.ParentID, comment.Content,
			comment.ImageURL, comment.AccessibilityDetails,
			f.WheelchairAccess, f.VisualImpairment, f.HearingImpairment,
			f.MobilityIssues, f.ParkingAccess, f.GuideDogAccepted,
		).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}

		return tx.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1`, comment.UserID).
			Scan(&comment.UserName, &comment.UserEmail)
	})
}

func (r *Repository) GetByID(ctx context.Context, commentID int64) (*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN places p ON p.id = c.place_id
		WHERE c.id = $1
	`

	var c Comment
	if err := scanComment(r.db.QueryRow(ctx, query, commentID), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByPlace returns the comment tree of a place.
func (r *Repository) ListByPlace(ctx context.Context, placeID int64) ([]*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN places p ON p.id = c.place_id
		WHERE c.place_id = $1
		ORDER BY c.created_at
	`
	flat, err := r.collect(ctx, query, placeID)
	if err != nil {
		return nil, err
	}
	return BuildTree(flat), nil
}

func (r *Repository) ListAdmin(ctx context.Context, p params.Pagination) ([]Comment, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN places p ON p.id = c.place_id
		ORDER BY c.created_at DESC
		LIMIT $1 OFFSET $2
	`
	comments, err := r.collect(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *Repository) Recent(ctx context.Context, n int) ([]Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN places p ON p.id = c.place_id
		ORDER BY c.created_at DESC
		LIMIT $1
	`
	return r.collect(ctx, query, n)
}

// Delete removes a comment with all of its descendants and returns how many
// rows went away, the comment itself included.
func (r *Repository) Delete(ctx context.Context, commentID int64) (int, error) {
	const query = `
		WITH RECURSIVE thread AS (
			SELECT id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
		)
		DELETE FROM comments WHERE id IN (SELECT id FROM thread)
	`

	tag, err := r.db.Exec(ctx, query, commentID)
	if err != nil {
		return 0, fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	return n, err
}
