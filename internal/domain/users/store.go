package users

import (
	"context"
	"errors"
	"fmt"

	"accessimaps/internal/db"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Promote(ctx context.Context, userID int64) error
	SetBanned(ctx context.Context, actorID, userID int64, banned bool) error
	SetPassword(ctx context.Context, user *User) error
	Delete(ctx context.Context, userID int64) error
	RemoveAdmin(ctx context.Context, actorID, userID int64, how Removal) error
	CountAdmins(ctx context.Context) (int, error)
	ListNonAdmins(ctx context.Context, p params.Pagination) ([]Member, int, error)
	ListAdmins(ctx context.Context) ([]Member, error)
	Recent(ctx context.Context, n int) ([]User, error)
	Count(ctx context.Context) (int, error)
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const uniqueViolation = "23505"

func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, user.Name, user.Email, user.Password.hash, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

const userColumns = `id, name, email, password, is_admin, is_banned, created_at, updated_at`

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password.hash,
		&u.IsAdmin, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt,
	)
}

func (r *Repository) getBy(ctx context.Context, column string, value any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value), user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	return r.getBy(ctx, "id", userID)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *Repository) Promote(ctx context.Context, userID int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var isAdmin bool
		err := tx.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&isAdmin)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if isAdmin {
			return ErrAlreadyAdmin
		}

		// a promoted user cannot stay banned
		_, err = tx.Exec(ctx, `UPDATE users SET is_admin = TRUE, is_banned = FALSE, updated_at = NOW() WHERE id = $1`, userID)
		return err
	})
}

// SetBanned bans or unbans a member. Banning also revokes the stored refresh
// token so no new access token can be minted.
func (r *Repository) SetBanned(ctx context.Context, actorID, userID int64, banned bool) error {
	if banned && actorID == userID {
		return ErrBanSelf
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var isAdmin bool
		err := tx.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&isAdmin)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if banned && isAdmin {
			return ErrBanAdmin
		}

		query := `UPDATE users SET is_banned = $1, updated_at = NOW() WHERE id = $2`
		if banned {
			query = `UPDATE users SET is_banned = $1, refresh_token = NULL, updated_at = NOW() WHERE id = $2`
		}
		_, err = tx.Exec(ctx, query, banned, userID)
		return err
	})
}

func (r *Repository) SetPassword(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`,
		user.Password.hash, user.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a member together with their ratings and comments, then
// recomputes the averages of every place they had rated. Admin accounts go
// through RemoveAdmin so the admin floor is enforced.
func (r *Repository) Delete(ctx context.Context, userID int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var isAdmin bool
		err := tx.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&isAdmin)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if isAdmin {
			return ErrEraseAdmin
		}
		return deleteUser(ctx, tx, userID)
	})
}

func deleteUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	rows, err := tx.Query(ctx, `
		SELECT p.id FROM places p
		JOIN ratings r ON r.place_id = p.id
		WHERE r.user_id = $1
		ORDER BY p.id
		FOR UPDATE OF p
	`, userID)
	if err != nil {
		return err
	}
	placeIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, placeID := range placeIDs {
		if _, err := ratings.Recompute(ctx, tx, placeID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAdmin deletes or demotes an admin. The admin rows are locked while
// the floor rules are checked so two admins cannot remove each other at once.
func (r *Repository) RemoveAdmin(ctx context.Context, actorID, userID int64, how Removal) error {
	if actorID == userID {
		return ErrSelfRemoval
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM users WHERE is_admin ORDER BY id FOR UPDATE`)
		if err != nil {
			return err
		}
		adminIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}

		target := &User{}
		err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID), target)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if err := CheckAdminRemoval(actorID, target, len(adminIDs)); err != nil {
			return err
		}

		if how == Erase {
			return deleteUser(ctx, tx, userID)
		}
		_, err = tx.Exec(ctx, `UPDATE users SET is_admin = FALSE, updated_at = NOW() WHERE id = $1`, userID)
		return err
	})
}

func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_admin`).Scan(&n)
	return n, err
}

const memberQuery = `
	SELECT u.id, u.name, u.email, u.password, u.is_admin, u.is_banned, u.created_at, u.updated_at,
		(SELECT COUNT(*) FROM ratings r WHERE r.user_id = u.id),
		(SELECT COUNT(*) FROM comments c WHERE c.user_id = u.id),
		(SELECT COUNT(*) FROM places p WHERE p.created_by = u.id)
	FROM users u
`

func (r *Repository) members(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.ID, &m.Name, &m.Email, &m.Password.hash, &m.IsAdmin, &m.IsBanned, &m.CreatedAt, &m.UpdatedAt,
			&m.RatingsCount, &m.CommentsCount, &m.PlacesCount,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) ListNonAdmins(ctx context.Context, p params.Pagination) ([]Member, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_admin`).Scan(&total); err != nil {
		return nil, 0, err
	}

	members, err := r.members(ctx, memberQuery+`
		WHERE NOT u.is_admin
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *Repository) ListAdmins(ctx context.Context) ([]Member, error) {
	return r.members(ctx, memberQuery+`
		WHERE u.is_admin
		ORDER BY u.created_at
	`)
}

func (r *Repository) Recent(ctx context.Context, n int) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var token *string
	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve refresh token: %w", err)
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
