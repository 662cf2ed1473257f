package users

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("a user with that email already exists")
	ErrSelfRemoval    = errors.New("you cannot remove your own admin account")
	ErrLastAdmin      = errors.New("cannot remove the last administrator")
	ErrNotAdmin       = errors.New("user is not an administrator")
	ErrAlreadyAdmin   = errors.New("user is already an administrator")
	ErrBanAdmin       = errors.New("administrators cannot be banned")
	ErrBanSelf        = errors.New("you cannot ban yourself")
	ErrEraseAdmin     = errors.New("administrators are removed from the admin accounts page")

	QueryTimeoutDuration = time.Second * 5
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	IsBanned  bool      `json:"is_banned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is a user row as listed on the admin users page.
type Member struct {
	User
	RatingsCount  int `json:"ratings_count"`
	CommentsCount int `json:"comments_count"`
	PlacesCount   int `json:"places_count"`
}

type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// Removal is what happens to an admin taken off the admin list.
type Removal int

const (
	// Demote keeps the account and clears its admin flag.
	Demote Removal = iota
	// Erase deletes the account.
	Erase
)

// CheckAdminRemoval applies the admin floor rules: nobody removes their own
// admin account, the target must be an admin, and the last admin stays.
func CheckAdminRemoval(actorID int64, target *User, adminCount int) error {
	switch {
	case target.ID == actorID:
		return ErrSelfRemoval
	case !target.IsAdmin:
		return ErrNotAdmin
	case adminCount <= 1:
		return ErrLastAdmin
	}
	return nil
}
