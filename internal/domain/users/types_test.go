package users

import (
	"errors"
	"testing"
)

func TestCheckAdminRemoval(t *testing.T) {
	admin := &User{ID: 2, IsAdmin: true}
	member := &User{ID: 3}

	tests := []struct {
		name   string
		actor  int64
		target *User
		admins int
		want   error
	}{
		{"removes another admin", 1, admin, 2, nil},
		{"refuses self", 2, admin, 5, ErrSelfRemoval},
		{"refuses non admin", 1, member, 3, ErrNotAdmin},
		{"keeps the last admin", 1, admin, 1, ErrLastAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdminRemoval(tt.actor, tt.target, tt.admins)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v got %v", tt.want, err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	var p password
	if err := p.Set("s3cret!"); err != nil {
		t.Fatal(err)
	}
	if err := p.Compare("s3cret!"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := p.Compare("wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}
