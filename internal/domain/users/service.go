package users

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPoints is returned for a points value that is not a
// non-negative whole number.
var ErrInvalidPoints = fmt.Errorf("points must be a whole number of zero or more")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListUsers returns every user, most recently joined first.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*User, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a == nil || b == nil {
			return false
		}
		return a.After(*b)
	})
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, id string, p Profile) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if errs := ValidateProfile(p); len(errs) > 0 {
		return nil, fmt.Errorf("invalid profile: %v", errs)
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("user id is required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) SetPoints(ctx context.Context, id string, points int) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("user id is required")
	}
	if points < 0 {
		return ErrInvalidPoints
	}
	return s.repo.SetPoints(ctx, id, points)
}

// ParsePoints reads a posted points value. Surrounding blanks are ignored.
func ParsePoints(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidPoints
	}
	return n, nil
}

// ValidateProfile returns per-field messages keyed by form field name.
func ValidateProfile(p Profile) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "Name is required"
	}
	switch email := strings.TrimSpace(p.Email); {
	case email == "":
		errs["email"] = "Email is required"
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			errs["email"] = "Email must be a valid address"
		}
	}
	return errs
}
