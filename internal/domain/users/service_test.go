package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// -- Mock Repository --

type mockRepo struct {
	users   map[string]*User
	points  map[string]int
	updated map[string]Profile
	deleted []string
}

func newMockRepo(us ...*User) *mockRepo {
	m := &mockRepo{
		users:   make(map[string]*User),
		points:  make(map[string]int),
		updated: make(map[string]Profile),
	}
	for _, u := range us {
		m.users[u.ID()] = u
	}
	return m
}

func (m *mockRepo) List(_ context.Context) ([]*User, error) {
	out := make([]*User, 0, len(m.users))
	for _, id := range []string{"u1", "u2", "u3"} {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockRepo) Update(_ context.Context, id string, p Profile) (*User, error) {
	m.updated[id] = p
	return m.users[id], nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) SetPoints(_ context.Context, id string, points int) error {
	m.points[id] = points
	return nil
}

func at(day int) *time.Time {
	t := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func user(id, name string, created *time.Time) *User {
	return &User{Identity: apiclient.Identity{MongoID: id}, Name: name, Email: id + "@example.com", CreatedAt: created}
}

// -- Tests --

func TestListUsers_NewestFirst(t *testing.T) {
	svc := NewService(newMockRepo(user("u1", "Old", at(1)), user("u2", "New", at(9)), user("u3", "Mid", at(5))))

	got, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"New", "Mid", "Old"}
	for i, u := range got {
		if u.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, u.Name, want[i])
		}
	}
}

func TestGetUser_RequiresID(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.GetUser(context.Background(), " "); err == nil {
		t.Error("expected error for blank id")
	}
}

func TestUpdateUser_RejectsInvalidProfile(t *testing.T) {
	repo := newMockRepo(user("u1", "Ada", nil))
	svc := NewService(repo)

	if _, err := svc.UpdateUser(context.Background(), "u1", Profile{Name: "Ada", Email: "nope"}); err == nil {
		t.Fatal("expected error for invalid email")
	}
	if len(repo.updated) != 0 {
		t.Error("repository must not be called for an invalid profile")
	}

	if _, err := svc.UpdateUser(context.Background(), "u1", Profile{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updated["u1"].Email != "ada@example.com" {
		t.Errorf("update not forwarded: %+v", repo.updated)
	}
}

func TestSetPoints(t *testing.T) {
	repo := newMockRepo(user("u1", "Ada", nil))
	svc := NewService(repo)

	if err := svc.SetPoints(context.Background(), "u1", -1); !errors.Is(err, ErrInvalidPoints) {
		t.Errorf("expected ErrInvalidPoints, got %v", err)
	}
	if err := svc.SetPoints(context.Background(), "u1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := repo.points["u1"]; !ok || got != 0 {
		t.Errorf("points = %d (set %v), want 0", got, ok)
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newMockRepo(user("u1", "Ada", nil))
	if err := NewService(repo).DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "u1" {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{" 150 ", 150, false},
		{"-3", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePoints(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePoints(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePoints(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestValidateProfile(t *testing.T) {
	errs := ValidateProfile(Profile{})
	if errs["name"] != "Name is required" || errs["email"] != "Email is required" {
		t.Errorf("unexpected errors for empty profile: %v", errs)
	}

	errs = ValidateProfile(Profile{Name: "Ada", Email: "not-an-address"})
	if len(errs) != 1 || errs["email"] != "Email must be a valid address" {
		t.Errorf("unexpected errors: %v", errs)
	}

	if errs := ValidateProfile(Profile{Name: "Ada", Email: "ada@example.com"}); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{Email: "ada@example.com"}
	if got := u.DisplayName(); got != "ada@example.com" {
		t.Errorf("DisplayName() = %q", got)
	}
	u.Name = "Ada"
	if got := u.DisplayName(); got != "Ada" {
		t.Errorf("DisplayName() = %q", got)
	}
}
