package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// -- Mock Repository --

type mockRepo struct {
	orders   map[string]*Order
	order    []string
	statuses map[string]Status
	notes    map[string]string
}

func newMockRepo(items ...*Order) *mockRepo {
	m := &mockRepo{
		orders:   make(map[string]*Order),
		statuses: make(map[string]Status),
		notes:    make(map[string]string),
	}
	for _, o := range items {
		m.orders[o.ID()] = o
		m.order = append(m.order, o.ID())
	}
	return m
}

func (m *mockRepo) List(_ context.Context, status Status) ([]*Order, error) {
	var out []*Order
	for _, id := range m.order {
		if o := m.orders[id]; status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return o, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id string, status Status) error {
	m.statuses[id] = status
	return nil
}

func (m *mockRepo) Stats(_ context.Context) (Stats, error) {
	items, _ := m.List(context.Background(), "")
	return CountByStatus(items), nil
}

func (m *mockRepo) Notes(_ context.Context, id string) (string, error) {
	return m.notes[id], nil
}

func (m *mockRepo) SaveNotes(_ context.Context, id, notes string) error {
	m.notes[id] = notes
	return nil
}

func order(id string, st Status, day int) *Order {
	created := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
	return &Order{Identity: apiclient.Identity{MongoID: id}, Status: st, MedicineName: "Med " + id, CreatedAt: &created}
}

// -- Tests --

func TestListOrders_FilterAndSort(t *testing.T) {
	svc := NewService(newMockRepo(
		order("a", StatusPending, 1),
		order("b", StatusApproved, 3),
		order("c", StatusPending, 7),
	))

	all, err := svc.ListOrders(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID() != "c" || all[2].ID() != "a" {
		t.Errorf("unexpected order: %v, %v, %v", all[0].ID(), all[1].ID(), all[2].ID())
	}

	pending, _ := svc.ListOrders(context.Background(), StatusPending)
	if len(pending) != 2 {
		t.Errorf("expected 2 pending orders, got %d", len(pending))
	}
}

func TestApprove_OnlyPending(t *testing.T) {
	repo := newMockRepo(order("a", StatusPending, 1), order("b", StatusRejected, 2))
	svc := NewService(repo)

	if err := svc.Approve(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.statuses["a"] != StatusApproved {
		t.Errorf("status = %q, want approved", repo.statuses["a"])
	}

	if err := svc.Reject(context.Background(), "b"); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if _, ok := repo.statuses["b"]; ok {
		t.Error("decided order must not be updated")
	}
}

func TestUpdateStatus_Validates(t *testing.T) {
	repo := newMockRepo(order("a", StatusApproved, 1))
	svc := NewService(repo)

	if err := svc.UpdateStatus(context.Background(), "a", "lost"); err == nil {
		t.Error("expected error for unknown status")
	}
	if err := svc.UpdateStatus(context.Background(), "a", StatusDelivered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.statuses["a"] != StatusDelivered {
		t.Errorf("status = %q, want delivered", repo.statuses["a"])
	}
}

func TestSaveNotes_Length(t *testing.T) {
	repo := newMockRepo(order("a", StatusPending, 1))
	svc := NewService(repo)

	if err := svc.SaveNotes(context.Background(), "a", strings.Repeat("é", MaxNotesLength)); err != nil {
		t.Fatalf("notes at the limit must be accepted: %v", err)
	}
	if err := svc.SaveNotes(context.Background(), "a", strings.Repeat("x", MaxNotesLength+1)); err == nil {
		t.Error("expected error for notes over the limit")
	}

	got, err := svc.Notes(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len([]rune(got)) != MaxNotesLength {
		t.Errorf("stored notes have %d characters", len([]rune(got)))
	}
}

func TestGetOrder_RequiresID(t *testing.T) {
	if _, err := NewService(newMockRepo()).GetOrder(context.Background(), ""); err == nil {
		t.Error("expected error for blank id")
	}
}
