package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotPending is returned when approving or rejecting an order that has
// already been decided.
var ErrNotPending = errors.New("only pending orders can be approved or rejected")

// MaxNotesLength bounds the admin notes text.
const MaxNotesLength = 2000

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListOrders returns orders newest first, optionally narrowed to one status.
func (s *Service) ListOrders(ctx context.Context, status Status) ([]*Order, error) {
	items, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]*Order, len(items))
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

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.Get(ctx, id)
}

// Stats returns the per-status counts from the API.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("order id is required")
	}
	if _, ok := ParseStatus(string(status)); !ok {
		return fmt.Errorf("unknown order status %q", status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *Service) Approve(ctx context.Context, id string) error {
	return s.decide(ctx, id, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id string) error {
	return s.decide(ctx, id, StatusRejected)
}

func (s *Service) decide(ctx context.Context, id string, status Status) error {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if !o.IsPending() {
		return ErrNotPending
	}
	return s.repo.SetStatus(ctx, id, status)
}

// Notes returns the current admin notes of an order.
func (s *Service) Notes(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("order id is required")
	}
	return s.repo.Notes(ctx, id)
}

func (s *Service) SaveNotes(ctx context.Context, id, notes string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("order id is required")
	}
	if len([]rune(notes)) > MaxNotesLength {
		return fmt.Errorf("notes exceed %d characters", MaxNotesLength)
	}
	return s.repo.SaveNotes(ctx, id, notes)
}
