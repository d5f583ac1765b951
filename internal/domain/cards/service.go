package cards

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCards returns all cards, narrowed to one issuer when companyID is set.
func (s *Service) ListCards(ctx context.Context, companyID string) ([]*Card, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if companyID == "" {
		return items, nil
	}
	out := make([]*Card, 0, len(items))
	for _, c := range items {
		if c.InsuranceCompany != nil && c.InsuranceCompany.ID() == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) GetCard(ctx context.Context, id string) (*Card, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("card id is required")
	}
	return s.repo.Get(ctx, id)
}
