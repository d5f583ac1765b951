package insurance

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCompanies returns all companies, newest first when the API supplies
// creation times.
func (s *Service) ListCompanies(ctx context.Context) ([]*Company, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Company, len(items))
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

func (s *Service) GetCompany(ctx context.Context, id string) (*Company, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("company id is required")
	}
	return s.repo.Get(ctx, id)
}

// CreateCompany submits a new company. The payload must come from a
// validated RecordForm.
func (s *Service) CreateCompany(ctx context.Context, p *Payload) (*Company, error) {
	if err := checkPayload(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// UpdateCompany replaces a company. The field list is replaced wholesale;
// the stored logo is kept unless p carries a new one.
func (s *Service) UpdateCompany(ctx context.Context, id string, p *Payload) (*Company, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("company id is required")
	}
	if err := checkPayload(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("company id is required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) SetCompanyActive(ctx context.Context, id string, active bool) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("company id is required")
	}
	return s.repo.SetActive(ctx, id, active)
}

func checkPayload(p *Payload) error {
	if p == nil {
		return fmt.Errorf("payload is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	for i, f := range p.Fields {
		if !ValidKey(f.Key) {
			return fmt.Errorf("field %d: invalid key %q", i, f.Key)
		}
	}
	return nil
}
