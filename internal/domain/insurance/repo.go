package insurance

import (
	"context"
	"net/http"
	"strconv"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
)

// Repository reads and writes insurance companies.
type Repository interface {
	List(ctx context.Context) ([]*Company, error)
	Get(ctx context.Context, id string) (*Company, error)
	Create(ctx context.Context, p *Payload) (*Company, error)
	Update(ctx context.Context, id string, p *Payload) (*Company, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

const cachePrefix = "insurance"

// apiRepo is the Repository backed by the remote API.
type apiRepo struct {
	api *apiclient.Client
}

func NewAPIRepo(api *apiclient.Client) Repository {
	return &apiRepo{api: api}
}

func (r *apiRepo) List(ctx context.Context) ([]*Company, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, "list"), apiclient.StaleInsurance,
		func(ctx context.Context) ([]*Company, error) {
			var out []*Company
			if err := r.api.Get(ctx, "/insurance", nil, &out); err != nil {
				return nil, err
			}
			return out, nil
		})
}

func (r *apiRepo) Get(ctx context.Context, id string) (*Company, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, id), apiclient.StaleInsurance,
		func(ctx context.Context) (*Company, error) {
			var out Company
			if err := r.api.Get(ctx, "/insurance/"+id, nil, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
}

// Create holds a lock per session, so a double submit from one admin is
// refused while other admins can create at the same time.
func (r *apiRepo) Create(ctx context.Context, p *Payload) (*Company, error) {
	return r.send(ctx, createLockKey(ctx), http.MethodPost, "/insurance", p)
}

func createLockKey(ctx context.Context) string {
	return apiclient.Key(cachePrefix, "create", session.FromContext(ctx).ID())
}

func (r *apiRepo) Update(ctx context.Context, id string, p *Payload) (*Company, error) {
	return r.send(ctx, apiclient.Key(cachePrefix, id), http.MethodPut, "/insurance/"+id, p)
}

func (r *apiRepo) send(ctx context.Context, lockKey, method, path string, p *Payload) (*Company, error) {
	body, contentType, err := p.Multipart()
	if err != nil {
		return nil, err
	}
	var out Company
	err = r.api.Mutate(ctx, lockKey, []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.SendMultipart(ctx, method, path, body, contentType, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *apiRepo) Delete(ctx context.Context, id string) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Delete(ctx, "/insurance/"+id)
	})
}

func (r *apiRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Send(ctx, http.MethodPatch, "/insurance/"+id+"/status",
			map[string]bool{"isActive": active}, nil)
	})
}

// parseActive reads a posted isActive value.
func parseActive(s string) (bool, error) {
	if s == "on" {
		return true, nil
	}
	return strconv.ParseBool(s)
}
