package users

import (
	"context"
	"net/http"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// Repository reads and writes users.
type Repository interface {
	List(ctx context.Context) ([]*User, error)
	Get(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, p Profile) (*User, error)
	Delete(ctx context.Context, id string) error
	SetPoints(ctx context.Context, id string, points int) error
}

const cachePrefix = "users"

type apiRepo struct {
	api *apiclient.Client
}

func NewAPIRepo(api *apiclient.Client) Repository {
	return &apiRepo{api: api}
}

func (r *apiRepo) List(ctx context.Context) ([]*User, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, "list"), apiclient.StaleUsers,
		func(ctx context.Context) ([]*User, error) {
			var out []*User
			if err := r.api.Get(ctx, "/users", nil, &out); err != nil {
				return nil, err
			}
			return out, nil
		})
}

func (r *apiRepo) Get(ctx context.Context, id string) (*User, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, id), apiclient.StaleUsers,
		func(ctx context.Context) (*User, error) {
			var out User
			if err := r.api.Get(ctx, "/users/"+id, nil, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
}

func (r *apiRepo) Update(ctx context.Context, id string, p Profile) (*User, error) {
	var out User
	err := r.api.Mutate(ctx, apiclient.Key(cachePrefix, id), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Send(ctx, http.MethodPut, "/users/"+id, p, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *apiRepo) Delete(ctx context.Context, id string) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Delete(ctx, "/users/"+id)
	})
}

func (r *apiRepo) SetPoints(ctx context.Context, id string, points int) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id, "points"), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Send(ctx, http.MethodPatch, "/users/"+id+"/points", map[string]int{"points": points}, nil)
	})
}
