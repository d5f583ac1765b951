package cards

import (
	"context"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// Repository reads insurance cards. Cards are created by the mobile app;
// the dashboard only views them.
type Repository interface {
	List(ctx context.Context) ([]*Card, error)
	Get(ctx context.Context, id string) (*Card, error)
}

const cachePrefix = "cards"

type apiRepo struct {
	api *apiclient.Client
}

func NewAPIRepo(api *apiclient.Client) Repository {
	return &apiRepo{api: api}
}

func (r *apiRepo) List(ctx context.Context) ([]*Card, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, "list"), apiclient.StaleCards,
		func(ctx context.Context) ([]*Card, error) {
			var out []*Card
			if err := r.api.Get(ctx, "/cards", nil, &out); err != nil {
				return nil, err
			}
			return out, nil
		})
}

func (r *apiRepo) Get(ctx context.Context, id string) (*Card, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, id), apiclient.StaleCards,
		func(ctx context.Context) (*Card, error) {
			var out Card
			if err := r.api.Get(ctx, "/cards/"+id, nil, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
}
