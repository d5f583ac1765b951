package orders

import (
	"context"
	"net/http"
	"net/url"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// Repository reads and updates medicine orders.
type Repository interface {
	List(ctx context.Context, status Status) ([]*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	SetStatus(ctx context.Context, id string, status Status) error
	Stats(ctx context.Context) (Stats, error)
	Notes(ctx context.Context, id string) (string, error)
	SaveNotes(ctx context.Context, id, notes string) error
}

const (
	cachePrefix = "orders"
	statsKey    = "orders-stats"
)

type apiRepo struct {
	api *apiclient.Client
}

func NewAPIRepo(api *apiclient.Client) Repository {
	return &apiRepo{api: api}
}

func (r *apiRepo) List(ctx context.Context, status Status) ([]*Order, error) {
	filter := string(status)
	if filter == "" {
		filter = "all"
	}
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, "list", filter), apiclient.StaleOrders,
		func(ctx context.Context) ([]*Order, error) {
			var q url.Values
			if status != "" {
				q = url.Values{"status": {string(status)}}
			}
			var out []*Order
			if err := r.api.Get(ctx, "/orders", q, &out); err != nil {
				return nil, err
			}
			return out, nil
		})
}

func (r *apiRepo) Get(ctx context.Context, id string) (*Order, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, id), apiclient.StaleOrders,
		func(ctx context.Context) (*Order, error) {
			var out Order
			if err := r.api.Get(ctx, "/orders/"+id, nil, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
}

func (r *apiRepo) SetStatus(ctx context.Context, id string, status Status) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id, "status"), []string{cachePrefix, statsKey}, func(ctx context.Context) error {
		return r.api.Send(ctx, http.MethodPatch, "/orders/"+id+"/status", map[string]Status{"status": status}, nil)
	})
}

func (r *apiRepo) Stats(ctx context.Context) (Stats, error) {
	return apiclient.Query(ctx, r.api, statsKey, apiclient.StaleOrderStats,
		func(ctx context.Context) (Stats, error) {
			var out Stats
			err := r.api.Get(ctx, "/orders/stats", nil, &out)
			return out, err
		})
}

type notesBody struct {
	AdminNotes string `json:"adminNotes"`
}

func (r *apiRepo) Notes(ctx context.Context, id string) (string, error) {
	return apiclient.Query(ctx, r.api, apiclient.Key(cachePrefix, id, "notes"), apiclient.StaleOrders,
		func(ctx context.Context) (string, error) {
			var out notesBody
			err := r.api.Get(ctx, "/orders/"+id+"/notes", nil, &out)
			return out.AdminNotes, err
		})
}

// SaveNotes leaves the stats cache alone: notes do not change any count.
func (r *apiRepo) SaveNotes(ctx context.Context, id, notes string) error {
	return r.api.Mutate(ctx, apiclient.Key(cachePrefix, id, "notes"), []string{cachePrefix}, func(ctx context.Context) error {
		return r.api.Send(ctx, http.MethodPatch, "/orders/"+id+"/notes", notesBody{AdminNotes: notes}, nil)
	})
}
