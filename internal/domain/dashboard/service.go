// Package dashboard assembles the landing page figures from the users,
// insurance and orders resources.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/healthcare/admin-dashboard/internal/domain/insurance"
	"github.com/healthcare/admin-dashboard/internal/domain/orders"
	"github.com/healthcare/admin-dashboard/internal/domain/users"
)

// RecentLimit is the number of users and orders listed on the dashboard.
const RecentLimit = 5

type UserLister interface {
	ListUsers(ctx context.Context) ([]*users.User, error)
}

type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]*insurance.Company, error)
}

type OrderLister interface {
	ListOrders(ctx context.Context, status orders.Status) ([]*orders.Order, error)
}

// Slice is one segment of the orders-by-status chart.
type Slice struct {
	Status  orders.Status
	Label   string
	Count   int
	Percent int
}

// Overview is everything the dashboard page shows.
type Overview struct {
	TotalUsers     int
	TotalInsurance int
	TotalOrders    int
	PendingOrders  int
	OrdersByStatus []Slice
	RecentUsers    []*users.User
	RecentOrders   []*orders.Order
}

type Service struct {
	users     UserLister
	companies CompanyLister
	orders    OrderLister
}

func NewService(u UserLister, c CompanyLister, o OrderLister) *Service {
	return &Service{users: u, companies: c, orders: o}
}

// Overview loads the three resources concurrently. The first failure
// cancels the others and is returned.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		us   []*users.User
		cs   []*insurance.Company
		ords []*orders.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		us, err = s.users.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		cs, err = s.companies.ListCompanies(gctx)
		return err
	})
	g.Go(func() (err error) {
		ords, err = s.orders.ListOrders(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(us, cs, ords), nil
}

func summarize(us []*users.User, cs []*insurance.Company, ords []*orders.Order) *Overview {
	counts := orders.CountByStatus(ords)
	ov := &Overview{
		TotalUsers:     len(us),
		TotalInsurance: len(cs),
		TotalOrders:    len(ords),
		PendingOrders:  counts.Pending,
		RecentUsers:    head(us, RecentLimit),
		RecentOrders:   head(ords, RecentLimit),
	}
	for _, st := range []orders.Status{orders.StatusApproved, orders.StatusPending, orders.StatusRejected} {
		sl := Slice{Status: st, Label: st.Label(), Count: counts.Count(st)}
		if counts.Total > 0 {
			sl.Percent = sl.Count * 100 / counts.Total
		}
		ov.OrdersByStatus = append(ov.OrdersByStatus, sl)
	}
	return ov
}

func head[T any](items []T, n int) []T {
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}
