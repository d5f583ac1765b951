package orders

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/notify"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
	"github.com/healthcare/admin-dashboard/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.List)
	g.GET("/orders/:id", h.Detail)
	g.POST("/orders/:id/status", h.UpdateStatus)
	g.POST("/orders/:id/approve", h.Approve)
	g.POST("/orders/:id/reject", h.Reject)
	g.POST("/orders/:id/notes", h.SaveNotes)
}

type filterTab struct {
	Value  string
	Label  string
	Count  int
	Active bool
}

type listView struct {
	Page   pagination.Page[*Order]
	Tabs   []filterTab
	Status string
	Extra  url.Values
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	status, _ := ParseStatus(c.QueryParam("status"))

	items, err := h.svc.ListOrders(ctx, status)
	if err != nil {
		return web.Fail(c, err, "Failed to load orders", "/")
	}

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return web.Fail(c, err, "Failed to load orders", "/orders")
		}
		h.logger.Warn().Err(err).Msg("order stats unavailable")
		if status == "" {
			stats = CountByStatus(items)
		}
	}

	p := pagination.FromContext(c)
	page := pagination.Paginate(items, p, func(o *Order) bool {
		return p.Matches(o.MedicineName, o.CustomerName()) || (p.Search != "" && strings.Contains(o.ID(), p.Search))
	})

	v := listView{Page: page, Status: string(status)}
	v.Tabs = append(v.Tabs, filterTab{Value: "", Label: "All", Count: stats.Total, Active: status == ""})
	for _, st := range Statuses {
		v.Tabs = append(v.Tabs, filterTab{Value: string(st), Label: st.Label(), Count: stats.Count(st), Active: st == status})
	}
	if status != "" {
		v.Extra = url.Values{"status": {string(status)}}
	}
	return web.Render(c, http.StatusOK, "orders_list", "Medicine Orders", v)
}

type detailView struct {
	Order      *Order
	Notes      string
	NotesError string
	Statuses   []Status
}

func (h *Handler) Detail(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	o, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		return web.Fail(c, err, "Failed to load order", "/orders")
	}

	notes, err := h.svc.Notes(ctx, id)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return web.Fail(c, err, "Failed to load order", "/orders/"+id)
		}
		h.logger.Debug().Err(err).Str("order_id", id).Msg("notes endpoint unavailable, using order payload")
		notes = o.AdminNotes
	}
	return h.renderDetail(c, http.StatusOK, detailView{Order: o, Notes: notes})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	status, ok := ParseStatus(c.FormValue("status"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, status); err != nil {
		return web.Fail(c, err, "Failed to update order status", "/orders/"+id)
	}
	notify.Success(c, "Order status updated successfully")
	return c.Redirect(http.StatusSeeOther, "/orders/"+id)
}

func (h *Handler) Approve(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.Approve(c.Request().Context(), id); err != nil {
		return h.decisionFailed(c, err, "Failed to approve order", id)
	}
	notify.Success(c, "Order approved successfully")
	return c.Redirect(http.StatusSeeOther, "/orders/"+id)
}

func (h *Handler) Reject(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.Reject(c.Request().Context(), id); err != nil {
		return h.decisionFailed(c, err, "Failed to reject order", id)
	}
	notify.Success(c, "Order rejected successfully")
	return c.Redirect(http.StatusSeeOther, "/orders/"+id)
}

func (h *Handler) decisionFailed(c echo.Context, err error, fallback, id string) error {
	if errors.Is(err, ErrNotPending) {
		notify.Error(c, "Only pending orders can be approved or rejected")
		return c.Redirect(http.StatusSeeOther, "/orders/"+id)
	}
	return web.Fail(c, err, fallback, "/orders/"+id)
}

func (h *Handler) SaveNotes(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	notes := strings.TrimSpace(c.FormValue("adminNotes"))

	if len([]rune(notes)) > MaxNotesLength {
		o, err := h.svc.GetOrder(ctx, id)
		if err != nil {
			return web.Fail(c, err, "Failed to load order", "/orders")
		}
		return h.renderDetail(c, http.StatusUnprocessableEntity, detailView{
			Order:      o,
			Notes:      notes,
			NotesError: "Notes must be at most 2000 characters",
		})
	}

	if err := h.svc.SaveNotes(ctx, id, notes); err != nil {
		return web.Fail(c, err, "Failed to save notes", "/orders/"+id)
	}
	notify.Success(c, "Notes saved successfully")
	return c.Redirect(http.StatusSeeOther, "/orders/"+id)
}

func (h *Handler) renderDetail(c echo.Context, status int, v detailView) error {
	v.Statuses = Statuses
	return web.Render(c, status, "order_detail", "Order #"+v.Order.ShortID(), v)
}
