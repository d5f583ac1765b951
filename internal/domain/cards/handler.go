package cards

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/healthcare/admin-dashboard/internal/platform/web"
	"github.com/healthcare/admin-dashboard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/cards", h.List)
	g.GET("/cards/:id", h.Detail)
}

type listView struct {
	Page    pagination.Page[*Card]
	Company string
	Extra   url.Values
}

func (h *Handler) List(c echo.Context) error {
	company := c.QueryParam("company")
	items, err := h.svc.ListCards(c.Request().Context(), company)
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance cards", "/")
	}
	p := pagination.FromContext(c)
	page := pagination.Paginate(items, p, func(card *Card) bool {
		return p.Matches(card.HolderName(), card.CompanyName())
	})
	v := listView{Page: page, Company: company}
	if company != "" {
		v.Extra = url.Values{"company": {company}}
	}
	return web.Render(c, http.StatusOK, "cards_list", "Insurance Cards", v)
}

type detailView struct {
	Card *Card
	Rows []Row
}

func (h *Handler) Detail(c echo.Context) error {
	card, err := h.svc.GetCard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance card", "/cards")
	}
	return web.Render(c, http.StatusOK, "card_detail", card.CompanyName()+" card", detailView{Card: card, Rows: card.Rows()})
}
