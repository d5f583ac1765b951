package users

import (
	"net/http"
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
	g.GET("/users", h.List)
	g.GET("/users/:id", h.Detail)
	g.POST("/users/:id", h.Update)
	g.POST("/users/:id/delete", h.Delete)
	g.POST("/users/:id/points", h.SetPoints)
}

type listView struct {
	Page pagination.Page[*User]
}

func (h *Handler) List(c echo.Context) error {
	all, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return web.Fail(c, err, "Failed to load users", "/")
	}
	p := pagination.FromContext(c)
	page := pagination.Paginate(all, p, func(u *User) bool {
		return p.Matches(u.Name, u.Email)
	})
	return web.Render(c, http.StatusOK, "users_list", "Users", listView{Page: page})
}

type detailView struct {
	User        *User
	Profile     Profile
	Errors      map[string]string
	Points      string
	PointsError string
	EditPoints  bool
	Genders     []string
}

func (h *Handler) Detail(c echo.Context) error {
	u, err := h.svc.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.Fail(c, err, "Failed to load user", "/users")
	}
	return h.renderDetail(c, http.StatusOK, detailView{
		User:       u,
		Profile:    profileOf(u),
		EditPoints: c.QueryParam("edit") == "points",
	})
}

func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	p := Profile{
		Name:   strings.TrimSpace(c.FormValue("name")),
		Email:  strings.TrimSpace(c.FormValue("email")),
		Phone:  strings.TrimSpace(c.FormValue("phone")),
		Gender: strings.TrimSpace(c.FormValue("gender")),
	}

	u, err := h.svc.GetUser(ctx, id)
	if err != nil {
		return web.Fail(c, err, "Failed to load user", "/users")
	}
	if errs := ValidateProfile(p); len(errs) > 0 {
		return h.renderDetail(c, http.StatusUnprocessableEntity, detailView{User: u, Profile: p, Errors: errs})
	}

	if _, err := h.svc.UpdateUser(ctx, id, p); err != nil {
		if apiclient.IsUnauthorized(err) {
			return web.Fail(c, err, "Failed to update user", "/users/"+id)
		}
		notify.Failure(c, err, "Failed to update user")
		return h.renderDetail(c, web.StatusFor(err), detailView{User: u, Profile: p})
	}
	notify.Success(c, "User updated successfully")
	return c.Redirect(http.StatusSeeOther, "/users/"+id)
}

func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return web.Fail(c, err, "Failed to delete user", "/users")
	}
	notify.Success(c, "User deleted successfully")
	return c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) SetPoints(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	raw := c.FormValue("points")

	points, perr := ParsePoints(raw)
	if perr != nil {
		u, err := h.svc.GetUser(ctx, id)
		if err != nil {
			return web.Fail(c, err, "Failed to load user", "/users")
		}
		return h.renderDetail(c, http.StatusUnprocessableEntity, detailView{
			User:        u,
			Profile:     profileOf(u),
			Points:      raw,
			PointsError: "Points must be a whole number of zero or more",
			EditPoints:  true,
		})
	}

	if err := h.svc.SetPoints(ctx, id, points); err != nil {
		return web.Fail(c, err, "Failed to update points", "/users/"+id)
	}
	notify.Success(c, "Points updated successfully")
	return c.Redirect(http.StatusSeeOther, "/users/"+id)
}

func (h *Handler) renderDetail(c echo.Context, status int, v detailView) error {
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	v.Genders = Genders
	return web.Render(c, status, "user_detail", v.User.DisplayName(), v)
}

func profileOf(u *User) Profile {
	return Profile{Name: u.Name, Email: u.Email, Phone: u.Phone, Gender: u.Gender}
}
