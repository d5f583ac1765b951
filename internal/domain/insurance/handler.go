package insurance

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
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
	g.GET("/insurance", h.List)
	g.GET("/insurance/new", h.New)
	g.POST("/insurance", h.Create)
	g.GET("/insurance/:id/edit", h.Edit)
	g.POST("/insurance/:id", h.Update)
	g.POST("/insurance/:id/delete", h.Delete)
	g.POST("/insurance/:id/status", h.SetStatus)
	g.GET("/insurance/:id/preview", h.Preview)
	g.POST("/insurance/:id/preview", h.CheckPreview)
}

// -- List --

type listView struct {
	Page pagination.Page[*Company]
}

func (h *Handler) List(c echo.Context) error {
	companies, err := h.svc.ListCompanies(c.Request().Context())
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance companies", "/")
	}
	p := pagination.FromContext(c)
	page := pagination.Paginate(companies, p, func(co *Company) bool {
		return p.Matches(co.Name, co.Description)
	})
	return web.Render(c, http.StatusOK, "insurance_list", "Insurance Companies", listView{Page: page})
}

// -- Create / edit --

type rowView struct {
	Index     int
	Entry     Entry
	KeyError  string
	TypeError string
}

type formView struct {
	ID             string
	IsEdit         bool
	Form           *RecordForm
	Rows           []rowView
	CountLabel     string
	ValueTypes     []ValueType
	LogoPreview    string
	StagedLogo     string
	StagedLogoName string
	LogoError      string
	Validated      bool
}

func (h *Handler) New(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, "", NewRecordForm(nil), "", false)
}

func (h *Handler) Edit(c echo.Context) error {
	id := c.Param("id")
	company, err := h.svc.GetCompany(c.Request().Context(), id)
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance company", "/insurance")
	}
	return h.renderForm(c, http.StatusOK, id, NewRecordForm(company), "", false)
}

func (h *Handler) Create(c echo.Context) error {
	return h.save(c, "")
}

func (h *Handler) Update(c echo.Context) error {
	return h.save(c, c.Param("id"))
}

// save handles every post of the company form. _action selects an editing
// step (add-field, remove-field:<i>, remove-image) that re-renders the form;
// without it the form is validated and submitted.
func (h *Handler) save(c echo.Context, id string) error {
	values, logo, err := formValues(c)
	logoErr := ""
	switch {
	case isTooLarge(err):
		// the body ran past the upload cap; keep what was posted ahead of it
		logoErr = ErrLogoTooLarge.Error()
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}

	f := FormFromValues(values)
	validated := values.Get("validated") == "1"

	if logo != nil {
		if err := f.StageUpload(logo); err != nil {
			if errors.Is(err, ErrLogoTooLarge) {
				logoErr = err.Error()
			} else {
				h.logger.Warn().Err(err).Msg("stage logo")
				logoErr = "Could not read the selected image"
			}
		}
	}

	action := values.Get("_action")
	switch {
	case action == "add-field":
		added := f.Editor.AddField()
		if validated {
			f.Editor.Validate()
			delete(f.Editor.errors, added.ID)
		}
		return h.renderForm(c, http.StatusOK, id, f, logoErr, validated)
	case strings.HasPrefix(action, "remove-field:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(action, "remove-field:"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid field index")
		}
		if err := f.Editor.RemoveField(idx); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if validated {
			f.Editor.Validate()
		}
		return h.renderForm(c, http.StatusOK, id, f, logoErr, validated)
	case action == "remove-image":
		f.RemoveLogo()
		return h.renderForm(c, http.StatusOK, id, f, "", validated)
	}

	if logoErr != "" {
		notify.Error(c, logoErr)
		return h.renderForm(c, http.StatusUnprocessableEntity, id, f, logoErr, validated)
	}

	payload, ok := f.Submit()
	if !ok {
		return h.renderForm(c, http.StatusUnprocessableEntity, id, f, "", true)
	}

	ctx := c.Request().Context()
	if id == "" {
		_, err = h.svc.CreateCompany(ctx, payload)
	} else {
		_, err = h.svc.UpdateCompany(ctx, id, payload)
	}
	if err != nil {
		fallback := "Failed to create insurance company"
		if id != "" {
			fallback = "Failed to update insurance company"
		}
		if apiclient.IsUnauthorized(err) {
			return web.Fail(c, err, fallback, c.Request().URL.Path)
		}
		notify.Failure(c, err, fallback)
		return h.renderForm(c, web.StatusFor(err), id, f, "", true)
	}

	if id == "" {
		notify.Success(c, "Insurance company created successfully")
	} else {
		notify.Success(c, "Insurance company updated successfully")
	}
	return c.Redirect(http.StatusSeeOther, "/insurance")
}

func (h *Handler) renderForm(c echo.Context, status int, id string, f *RecordForm, logoErr string, validated bool) error {
	entries := f.Editor.Entries()
	rows := make([]rowView, len(entries))
	for i, en := range entries {
		errs := f.Editor.ErrorFor(en.ID)
		rows[i] = rowView{Index: i, Entry: en, KeyError: errs.Key, TypeError: errs.Type}
	}

	v := formView{
		ID:          id,
		IsEdit:      id != "",
		Form:        f,
		Rows:        rows,
		CountLabel:  f.Editor.CountLabel(),
		ValueTypes:  ValueTypes,
		LogoPreview: f.LogoPreview(),
		LogoError:   logoErr,
		Validated:   validated,
	}
	if s := f.Staged(); s != nil {
		v.StagedLogo = s.DataURL()
		v.StagedLogoName = s.Filename
	}

	title := "Add New Insurance Company"
	if v.IsEdit {
		title = "Edit Insurance Company"
	}
	return web.Render(c, status, "insurance_form", title, v)
}

// -- Delete / status --

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.DeleteCompany(c.Request().Context(), c.Param("id")); err != nil {
		return web.Fail(c, err, "Failed to delete insurance company", "/insurance")
	}
	notify.Success(c, "Insurance company deleted successfully")
	return c.Redirect(http.StatusSeeOther, "/insurance")
}

func (h *Handler) SetStatus(c echo.Context) error {
	active, err := parseActive(c.FormValue("isActive"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "isActive must be true or false")
	}
	back := backTo(c, "/insurance")
	if err := h.svc.SetCompanyActive(c.Request().Context(), c.Param("id"), active); err != nil {
		return web.Fail(c, err, "Failed to update status", back)
	}
	notify.Success(c, "Status updated successfully")
	return c.Redirect(http.StatusSeeOther, back)
}

// -- Card preview (fill mode) --

type previewView struct {
	Company  *Company
	Controls []Control
	Values   []FieldValue
	Checked  bool
}

func (h *Handler) Preview(c echo.Context) error {
	company, err := h.svc.GetCompany(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance company", "/insurance")
	}
	vf := NewValueForm(company.Fields)
	return web.Render(c, http.StatusOK, "insurance_preview", company.Name,
		previewView{Company: company, Controls: vf.Controls(false)})
}

// CheckPreview validates sample card values against the company schema.
// Nothing is sent to the API.
func (h *Handler) CheckPreview(c echo.Context) error {
	company, err := h.svc.GetCompany(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.Fail(c, err, "Failed to load insurance company", "/insurance")
	}
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}

	vf := NewValueForm(company.Fields)
	vf.Bind(params)
	values, ok := vf.Validate()

	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	return web.Render(c, status, "insurance_preview", company.Name, previewView{
		Company:  company,
		Controls: vf.Controls(false),
		Values:   values,
		Checked:  ok,
	})
}

// maxTextPart bounds one non-file part of the company form. The largest is
// the staged logo carried as a data: URL.
const maxTextPart = 3 << 20

// formValues returns the posted values and the uploaded logo for both
// multipart and urlencoded submissions.
func formValues(c echo.Context) (url.Values, *Upload, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return readMultipart(req)
	}
	v, err := c.FormParams()
	return v, nil, err
}

// readMultipart streams the form part by part. The image part is read up to
// one byte past MaxLogoSize; a larger file stops the read there, so values
// posted ahead of it are still returned. The form template places the file
// input after every other control.
func readMultipart(req *http.Request) (url.Values, *Upload, error) {
	values := url.Values{}
	mr, err := req.MultipartReader()
	if err != nil {
		return values, nil, err
	}

	var logo *Upload
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return values, logo, nil
		}
		if err != nil {
			return values, logo, err
		}
		name := part.FormName()
		if name == "" {
			continue
		}

		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxTextPart+1))
			if err != nil {
				return values, logo, err
			}
			if len(b) > maxTextPart {
				return values, logo, echo.NewHTTPError(http.StatusRequestEntityTooLarge)
			}
			values.Add(name, string(b))
			continue
		}
		if name != "image" {
			continue
		}

		up := &Upload{Filename: part.FileName(), ContentType: part.Header.Get(echo.HeaderContentType)}
		up.Data, err = io.ReadAll(io.LimitReader(part, MaxLogoSize+1))
		if err != nil && !isTooLarge(err) {
			return values, logo, err
		}
		if err != nil || len(up.Data) > MaxLogoSize {
			up.Data = nil
			up.TooLarge = true
			return values, up, nil
		}
		if len(up.Data) > 0 {
			logo = up
		}
	}
}

func isTooLarge(err error) bool {
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge
}

// backTo returns the posted "back" path when it is local, else fallback.
func backTo(c echo.Context, fallback string) string {
	back := c.FormValue("back")
	if strings.HasPrefix(back, "/") && !strings.HasPrefix(back, "//") {
		return back
	}
	return fallback
}
