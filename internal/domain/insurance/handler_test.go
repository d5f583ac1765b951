package insurance

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/middleware"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
)

type fakeAPI struct {
	mu      sync.Mutex
	calls   int
	created *multipart.Form
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/insurance":
		_, _ = w.Write([]byte(`{"data":[{"_id":"c1","name":"Acme Health","isActive":true,"fields":[]},{"_id":"c2","name":"Blue Shield","isActive":false}]}`))
	case r.Method == http.MethodGet && r.URL.Path == "/insurance/c1":
		_, _ = w.Write([]byte(`{"_id":"c1","name":"Acme Health","isActive":true,"fields":[` +
			`{"key":"policyNumber","label":"","valueType":"string","required":true},` +
			`{"key":"coverage","label":"","valueType":"number","required":false}]}`))
	case r.Method == http.MethodPost && r.URL.Path == "/insurance":
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.created = r.MultipartForm
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"c3","name":"New Co"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestEcho(t *testing.T) (*echo.Echo, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, zerolog.Nop())
	NewHandler(NewService(NewAPIRepo(client)), zerolog.Nop()).RegisterRoutes(e.Group(""))
	return e, api
}

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_List(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/insurance?q=blue", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blue Shield")
	assert.NotContains(t, rec.Body.String(), "Acme Health")
}

func TestHandler_CreateInvalidMakesNoCalls(t *testing.T) {
	e, api := newTestEcho(t)

	rec := postForm(e, "/insurance", url.Values{
		"name":          {""},
		"isActive":      {"true"},
		"fields[0].key": {""},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Company name is required")
	assert.Contains(t, body, "Key is required")
	assert.Equal(t, 0, api.callCount())
}

func TestHandler_AddFieldRerenders(t *testing.T) {
	e, api := newTestEcho(t)

	rec := postForm(e, "/insurance", url.Values{
		"name":          {"Acme"},
		"fields[0].key": {"policyNumber"},
		"_action":       {"add-field"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 fields defined")
	assert.Contains(t, rec.Body.String(), `name="fields[1].key"`)
	assert.Equal(t, 0, api.callCount())
}

func TestHandler_RemoveFieldRerenders(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := postForm(e, "/insurance", url.Values{
		"name":          {"Acme"},
		"fields[0].key": {"first"},
		"fields[1].key": {"second"},
		"_action":       {"remove-field:0"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 field defined")
	assert.Contains(t, rec.Body.String(), `value="second"`)
	assert.NotContains(t, rec.Body.String(), `value="first"`)
}

func TestHandler_CreateSubmitsMultipart(t *testing.T) {
	e, api := newTestEcho(t)

	rec := postForm(e, "/insurance", url.Values{
		"name":                {"New Co"},
		"description":         {"Regional insurer"},
		"isActive":            {"true"},
		"fields[0].key":       {"policyNumber"},
		"fields[0].valueType": {"string"},
		"fields[0].required":  {"true"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/insurance", rec.Header().Get("Location"))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.NotNil(t, api.created)
	assert.Equal(t, []string{"New Co"}, api.created.Value["name"])
	assert.Equal(t, []string{"true"}, api.created.Value["isActive"])
	assert.JSONEq(t, `[{"key":"policyNumber","label":"","valueType":"string","required":true}]`, api.created.Value["fields"][0])
	assert.Empty(t, api.created.File["image"])
}

func TestHandler_OversizedLogoRejected(t *testing.T) {
	e, api := newTestEcho(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "Acme"))
	fw, err := w.CreateFormFile("image", "big.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{'x'}, MaxLogoSize+1))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/insurance", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image size must be less than 2MB")
	assert.Equal(t, 0, api.callCount())
}

func TestHandler_PreviewBlankRequired(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := postForm(e, "/insurance/c1/preview", url.Values{
		"values[0-policyNumber]": {""},
		"values[1-coverage]":     {"250"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, `class="field-error"`))
	assert.Contains(t, body, "Policy Number is required")
	assert.Contains(t, body, `value="250"`)
}

func TestHandler_PreviewValid(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := postForm(e, "/insurance/c1/preview", url.Values{
		"values[0-policyNumber]": {"PN-1"},
		"values[1-coverage]":     {"-1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coverage must be positive")

	rec = postForm(e, "/insurance/c1/preview", url.Values{
		"values[0-policyNumber]": {"PN-1"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "All values are valid")
}

func TestHandler_EditUnknownCompany(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/insurance/missing/edit", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/insurance", rec.Header().Get("Location"))
}

// firstSubmitButton returns the opening tag of the first submit button in
// the company form.
func firstSubmitButton(t *testing.T, body string) string {
	t.Helper()
	form := strings.Index(body, `enctype="multipart/form-data"`)
	require.GreaterOrEqual(t, form, 0, "company form not rendered")
	body = body[form:]
	start := strings.Index(body, `<button type="submit"`)
	require.GreaterOrEqual(t, start, 0, "no submit button rendered")
	end := strings.Index(body[start:], ">")
	require.Greater(t, end, 0)
	return body[start : start+end+1]
}

func TestHandler_EnterKeySubmitsForm(t *testing.T) {
	cases := map[string]url.Values{
		"fields only": {
			"name":          {"Acme"},
			"fields[0].key": {"policyNumber"},
			"_action":       {"add-field"},
		},
		"with logo": {
			"name":          {"Acme"},
			"existingLogo":  {"https://cdn.example.com/acme.png"},
			"fields[0].key": {"policyNumber"},
			"_action":       {"add-field"},
		},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEcho(t)
			rec := postForm(e, "/insurance", form)
			require.Equal(t, http.StatusOK, rec.Code)

			body := rec.Body.String()
			assert.Contains(t, body, `value="remove-field:0"`)
			first := firstSubmitButton(t, body)
			assert.NotContains(t, first, "_action")
			assert.Contains(t, first, "hidden")
		})
	}

	e, _ := newTestEcho(t)
	rec := postForm(e, "/insurance", cases["with logo"])
	assert.Contains(t, rec.Body.String(), `value="remove-image"`)
}

func TestHandler_UnknownValueTypeKeptSelected(t *testing.T) {
	e, api := newTestEcho(t)

	rec := postForm(e, "/insurance", url.Values{
		"name":                {"Acme"},
		"fields[0].key":       {"member"},
		"fields[0].valueType": {"boolean"},
		"_action":             {"add-field"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="boolean" selected>boolean (unsupported)</option>`)

	rec = postForm(e, "/insurance", url.Values{
		"name":                {"Acme"},
		"fields[0].key":       {"member"},
		"fields[0].valueType": {"boolean"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Choose a supported type")
	assert.Equal(t, 0, api.callCount())
}

func TestHandler_LogoPastUploadCapKeepsFields(t *testing.T) {
	e, api := newTestEcho(t)
	e.Use(middleware.BodyLimit("1M", "4M"))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "Acme Health"))
	require.NoError(t, w.WriteField("fields[0].key", "policyNumber"))
	require.NoError(t, w.WriteField("fields[0].valueType", "number"))
	fw, err := w.CreateFormFile("image", "huge.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{'x'}, 5<<20))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/insurance", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Image size must be less than 2MB")
	assert.Contains(t, page, `value="Acme Health"`)
	assert.Contains(t, page, `value="policyNumber"`)
	assert.Contains(t, page, `<option value="number" selected>`)
	assert.Equal(t, 0, api.callCount())
}
