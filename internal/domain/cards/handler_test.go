package cards

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
	"github.com/healthcare/admin-dashboard/internal/platform/web"
)

const cardsJSON = `{"data":[
  {"_id":"c1","user":{"_id":"u1","name":"Ada Lovelace","email":"ada@example.com"},
   "insuranceCompany":{"_id":"i1","name":"Blue Shield","fields":[{"key":"memberId","required":true}]},
   "values":[{"key":"memberId","value":"M-100"}]},
  {"_id":"c2","user":"u2","insuranceCompany":{"_id":"i2","name":"Acme Health"},"values":[]}
]}`

const cardJSON = `{"data":{"_id":"c1","user":{"_id":"u1","name":"Ada Lovelace"},
  "insuranceCompany":{"_id":"i1","name":"Blue Shield","fields":[
    {"key":"memberId","label":"Member ID","required":true},
    {"key":"groupNumber","required":true}]},
  "values":[{"key":"memberId","value":"M-100"},{"key":"legacyCode","value":"X9"}]}}`

func setup(t *testing.T) *echo.Echo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards":
			_, _ = w.Write([]byte(cardsJSON))
		case "/cards/c1":
			_, _ = w.Write([]byte(cardJSON))
		case "/cards/locked":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	e := echo.New()
	e.Renderer = renderer
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, zerolog.Nop())
	NewHandler(NewService(NewAPIRepo(client))).RegisterRoutes(e.Group(""))
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestList(t *testing.T) {
	e := setup(t)

	rec := get(e, "/cards")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "Acme Health")
	assert.Contains(t, body, "Complete")
}

func TestList_CompanyFilter(t *testing.T) {
	e := setup(t)

	rec := get(e, "/cards?company=i2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Ada Lovelace")
	assert.Contains(t, rec.Body.String(), "Acme Health")
	assert.Contains(t, rec.Body.String(), "All companies")
}

func TestDetail_RowsFollowSchema(t *testing.T) {
	e := setup(t)

	rec := get(e, "/cards/c1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Member ID")
	assert.Contains(t, body, "M-100")
	assert.Contains(t, body, "Group Number")
	assert.Contains(t, body, `class="missing"`)
	assert.Contains(t, body, "no longer in schema")
}

func TestDetail_Failures(t *testing.T) {
	e := setup(t)

	rec := get(e, "/cards/gone")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cards", rec.Header().Get("Location"))

	rec = get(e, "/cards/locked")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login?next=")
}
