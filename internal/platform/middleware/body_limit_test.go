package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"1M":    1 << 20,
		"10mb":  10 << 20,
		"512K":  512 << 10,
		" 2GB ": 2 << 30,
		"1024":  1024,
		"":      defaultBodyLimit,
		"lots":  defaultBodyLimit,
		"-5K":   defaultBodyLimit,
	}
	for in, want := range tests {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatLimit(t *testing.T) {
	tests := map[int64]string{
		4 << 20:   "4MB",
		512 << 10: "512KB",
		1 << 30:   "1GB",
		1000:      "1000 bytes",
	}
	for in, want := range tests {
		if got := formatLimit(in); got != want {
			t.Errorf("formatLimit(%d) = %q, want %q", in, got, want)
		}
	}
}

// serveLimited runs body through BodyLimit into a handler that reads it
// completely.
func serveLimited(t *testing.T, contentType string, body []byte, unknownLength bool, form, upload string) (bool, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/insurance", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	if unknownLength {
		req.ContentLength = -1
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())

	reached := false
	err := BodyLimit(form, upload)(func(c echo.Context) error {
		reached = true
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)
	return reached, err
}

func assertTooLarge(t *testing.T, err error, want string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", he.Code)
	}
	if msg, _ := he.Message.(string); !strings.Contains(msg, want) {
		t.Errorf("expected %q in message, got %q", want, msg)
	}
}

func TestBodyLimit_FormWithinLimit(t *testing.T) {
	reached, err := serveLimited(t, echo.MIMEApplicationForm, []byte("name=Jane&email=jane%40example.com"), false, "1M", "10M")
	if err != nil || !reached {
		t.Fatalf("expected handler to read the body, reached=%v err=%v", reached, err)
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	reached, err := serveLimited(t, echo.MIMEApplicationForm, bytes.Repeat([]byte("x"), 2048), false, "1K", "10M")
	if reached {
		t.Error("handler should not run for an oversized form")
	}
	assertTooLarge(t, err, "1KB")
}

func TestBodyLimit_MultipartUsesUploadLimit(t *testing.T) {
	ct := echo.MIMEMultipartForm + "; boundary=xyz"
	body := bytes.Repeat([]byte("x"), 2048)

	if reached, err := serveLimited(t, ct, body, false, "1K", "10M"); err != nil || !reached {
		t.Fatalf("upload within its limit rejected: reached=%v err=%v", reached, err)
	}
	_, err := serveLimited(t, ct, body, false, "10M", "1K")
	assertTooLarge(t, err, "1KB")
}

func TestBodyLimit_EnforcedWhileReading(t *testing.T) {
	reached, err := serveLimited(t, echo.MIMEApplicationForm, bytes.Repeat([]byte("a"), 1024), true, "512", "10M")
	if !reached {
		t.Fatal("handler should run when the length is unknown")
	}
	assertTooLarge(t, err, "512 bytes")
}

func TestBodyLimit_ExactFit(t *testing.T) {
	_, err := serveLimited(t, echo.MIMEApplicationForm, bytes.Repeat([]byte("a"), 512), true, "512", "10M")
	if err != nil {
		t.Fatalf("a body of exactly the limit should pass: %v", err)
	}
}

func TestBodyLimit_SkipsEmptyBody(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/users", nil), httptest.NewRecorder())
	called := false
	err := BodyLimit("1", "1")(func(echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("GET without a body should pass, called=%v err=%v", called, err)
	}
}

func TestBodyLimit_OversizedMultipartReachesHandler(t *testing.T) {
	ct := echo.MIMEMultipartForm + "; boundary=xyz"
	body := append([]byte("name=Acme;"), bytes.Repeat([]byte("x"), 4096)...)

	var head []byte
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/insurance", bytes.NewReader(body)), httptest.NewRecorder())
	c.Request().Header.Set(echo.HeaderContentType, ct)
	err := BodyLimit("10M", "1K")(func(c echo.Context) error {
		buf := make([]byte, 10)
		if _, err := io.ReadFull(c.Request().Body, buf); err != nil {
			return err
		}
		head = buf
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)

	if string(head) != "name=Acme;" {
		t.Errorf("expected the parts ahead of the cap to be readable, got %q", head)
	}
	assertTooLarge(t, err, "1KB")
}
