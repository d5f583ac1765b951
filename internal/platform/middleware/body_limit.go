package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const defaultBodyLimit int64 = 1 << 20

var sizeUnits = []struct {
	suffix string
	shift  uint
}{
	{"GB", 30}, {"G", 30},
	{"MB", 20}, {"M", 20},
	{"KB", 10}, {"K", 10},
}

// BodyLimit caps request bodies. formLimit applies to url-encoded posts and
// uploadLimit to multipart submissions, which carry the company logo. Sizes
// read like "512K", "1M" or "2GB"; a bare number is bytes.
//
// An oversized body fails with a 413 HTTPError. Url-encoded posts are
// refused up front from Content-Length. Multipart bodies always reach the
// handler and fail only while being read, so the parts ahead of the cap can
// still be used to re-render the form.
func BodyLimit(formLimit, uploadLimit string) echo.MiddlewareFunc {
	formBytes := parseLimit(formLimit)
	uploadBytes := parseLimit(uploadLimit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			limit := formBytes
			multipart := isMultipart(req)
			if multipart {
				limit = uploadBytes
			}
			if !multipart && req.ContentLength > limit {
				return payloadTooLarge(limit)
			}
			req.Body = &cappedBody{ReadCloser: req.Body, left: limit, limit: limit}
			return next(c)
		}
	}
}

func isMultipart(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// cappedBody fails reads once more than limit bytes have come through.
type cappedBody struct {
	io.ReadCloser
	left  int64
	limit int64
	over  bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.over {
		return 0, payloadTooLarge(b.limit)
	}
	// one byte past the limit is enough to tell an exact fit from overflow
	if room := b.left + 1; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := b.ReadCloser.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		b.over = true
		return 0, payloadTooLarge(b.limit)
	}
	return n, err
}

func payloadTooLarge(limit int64) error {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("The submitted form exceeds the maximum size of %s.", formatLimit(limit)))
}

func formatLimit(n int64) string {
	for _, u := range []struct {
		name  string
		shift uint
	}{{"GB", 30}, {"MB", 20}, {"KB", 10}} {
		if unit := int64(1) << u.shift; n >= unit && n%unit == 0 {
			return strconv.FormatInt(n/unit, 10) + u.name
		}
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

// parseLimit turns a size string into bytes, falling back to 1MB when it
// is empty or malformed.
func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBodyLimit
	}
	var shift uint
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, shift = strings.TrimSuffix(s, u.suffix), u.shift
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return defaultBodyLimit
	}
	return n << shift
}
