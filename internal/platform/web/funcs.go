package web

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

var funcs = template.FuncMap{
	"date":     formatDate,
	"datetime": formatDateTime,
	"ago":      relativeTime,
	"lower":    strings.ToLower,
	"title":    titleCase,
	"add":      func(a, b int) int { return a + b },
	"safeURL":  safeURL,
	"pager":    pager,
}

// pager bundles a pagination.Page with the list path for the
// "pagination" partial.
func pager(page any, base string, extra ...url.Values) map[string]any {
	var q url.Values
	if len(extra) > 0 {
		q = extra[0]
	}
	return map[string]any{"Page": page, "Base": base, "Extra": q}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func formatDate(v any) string {
	t, ok := toTime(v)
	if !ok {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(v any) string {
	t, ok := toTime(v)
	if !ok {
		return "-"
	}
	return t.Format("Jan 2, 2006 15:04")
}

func relativeTime(v any) string {
	return relativeTo(v, time.Now())
}

func relativeTo(v any, now time.Time) string {
	t, ok := toTime(v)
	if !ok {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
	return formatDate(t)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// safeURL allows data: image previews and http(s) logo URLs in src
// attributes. Anything else is dropped.
func safeURL(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "/"):
		return template.URL(s)
	}
	return ""
}
