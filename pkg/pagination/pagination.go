package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Params holds the page, page size and search text of a list request.
type Params struct {
	Page    int
	PerPage int
	Search  string
}

// FromContext extracts list parameters from the query string. Pages are
// 1-based.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(c.QueryParam("limit"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Params{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(c.QueryParam("q")),
	}
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Matches reports whether any of fields contains the search text, ignoring
// case. An empty search matches everything.
func (p Params) Matches(fields ...string) bool {
	if p.Search == "" {
		return true
	}
	needle := strings.ToLower(p.Search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Page is one page of a filtered list.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
	Search     string
}

// Paginate filters items with keep and slices out the requested page. A
// page past the end is clamped to the last page.
func Paginate[T any](items []T, p Params, keep func(T) bool) Page[T] {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	filtered := items
	if keep != nil && p.Search != "" {
		filtered = make([]T, 0, len(items))
		for _, it := range items {
			if keep(it) {
				filtered = append(filtered, it)
			}
		}
	}

	total := len(filtered)
	pages := (total + p.PerPage - 1) / p.PerPage
	if pages == 0 {
		pages = 1
	}
	if p.Page > pages {
		p.Page = pages
	}

	start := p.Offset()
	end := start + p.PerPage
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      filtered[start:end],
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
		Search:     p.Search,
	}
}

func (pg Page[T]) HasNext() bool { return pg.Page < pg.TotalPages }

func (pg Page[T]) HasPrevious() bool { return pg.Page > 1 }

func (pg Page[T]) NextPage() int { return pg.Page + 1 }

func (pg Page[T]) PreviousPage() int {
	if pg.Page <= 1 {
		return 1
	}
	return pg.Page - 1
}

// FirstItem is the 1-based index of the first item shown, 0 when empty.
func (pg Page[T]) FirstItem() int {
	if pg.Total == 0 {
		return 0
	}
	return (pg.Page-1)*pg.PerPage + 1
}

// LastItem is the 1-based index of the last item shown.
func (pg Page[T]) LastItem() int {
	return (pg.Page-1)*pg.PerPage + len(pg.Items)
}

// Link builds a list URL for page, keeping the search text and any extra
// filters.
func (pg Page[T]) Link(basePath string, page int, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if pg.Search != "" {
		q.Set("q", pg.Search)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return basePath
	}
	return basePath + "?" + q.Encode()
}
