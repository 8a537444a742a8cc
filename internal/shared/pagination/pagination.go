// Package pagination implements page arithmetic for list endpoints.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"feature-voting-backend/internal/shared/apperror"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultLimit = 100
	MaxLimit     = 1000
)

// ozzo threshold rules skip zero values, so zero is rejected explicitly
var positive = validation.Required.Error("must be no less than 1")

// Params is a page/page_size request
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p Params) Validate() error {
	return apperror.FromValidation(validation.ValidateStruct(&p,
		validation.Field(&p.Page, positive, validation.Min(1)),
		validation.Field(&p.PageSize, positive, validation.Min(1), validation.Max(MaxPageSize)),
	))
}

// Offset is the number of rows to skip. It saturates at math.MaxInt
// so a page far past the end still yields an empty window.
func (p Params) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Window is a skip/limit request
type Window struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

func (w Window) Validate() error {
	return apperror.FromValidation(validation.ValidateStruct(&w,
		validation.Field(&w.Skip, validation.Min(0)),
		validation.Field(&w.Limit, positive, validation.Min(1), validation.Max(MaxLimit)),
	))
}

// Page is the envelope returned by paginated list endpoints
type Page[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"total_count"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// TotalPages is ceil(total/pageSize), never less than 1
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := TotalPages(total, p.PageSize)
	return Page[T]{
		Items:       items,
		TotalCount:  total,
		Page:        p.Page,
		PageSize:    p.PageSize,
		TotalPages:  pages,
		HasNext:     p.Page < pages,
		HasPrevious: p.Page > 1,
	}
}

// ParseParams reads page and page_size from the query string.
// Every malformed or out-of-range field is reported in a single Validation error.
func ParseParams(q url.Values) (Params, error) {
	fields := map[string]string{}
	p := Params{
		Page:     queryInt(q, "page", DefaultPage, fields),
		PageSize: queryInt(q, "page_size", DefaultPageSize, fields),
	}
	return p, collect(fields, p.Validate())
}

// ParseWindow reads skip and limit from the query string
func ParseWindow(q url.Values) (Window, error) {
	fields := map[string]string{}
	w := Window{
		Skip:  queryInt(q, "skip", 0, fields),
		Limit: queryInt(q, "limit", DefaultLimit, fields),
	}
	return w, collect(fields, w.Validate())
}

func queryInt(q url.Values, key string, def int, fields map[string]string) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fields[key] = "must be a valid integer"
		return def
	}
	return v
}

func collect(fields map[string]string, rangeErr error) error {
	if rangeErr != nil {
		for k, v := range apperror.As(rangeErr).Fields {
			if _, parsed := fields[k]; !parsed {
				fields[k] = v
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperror.NewValidation(fields)
}
