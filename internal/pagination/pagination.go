// Package pagination computes page results and the prev/next links of
// list responses.
package pagination

import (
	"math"
	"net/url"
	"strconv"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
)

// Result is one page of a filtered listing.
type Result[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
	HasPrev  bool
	HasNext  bool
}

func NewResult[T any](items []T, total int64, page, pageSize int) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		HasNext:  hasNext(page, pageSize, total),
	}
}

// ValidPage reports whether page is at least 1 and its offset fits in an int.
func ValidPage(page, pageSize int) bool {
	return page >= constants.MinPage && pageSize > 0 && page-1 <= math.MaxInt/pageSize
}

// Offset is the number of matches that precede the page. page must be
// valid for pageSize.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// hasNext reports page*pageSize < total without overflowing.
func hasNext(page, pageSize int, total int64) bool {
	if !ValidPage(page, pageSize) {
		return false
	}
	return int64(Offset(page, pageSize)) < total-int64(pageSize)
}

// ParsePage reads the page query value. An absent value is the first
// page; anything that is not an integer >= 1 is INVALID_PAGE.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return constants.DefaultPage, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || !ValidPage(page, constants.PageSize) {
		return 0, domainerrors.WithMessage(domainerrors.ErrInvalidPage,
			"page must be a positive integer, got %q", raw)
	}
	return page, nil
}

// Links holds the neighbouring page URLs; nil encodes as JSON null.
type Links struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// BuildLinks re-encodes every original parameter, first value per key and
// sentinel values included, replacing only page.
func BuildLinks(baseRoute string, params url.Values, page, pageSize int, total int64) Links {
	var links Links
	if page > 1 {
		links.Prev = link(baseRoute, params, page-1)
	}
	if hasNext(page, pageSize, total) {
		links.Next = link(baseRoute, params, page+1)
	}
	return links
}

func link(baseRoute string, params url.Values, page int) *string {
	q := make(url.Values, len(params)+1)
	for k, vs := range params {
		if len(vs) > 0 {
			q.Set(k, vs[0])
		} else {
			q.Set(k, "")
		}
	}
	q.Set(constants.QueryParamPage, strconv.Itoa(page))

	s := baseRoute + "?" + q.Encode()
	return &s
}
