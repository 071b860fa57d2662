package api

import (
	"net/url"
	"strconv"
	"strings"

	"csvdataset/internal/dataset"
)

// ParsePageParams reads page and pageSize from q. Missing, non-numeric and
// non-positive values fall back to page 1 and size 10.
func ParsePageParams(q url.Values) (page, size int) {
	return positiveOr(q.Get("page"), dataset.DefaultPageNumber),
		positiveOr(q.Get("pageSize"), dataset.DefaultPageSize)
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
