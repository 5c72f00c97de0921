package listingquery

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sort is one of the fixed listing orderings.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// ParseSort maps a client value onto a known ordering; anything unknown is newest.
func ParseSort(raw string) Sort {
	switch s := Sort(raw); s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc:
		return s
	}
	return SortNewest
}

// Filter is the typed form of the listing query parameters. Zero values and
// nil pointers mean "not supplied".
type Filter struct {
	CategoryID uint
	Search     string
	IsFree     *bool
	Condition  string
	MinPrice   *float64
	MaxPrice   *float64
	OwnerID    uint
	ViewerID   uint
	Sort       Sort
	Limit      int
	Offset     int
}

// FromQuery reads a Filter from request query values. Values that do not
// parse are dropped rather than rejected.
func FromQuery(q url.Values) Filter {
	f := Filter{
		Search:    strings.TrimSpace(q.Get("search")),
		Condition: strings.TrimSpace(q.Get("condition")),
		Sort:      ParseSort(q.Get("sort")),
		Limit:     DefaultLimit,
	}

	if id, err := strconv.ParseUint(q.Get("category_id"), 10, 64); err == nil {
		f.CategoryID = uint(id)
	}
	if b, ok := parseBool(q.Get("is_free")); ok {
		f.IsFree = &b
	}
	f.MinPrice = parsePrice(q.Get("min_price"))
	f.MaxPrice = parsePrice(q.Get("max_price"))

	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil {
		f.Limit = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil {
		f.Offset = n
	}
	f.Limit, f.Offset = Clamp(f.Limit, f.Offset)
	return f
}

// Clamp bounds pagination: limit in [1, MaxLimit] (DefaultLimit when not
// positive) and offset non-negative.
func Clamp(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
