package listingquery

import (
	"strings"

	"gorm.io/gorm"
)

// Kind tags the shape of a predicate.
type Kind int

const (
	Equal Kind = iota
	Range
	SubstringAny
)

// Predicate is one condition of the WHERE clause. Values are always bound,
// never spliced into the SQL text.
type Predicate struct {
	Kind    Kind
	Columns []string
	Op      string // ">=" or "<=", Range only
	Value   interface{}
}

// SQL renders the predicate with "?" placeholders and its bound values.
func (p Predicate) SQL() (string, []interface{}) {
	switch p.Kind {
	case Range:
		return p.Columns[0] + " " + p.Op + " ?", []interface{}{p.Value}
	case SubstringAny:
		parts := make([]string, len(p.Columns))
		args := make([]interface{}, len(p.Columns))
		for i, col := range p.Columns {
			parts[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = p.Value
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	default:
		return p.Columns[0] + " = ?", []interface{}{p.Value}
	}
}

var sortOrders = map[Sort]string{
	SortNewest:    "l.created_at DESC",
	SortOldest:    "l.created_at ASC",
	SortPriceAsc:  "l.price ASC",
	SortPriceDesc: "l.price DESC",
}

// Plan is the query derived from a Filter.
type Plan struct {
	Predicates []Predicate
	OrderBy    []string
	Limit      int
	Offset     int
	ViewerID   uint
}

// Build turns a filter into a plan. The active-listing predicate is always first.
func Build(f Filter) Plan {
	preds := []Predicate{{Kind: Equal, Columns: []string{"l.is_active"}, Value: true}}

	if f.OwnerID != 0 {
		preds = append(preds, Predicate{Kind: Equal, Columns: []string{"l.user_id"}, Value: f.OwnerID})
	}
	if f.CategoryID != 0 {
		preds = append(preds, Predicate{Kind: Equal, Columns: []string{"l.category_id"}, Value: f.CategoryID})
	}
	if f.Search != "" {
		preds = append(preds, Predicate{
			Kind:    SubstringAny,
			Columns: []string{"l.title", "l.description"},
			Value:   "%" + escapeLike(strings.ToLower(f.Search)) + "%",
		})
	}
	if f.IsFree != nil {
		preds = append(preds, Predicate{Kind: Equal, Columns: []string{"l.is_free"}, Value: *f.IsFree})
	}
	if f.Condition != "" {
		preds = append(preds, Predicate{Kind: Equal, Columns: []string{"l.condition_type"}, Value: f.Condition})
	}
	if f.MinPrice != nil {
		preds = append(preds, Predicate{Kind: Range, Columns: []string{"l.price"}, Op: ">=", Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		preds = append(preds, Predicate{Kind: Range, Columns: []string{"l.price"}, Op: "<=", Value: *f.MaxPrice})
	}

	limit, offset := Clamp(f.Limit, f.Offset)
	return Plan{
		Predicates: preds,
		OrderBy:    []string{sortOrders[ParseSort(string(f.Sort))], "l.id DESC"},
		Limit:      limit,
		Offset:     offset,
		ViewerID:   f.ViewerID,
	}
}

// Where applies every predicate. Both the page query and the count query go
// through here so their row sets agree.
func (p Plan) Where(db *gorm.DB) *gorm.DB {
	for _, pred := range p.Predicates {
		sql, args := pred.SQL()
		db = db.Where(sql, args...)
	}
	return db
}

// Annotate left-joins the viewer's favorites. It adds a column, never a filter.
func (p Plan) Annotate(db *gorm.DB) *gorm.DB {
	if p.ViewerID == 0 {
		return db
	}
	return db.Joins("LEFT JOIN favorites f ON f.listing_id = l.id AND f.user_id = ?", p.ViewerID)
}

// Columns appends the is_favorited column when the plan has a viewer.
func (p Plan) Columns(base []string) []string {
	cols := append([]string{}, base...)
	if p.ViewerID != 0 {
		cols = append(cols, "f.user_id IS NOT NULL AS is_favorited")
	}
	return cols
}

// Page applies ordering, limit and offset.
func (p Plan) Page(db *gorm.DB) *gorm.DB {
	for _, o := range p.OrderBy {
		db = db.Order(o)
	}
	return db.Limit(p.Limit).Offset(p.Offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
