// Package query translates HTTP-style query strings into SQL fetch plans.
// Filtering, sorting, field selection and pagination compose in a fixed
// order against a per-collection column whitelist, so only known fields and
// known comparison operators ever reach the database.
package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// Op is a typed comparison operator. Operator suffixes from the query
// string map onto this closed set; nothing else is ever interpolated.
type Op string

const (
	OpEq  Op = "="
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="
)

var opSuffixes = map[string]Op{
	"gt":  OpGT,
	"gte": OpGTE,
	"lt":  OpLT,
	"lte": OpLTE,
}

// reservedKeys never participate in filtering.
var reservedKeys = map[string]bool{
	"page":   true,
	"limit":  true,
	"fields": true,
	"sort":   true,
}

var filterKeyRegex = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\[([a-z]+)\]$`)

const (
	DefaultLimit = 5
	MaxLimit     = 100
)

type Condition struct {
	Field string
	Op    Op
	Value string
}

// Fixed is a server-side base condition applied outside the client filter,
// e.g. a nested-route scope or a soft-delete guard. Its column is trusted.
type Fixed struct {
	Column string
	Op     Op
	Value  any
}

type SortField struct {
	Field string
	Desc  bool
}

// Description is the parsed, store-agnostic form of a request query.
type Description struct {
	Filters []Condition
	Sort    []SortField
	Include []string
	Exclude []string
	Page    int
	Limit   int
	// Paged records that the client asked for an explicit page, which makes
	// out-of-range pages an error instead of an empty list.
	Paged bool
}

// Parse builds a Description from raw URL query values.
// Filter keys use the form `field=value` for equality or `field[op]=value`
// with op one of gt, gte, lt, lte. Unknown operators are rejected.
func Parse(values url.Values) (*Description, error) {
	d := &Description{Page: 1, Limit: DefaultLimit}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values.Get(key)
		if reservedKeys[key] {
			continue
		}

		if m := filterKeyRegex.FindStringSubmatch(key); m != nil {
			op, ok := opSuffixes[m[2]]
			if !ok {
				return nil, apperrors.InvalidInput(key, "unknown filter operator "+m[2])
			}
			d.Filters = append(d.Filters, Condition{Field: m[1], Op: op, Value: value})
			continue
		}

		d.Filters = append(d.Filters, Condition{Field: key, Op: OpEq, Value: value})
	}

	for _, field := range splitList(values.Get("sort")) {
		if name, ok := strings.CutPrefix(field, "-"); ok {
			d.Sort = append(d.Sort, SortField{Field: name, Desc: true})
		} else {
			d.Sort = append(d.Sort, SortField{Field: field})
		}
	}

	for _, field := range splitList(values.Get("fields")) {
		if name, ok := strings.CutPrefix(field, "-"); ok {
			d.Exclude = append(d.Exclude, name)
		} else {
			d.Include = append(d.Include, field)
		}
	}
	if len(d.Include) > 0 && len(d.Exclude) > 0 {
		return nil, apperrors.ValidationError("Cannot mix included and excluded fields in one request")
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, apperrors.InvalidInput("page", "must be a positive integer")
		}
		d.Page = page
		d.Paged = true
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, apperrors.InvalidInput("limit", "must be a positive integer")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		d.Limit = limit
	}

	return d, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
