package query

import (
	"fmt"
	"strings"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// Spec describes one queryable collection: its table, the mapping from API
// field names to columns, and defaults. Only mapped fields can be filtered,
// sorted or projected.
type Spec struct {
	Table    string
	IDColumn string
	// Columns maps API field names to column names, in declaration order.
	Columns []Column
	// Bookkeeping names the API field excluded from default projections.
	Bookkeeping string
	// DefaultSort applies when the request carries no sort spec.
	DefaultSort []SortField
}

type Column struct {
	Field  string
	Column string
}

func (s Spec) column(field string) (string, bool) {
	for _, c := range s.Columns {
		if c.Field == field {
			return c.Column, true
		}
	}
	return "", false
}

// Plan is a fully composed filter+sort+projection+pagination description
// ready for execution against the store.
type Plan struct {
	Table   string
	Columns []string
	Where   []string
	Args    []any
	OrderBy []string
	Limit   int
	Offset  int
	Page    int
	Paged   bool
}

// SelectSQL renders the data query.
func (p *Plan) SelectSQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(p.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(p.Table)
	if len(p.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.Where, " AND "))
	}
	if len(p.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(p.OrderBy, ", "))
	}
	b.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset))
	return b.String()
}

// CountSQL renders the matching count query, sharing the filter and args.
func (p *Plan) CountSQL() string {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(p.Table)
	if len(p.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.Where, " AND "))
	}
	return b.String()
}

// Builder composes a Plan in the fixed order filter, sort, field selection,
// pagination. Each step returns the builder for chaining; the first error
// sticks and surfaces at Build.
type Builder struct {
	spec Spec
	desc *Description
	plan *Plan
	err  error
}

func New(spec Spec, desc *Description) *Builder {
	return &Builder{
		spec: spec,
		desc: desc,
		plan: &Plan{Table: spec.Table},
	}
}

// Where adds a fixed conjunct outside the client-supplied filter, e.g. a
// nested-route base filter or a soft-delete guard. The column is trusted.
func (b *Builder) Where(column string, op Op, value any) *Builder {
	if b.err != nil {
		return b
	}
	b.plan.Args = append(b.plan.Args, value)
	b.plan.Where = append(b.plan.Where, fmt.Sprintf("%s %s $%d", column, op, len(b.plan.Args)))
	return b
}

// Filter applies the client filter conditions conjunctively. Order of
// application does not matter.
func (b *Builder) Filter() *Builder {
	if b.err != nil {
		return b
	}
	for _, cond := range b.desc.Filters {
		column, ok := b.spec.column(cond.Field)
		if !ok {
			b.err = apperrors.InvalidInput(cond.Field, "unknown filter field")
			return b
		}
		b.plan.Args = append(b.plan.Args, cond.Value)
		b.plan.Where = append(b.plan.Where, fmt.Sprintf("%s %s $%d", column, cond.Op, len(b.plan.Args)))
	}
	return b
}

// Sort applies the requested sort, or the spec default when absent.
func (b *Builder) Sort() *Builder {
	if b.err != nil {
		return b
	}
	fields := b.desc.Sort
	if len(fields) == 0 {
		fields = b.spec.DefaultSort
	}
	for _, f := range fields {
		column, ok := b.spec.column(f.Field)
		if !ok {
			b.err = apperrors.InvalidInput(f.Field, "unknown sort field")
			return b
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		b.plan.OrderBy = append(b.plan.OrderBy, column+" "+dir)
	}
	return b
}

// LimitFields applies the projection. An inclusion list projects exactly
// those fields plus the identifier; an exclusion list drops the named
// fields; the default drops only the bookkeeping field.
func (b *Builder) LimitFields() *Builder {
	if b.err != nil {
		return b
	}

	switch {
	case len(b.desc.Include) > 0:
		b.plan.Columns = append(b.plan.Columns, b.spec.IDColumn)
		for _, field := range b.desc.Include {
			column, ok := b.spec.column(field)
			if !ok {
				b.err = apperrors.InvalidInput(field, "unknown field")
				return b
			}
			if column != b.spec.IDColumn {
				b.plan.Columns = append(b.plan.Columns, column)
			}
		}
	case len(b.desc.Exclude) > 0:
		dropped := make(map[string]bool, len(b.desc.Exclude))
		for _, field := range b.desc.Exclude {
			if _, ok := b.spec.column(field); !ok {
				b.err = apperrors.InvalidInput(field, "unknown field")
				return b
			}
			dropped[field] = true
		}
		for _, c := range b.spec.Columns {
			if !dropped[c.Field] {
				b.plan.Columns = append(b.plan.Columns, c.Column)
			}
		}
	default:
		for _, c := range b.spec.Columns {
			if c.Field != b.spec.Bookkeeping {
				b.plan.Columns = append(b.plan.Columns, c.Column)
			}
		}
	}
	return b
}

// Paginate converts page and limit into skip = limit * (page-1).
func (b *Builder) Paginate() *Builder {
	if b.err != nil {
		return b
	}
	b.plan.Limit = b.desc.Limit
	b.plan.Offset = b.desc.Limit * (b.desc.Page - 1)
	b.plan.Page = b.desc.Page
	b.plan.Paged = b.desc.Paged
	return b
}

// Build materializes the plan.
func (b *Builder) Build() (*Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.plan.Columns) == 0 {
		// callers may skip LimitFields; fall back to the default projection
		b.LimitFields()
	}
	if b.plan.Limit == 0 {
		b.Paginate()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.plan, nil
}
