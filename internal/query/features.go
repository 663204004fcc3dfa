// Package query turns URL query parameters into storage-agnostic retrieval
// requests: filters, sort order, projection and pagination.
package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpGte Operator = "gte"
	OpGt  Operator = "gt"
	OpLte Operator = "lte"
	OpLt  Operator = "lt"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "created_at"
)

var (
	reservedParams = map[string]struct{}{
		"page":   {},
		"sort":   {},
		"limit":  {},
		"fields": {},
	}

	comparisonKey = regexp.MustCompile(`^(.+)\[(gte|gt|lte|lt)\]$`)

	operatorOrder = map[Operator]int{OpEq: 0, OpGte: 1, OpGt: 2, OpLte: 3, OpLt: 4}
)

type Condition struct {
	Field string
	Op    Operator
	Value string
}

type SortField struct {
	Field string
	Desc  bool
}

// Request is the fully specified retrieval request handed to a repository.
// A zero Take means no limit.
type Request struct {
	Filters []Condition
	Sort    []SortField
	Fields  []string
	Skip    int
	Take    int
}

// Features accumulates a Request. Every step returns a new value and leaves
// the receiver untouched.
type Features struct {
	values url.Values
	req    Request
}

func New(values url.Values) Features {
	copied := make(url.Values, len(values))
	for k, v := range values {
		copied[k] = append([]string(nil), v...)
	}
	return Features{values: copied}
}

// FromValues applies every step in the usual order.
func FromValues(values url.Values) Request {
	return New(values).Filter().Sort().LimitFields().Paginate().Request()
}

func (f Features) Filter() Features {
	conds := make([]Condition, 0, len(f.values))
	for key := range f.values {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		value, ok := f.last(key)
		if !ok {
			continue
		}

		cond := Condition{Field: key, Op: OpEq, Value: value}
		if m := comparisonKey.FindStringSubmatch(key); m != nil {
			cond.Field = m[1]
			cond.Op = Operator(m[2])
		}
		conds = append(conds, cond)
	}

	sort.Slice(conds, func(i, j int) bool {
		if conds[i].Field != conds[j].Field {
			return conds[i].Field < conds[j].Field
		}
		return operatorOrder[conds[i].Op] < operatorOrder[conds[j].Op]
	})

	f.req.Filters = conds
	return f
}

func (f Features) Sort() Features {
	var fields []SortField
	if raw, ok := f.last("sort"); ok {
		for _, part := range splitList(raw) {
			desc := strings.HasPrefix(part, "-")
			name := strings.TrimPrefix(part, "-")
			if name == "" {
				continue
			}
			fields = append(fields, SortField{Field: name, Desc: desc})
		}
	}
	if len(fields) == 0 {
		fields = []SortField{{Field: DefaultSort, Desc: true}}
	}

	f.req.Sort = fields
	return f
}

func (f Features) LimitFields() Features {
	var fields []string
	if raw, ok := f.last("fields"); ok {
		seen := make(map[string]struct{})
		for _, name := range splitList(raw) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			fields = append(fields, name)
		}
	}

	f.req.Fields = fields
	return f
}

func (f Features) Paginate() Features {
	page := f.positiveInt("page", DefaultPage)
	limit := f.positiveInt("limit", DefaultLimit)

	// Pages past the addressable range saturate to an empty page.
	if page-1 > math.MaxInt/limit {
		f.req.Skip = math.MaxInt
	} else {
		f.req.Skip = (page - 1) * limit
	}
	f.req.Take = limit
	return f
}

// Request returns a copy of the accumulated request.
func (f Features) Request() Request {
	req := f.req
	req.Filters = append([]Condition(nil), f.req.Filters...)
	req.Sort = append([]SortField(nil), f.req.Sort...)
	req.Fields = append([]string(nil), f.req.Fields...)
	return req
}

// last applies the last-value-wins rule for repeated parameters.
func (f Features) last(key string) (string, bool) {
	vals := f.values[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

func (f Features) positiveInt(key string, fallback int) int {
	raw, ok := f.last(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
