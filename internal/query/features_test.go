package query

import (
	"encoding/json"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "job-tracker/pkg/errors"
)

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestFromValues_Defaults(t *testing.T) {
	req := FromValues(url.Values{})

	assert.Empty(t, req.Filters)
	assert.Equal(t, []SortField{{Field: "created_at", Desc: true}}, req.Sort)
	assert.Nil(t, req.Fields)
	assert.Equal(t, 0, req.Skip)
	assert.Equal(t, 100, req.Take)
}

func TestFilter_ReservedKeysAreNotFilters(t *testing.T) {
	req := FromValues(mustParse(t, "page=2&sort=company&limit=5&fields=company&status=pending"))

	assert.Equal(t, []Condition{{Field: "status", Op: OpEq, Value: "pending"}}, req.Filters)
}

func TestFilter_ComparisonOperators(t *testing.T) {
	req := New(mustParse(t, "created_at[lt]=2024-02-01&created_at[gte]=2024-01-01&company=Acme")).Filter().Request()

	assert.Equal(t, []Condition{
		{Field: "company", Op: OpEq, Value: "Acme"},
		{Field: "created_at", Op: OpGte, Value: "2024-01-01"},
		{Field: "created_at", Op: OpLt, Value: "2024-02-01"},
	}, req.Filters)
}

func TestFilter_LastValueWins(t *testing.T) {
	req := FromValues(mustParse(t, "status=pending&status=interview&sort=company&sort=-position"))

	assert.Equal(t, []Condition{{Field: "status", Op: OpEq, Value: "interview"}}, req.Filters)
	assert.Equal(t, []SortField{{Field: "position", Desc: true}}, req.Sort)
}

func TestFilter_Deterministic(t *testing.T) {
	raw := "b=1&a[lte]=3&a[gt]=1&c=x&a=2"
	first := FromValues(mustParse(t, raw))
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, FromValues(mustParse(t, raw)))
	}
}

func TestSort_MultipleFields(t *testing.T) {
	req := New(mustParse(t, "sort=-status, company,,-")).Sort().Request()

	assert.Equal(t, []SortField{
		{Field: "status", Desc: true},
		{Field: "company", Desc: false},
	}, req.Sort)
}

func TestLimitFields_Dedupes(t *testing.T) {
	req := New(mustParse(t, "fields=company,position,company")).LimitFields().Request()

	assert.Equal(t, []string{"company", "position"}, req.Fields)
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		raw        string
		skip, take int
	}{
		{"", 0, 100},
		{"page=3", 200, 100},
		{"page=3&limit=10", 20, 10},
		{"page=0&limit=10", 0, 10},
		{"page=-4&limit=abc", 0, 100},
		{"page=x&limit=0", 0, 100},
		{"page=2&limit=25", 25, 25},
		{"page=100000000000000000&limit=100", math.MaxInt, 100},
		{"page=9223372036854775807&limit=9223372036854775807", math.MaxInt, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			req := New(mustParse(t, tc.raw)).Paginate().Request()
			assert.Equal(t, tc.skip, req.Skip)
			assert.Equal(t, tc.take, req.Take)
			assert.GreaterOrEqual(t, req.Skip, 0)
		})
	}
}

func TestFeatures_Immutable(t *testing.T) {
	values := mustParse(t, "status=pending&sort=company")
	base := New(values)
	filtered := base.Filter()
	sorted := filtered.Sort()

	values.Set("status", "decline")

	assert.Empty(t, base.Request().Filters)
	assert.Nil(t, filtered.Request().Sort)
	assert.Equal(t, "pending", sorted.Request().Filters[0].Value)

	req := sorted.Request()
	req.Filters[0].Value = "mutated"
	assert.Equal(t, "pending", sorted.Request().Filters[0].Value)
}

var testSchema = NewSchema(map[string]Column{
	"id":         {Name: "id", Kind: KindUUID},
	"company":    {Name: "company"},
	"created_by": {Name: "owner_id", Kind: KindUUID},
	"created_at": {Name: "created_at", Kind: KindTime},
}, "id", "owner_id")

func TestSchema_Validate(t *testing.T) {
	ok := FromValues(mustParse(t, "company=Acme&created_at[gte]=2024-01-01&sort=-company&fields=company"))
	assert.NoError(t, testSchema.Validate(ok))

	for _, raw := range []string{
		"salary=10",
		"sort=salary",
		"fields=company,password",
		"created_at[gte]=yesterday",
		"id=not-a-uuid",
	} {
		err := testSchema.Validate(FromValues(mustParse(t, raw)))
		require.Error(t, err, raw)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), raw)
	}
}

func TestSchema_Value(t *testing.T) {
	v, err := testSchema.Value("created_at", "2024-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v)

	id := uuid.New()
	v, err = testSchema.Value("created_by", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)

	v, err = testSchema.Value("company", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", v)
}

func TestSchema_Projection(t *testing.T) {
	cols, err := testSchema.Projection(nil)
	require.NoError(t, err)
	assert.Nil(t, cols)

	cols, err = testSchema.Projection([]string{"company", "created_by"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "owner_id", "company"}, cols)
}

func TestProject(t *testing.T) {
	type item struct {
		ID      string `json:"id"`
		Company string `json:"company"`
		Status  string `json:"status"`
	}

	out, err := Project([]item{{ID: "1", Company: "Acme", Status: "pending"}}, []string{"company"})
	require.NoError(t, err)
	list, ok := out.([]map[string]json.RawMessage)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Len(t, list[0], 2)
	assert.JSONEq(t, `"Acme"`, string(list[0]["company"]))
	assert.JSONEq(t, `"1"`, string(list[0]["id"]))

	single, err := Project(item{ID: "2", Company: "Beta", Status: "decline"}, []string{"status"})
	require.NoError(t, err)
	obj := single.(map[string]json.RawMessage)
	assert.Len(t, obj, 2)
	assert.Contains(t, obj, "status")

	same, err := Project(item{ID: "3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, item{ID: "3"}, same)
}
