package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"job-tracker/internal/query"
)

var sqlOperators = map[query.Operator]string{
	query.OpEq:  "=",
	query.OpGte: ">=",
	query.OpGt:  ">",
	query.OpLte: "<=",
	query.OpLt:  "<",
}

// applyFeatures renders a query.Request onto db. Field names are resolved
// through schema, so only whitelisted columns ever reach the SQL text.
func applyFeatures(db *gorm.DB, schema query.Schema, req query.Request) (*gorm.DB, error) {
	for _, c := range req.Filters {
		col, err := schema.Column(c.Field)
		if err != nil {
			return nil, err
		}
		value, err := schema.Value(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		op, ok := sqlOperators[c.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		db = db.Where(fmt.Sprintf("%s %s ?", col.Name, op), value)
	}

	for _, s := range req.Sort {
		col, err := schema.Column(s.Field)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", col.Name, dir))
	}
	// stable pages when the sort key ties
	db = db.Order("id ASC")

	cols, err := schema.Projection(req.Fields)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		db = db.Select(cols)
	}

	if req.Skip > 0 {
		db = db.Offset(req.Skip)
	}
	if req.Take > 0 {
		db = db.Limit(req.Take)
	}
	return db, nil
}

// excludeInactive hides soft-deleted users.
func excludeInactive(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}
