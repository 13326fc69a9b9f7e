package database

import (
	"fmt"

	"github.com/daybook-dev/daybook/domain/repository"
	"gorm.io/gorm"
)

// ApplyOptions builds a repository.Query from the given options and
// applies it to a GORM session.
func ApplyOptions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	q := repository.Build(options...)

	db = applyConditions(db, q)

	for _, field := range q.Orders() {
		db = db.Order(field + " ASC")
	}

	return db
}

// ApplyConditions applies only WHERE conditions (no limit/offset/order),
// for COUNT queries.
func ApplyConditions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	return applyConditions(db, repository.Build(options...))
}

func applyConditions(db *gorm.DB, q repository.Query) *gorm.DB {
	for _, cond := range q.Conditions() {
		switch cond.Operator() {
		case repository.OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
		case repository.OpGreaterOrEqual:
			db = db.Where(fmt.Sprintf("%s >= ?", cond.Field()), cond.Value())
		case repository.OpLessOrEqual:
			db = db.Where(fmt.Sprintf("%s <= ?", cond.Field()), cond.Value())
		default:
			db = db.Where(fmt.Sprintf("%s = ?", cond.Field()), cond.Value())
		}
	}
	return db
}
