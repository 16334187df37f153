package store

import "gorm.io/gorm"

// Page limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects one page of a list, 1-based.
type Page struct {
	Number int
	Size   int
}

// normalize clamps the page into range.
func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped.
func (p Page) Offset() int {
	p = p.normalize()
	return (p.Number - 1) * p.Size
}

// scope applies offset and limit.
func (p Page) scope(db *gorm.DB) *gorm.DB {
	p = p.normalize()
	return db.Offset(p.Offset()).Limit(p.Size)
}

// findPage counts the rows matched by q and loads one page of them.
func findPage[T any](q *gorm.DB, page Page, order string) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0)
	if total == 0 {
		return items, 0, nil
	}
	if err := q.Order(order).Scopes(page.scope).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
