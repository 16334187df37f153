package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbukum/todoapi/database"
)

const todoResource = "Todo"

// TodoStore persists todos.
type TodoStore struct {
	db *database.DB
}

// NewTodoStore creates a TodoStore over db.
func NewTodoStore(db *database.DB) *TodoStore {
	return &TodoStore{db: db}
}

// Create inserts t. An empty priority becomes medium.
func (s *TodoStore) Create(ctx context.Context, t *Todo) error {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return database.FromDatabase(err, todoResource, t.Title)
	}
	return nil
}

// Get loads one todo regardless of owner. Ownership is checked by callers so
// they can tell missing from forbidden.
func (s *TodoStore) Get(ctx context.Context, id uint) (*Todo, error) {
	var t Todo
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, database.FromDatabase(err, todoResource, id)
	}
	return &t, nil
}

// ListByOwner returns one page of the owner's todos, newest first. A non-nil
// completed filters on completion state.
func (s *TodoStore) ListByOwner(ctx context.Context, owner uint, completed *bool, page Page) ([]Todo, int64, error) {
	q := s.db.WithContext(ctx).Model(&Todo{}).Where("user_id = ?", owner)
	if completed != nil {
		q = q.Where("is_completed = ?", *completed)
	}
	todos, total, err := findPage[Todo](q, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, 0, database.FromDatabase(err, todoResource, nil)
	}
	return todos, total, nil
}

// Update writes every column of t.
func (s *TodoStore) Update(ctx context.Context, t *Todo) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return database.FromDatabase(err, todoResource, t.ID)
	}
	return nil
}

// Delete removes one todo.
func (s *TodoStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Todo{}, id)
	if res.Error != nil {
		return database.FromDatabase(res.Error, todoResource, id)
	}
	if res.RowsAffected == 0 {
		return database.FromDatabase(gorm.ErrRecordNotFound, todoResource, id)
	}
	return nil
}
