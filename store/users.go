package store

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/kbukum/todoapi/database"
)

const userResource = "User"

// UserStore persists users.
type UserStore struct {
	db *database.DB
}

// NewUserStore creates a UserStore over db.
func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u and fills its id and timestamps.
func (s *UserStore) Create(ctx context.Context, u *User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return database.FromDatabase(err, userResource, u.Email)
	}
	return nil
}

// FindByID loads one user. A missing row is a NOT_FOUND AppError.
func (s *UserStore) FindByID(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, database.FromDatabase(err, userResource, id)
	}
	return &u, nil
}

// FindByLogin looks a user up by username or email. It returns (nil, nil)
// when neither matches.
func (s *UserStore) FindByLogin(ctx context.Context, login string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).
		Where("username = ?", login).
		Or("email = ?", login).
		Order("id").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.FromDatabase(err, userResource, login)
	}
	return &u, nil
}

// EmailTaken reports whether another user than exceptID owns email.
// Pass 0 to check against every user.
func (s *UserStore) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return s.taken(ctx, "email", email, exceptID)
}

// UsernameTaken reports whether another user than exceptID owns username.
func (s *UserStore) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return s.taken(ctx, "username", username, exceptID)
}

func (s *UserStore) taken(ctx context.Context, column, value string, exceptID uint) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, database.FromDatabase(err, userResource, value)
	}
	return n > 0, nil
}

// List returns one page of users ordered by id and the total count.
func (s *UserStore) List(ctx context.Context, page Page) ([]User, int64, error) {
	users, total, err := findPage[User](s.db.WithContext(ctx).Model(&User{}), page, "id")
	if err != nil {
		return nil, 0, database.FromDatabase(err, userResource, nil)
	}
	return users, total, nil
}

// Update writes every column of u.
func (s *UserStore) Update(ctx context.Context, u *User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return database.FromDatabase(err, userResource, u.ID)
	}
	return nil
}

// Delete removes the user and its todos in one transaction.
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Todo{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return database.FromDatabase(err, userResource, id)
	}
	return nil
}

// LookupPrincipal resolves a token subject to a user. A subject that is not
// a user id, or names no user, is (nil, false, nil).
func (s *UserStore) LookupPrincipal(ctx context.Context, subject string) (*User, bool, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return nil, false, nil
	}
	var u User
	err = s.db.WithContext(ctx).First(&u, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}
