package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kbukum/todoapi/store"
)

// RegisterRequest creates an account, through /auth/register or POST /users.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=100,username"`
	FullName string `json:"full_name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

// LoginRequest accepts a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserUpdate changes only the fields present in the body.
type UserUpdate struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Username *string `json:"username" binding:"omitempty,min=3,max=100,username"`
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=255"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse is one page of users.
type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// TodoCreate adds a todo for the caller. Priority defaults to medium.
type TodoCreate struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// TodoUpdate changes only the fields present in the body. An explicit null
// description clears it.
type TodoUpdate struct {
	Title       *string        `json:"title" binding:"omitempty,min=1,max=255"`
	Description NullableString `json:"description"`
	IsCompleted *bool          `json:"is_completed"`
	Priority    *string        `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// TodoResponse is the public view of a todo.
type TodoResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    string    `json:"priority"`
	IsCompleted bool      `json:"is_completed"`
	UserID      uint      `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoListResponse is one page of the caller's todos.
type TodoListResponse struct {
	Todos    []TodoResponse `json:"todos"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// PageQuery selects a page of a list.
type PageQuery struct {
	Page     int `form:"page,default=1" binding:"gte=1"`
	PageSize int `form:"page_size,default=10" binding:"gte=1,lte=100"`
}

func (q PageQuery) store() store.Page {
	return store.Page{Number: q.Page, Size: q.PageSize}
}

// TodoListQuery adds the completion filter to PageQuery.
type TodoListQuery struct {
	PageQuery
	Completed *bool `form:"completed"`
}

// NullableString tells an absent field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON runs only for fields present in the body.
func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func todoResponse(t *store.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		IsCompleted: t.IsCompleted,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
