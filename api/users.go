package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server"
)

func (h *Handler) createUser(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.createAccount(c, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Info("User created", logger.Fields(logger.FieldUserID, u.ID))
	server.RespondCreated(c, userResponse(u))
}

func (h *Handler) listUsers(c *gin.Context) {
	var q PageQuery
	if err := bindQuery(c, &q); err != nil {
		server.RespondWithError(c, err)
		return
	}
	users, total, err := h.Users.List(c.Request.Context(), q.store())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	resp := UserListResponse{
		Users:    make([]UserResponse, 0, len(users)),
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	for i := range users {
		resp.Users = append(resp.Users, userResponse(&users[i]))
	}
	server.RespondOK(c, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.Users.FindByID(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, userResponse(u))
}

// updateUser lets a user change their own account only.
func (h *Handler) updateUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	me, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if me.ID != id {
		server.RespondWithError(c, apperrors.Forbidden("You don't have permission to modify this user"))
		return
	}
	var req UserUpdate
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var updated []string
	if req.Email != nil && *req.Email != u.Email {
		taken, err := h.Users.EmailTaken(ctx, *req.Email, u.ID)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if taken {
			server.RespondWithError(c, apperrors.Conflict(fmt.Sprintf("Email '%s' is already in use", *req.Email)))
			return
		}
		u.Email = *req.Email
		updated = append(updated, "email")
	}
	if req.Username != nil && *req.Username != u.Username {
		taken, err := h.Users.UsernameTaken(ctx, *req.Username, u.ID)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		if taken {
			server.RespondWithError(c, apperrors.Conflict(fmt.Sprintf("Username '%s' is already taken", *req.Username)))
			return
		}
		u.Username = *req.Username
		updated = append(updated, "username")
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
		updated = append(updated, "full_name")
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
		updated = append(updated, "is_active")
	}

	if len(updated) > 0 {
		if err := h.Users.Update(ctx, u); err != nil {
			server.RespondWithError(c, err)
			return
		}
		h.invalidate(ctx, u.ID)
	}
	h.log.WithContext(ctx).Info("User updated", logger.Fields(
		logger.FieldUserID, u.ID,
		"updated_fields", updated,
	))
	server.RespondOK(c, userResponse(u))
}

// deleteUser removes the caller's own account and all of its todos.
func (h *Handler) deleteUser(c *gin.Context) {
	id, err := pathID(c, "user_id")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	me, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if me.ID != id {
		server.RespondWithError(c, apperrors.Forbidden("You don't have permission to delete this user"))
		return
	}

	ctx := c.Request.Context()
	if err := h.Users.Delete(ctx, id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.invalidate(ctx, id)
	h.log.WithContext(ctx).Info("User deleted", logger.Fields(logger.FieldUserID, id))
	server.RespondNoContent(c)
}
