package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/store"
)

func (h *Handler) createTodo(c *gin.Context) {
	me, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req TodoCreate
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	t := &store.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    store.Priority(req.Priority),
		UserID:      me.ID,
	}
	ctx := c.Request.Context()
	if err := h.Todos.Create(ctx, t); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(ctx).Info("Todo created", logger.Fields(
		"todo_id", t.ID,
		logger.FieldUserID, me.ID,
	))
	server.RespondCreated(c, todoResponse(t))
}

func (h *Handler) listTodos(c *gin.Context) {
	me, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var q TodoListQuery
	if err := bindQuery(c, &q); err != nil {
		server.RespondWithError(c, err)
		return
	}

	todos, total, err := h.Todos.ListByOwner(c.Request.Context(), me.ID, q.Completed, q.store())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	resp := TodoListResponse{
		Todos:    make([]TodoResponse, 0, len(todos)),
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	for i := range todos {
		resp.Todos = append(resp.Todos, todoResponse(&todos[i]))
	}
	server.RespondOK(c, resp)
}

func (h *Handler) getTodo(c *gin.Context) {
	t, ok := h.ownedTodo(c, "access")
	if !ok {
		return
	}
	server.RespondOK(c, todoResponse(t))
}

func (h *Handler) updateTodo(c *gin.Context) {
	t, ok := h.ownedTodo(c, "modify")
	if !ok {
		return
	}
	var req TodoUpdate
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	var updated []string
	if req.Title != nil {
		t.Title = *req.Title
		updated = append(updated, "title")
	}
	if req.Description.Set {
		t.Description = req.Description.Value
		updated = append(updated, "description")
	}
	if req.IsCompleted != nil {
		t.IsCompleted = *req.IsCompleted
		updated = append(updated, "is_completed")
	}
	if req.Priority != nil {
		t.Priority = store.Priority(*req.Priority)
		updated = append(updated, "priority")
	}

	ctx := c.Request.Context()
	if len(updated) > 0 {
		if err := h.Todos.Update(ctx, t); err != nil {
			server.RespondWithError(c, err)
			return
		}
	}
	h.log.WithContext(ctx).Info("Todo updated", logger.Fields(
		"todo_id", t.ID,
		"updated_fields", updated,
	))
	server.RespondOK(c, todoResponse(t))
}

func (h *Handler) deleteTodo(c *gin.Context) {
	t, ok := h.ownedTodo(c, "delete")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Todos.Delete(ctx, t.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(ctx).Info("Todo deleted", logger.Fields("todo_id", t.ID))
	server.RespondNoContent(c)
}

// ownedTodo loads the todo named by the path and checks the caller owns it.
// Missing is 404, someone else's is 403. On failure the response is written
// and ok is false.
func (h *Handler) ownedTodo(c *gin.Context, action string) (*store.Todo, bool) {
	id, err := pathID(c, "todo_id")
	if err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	me, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	t, err := h.Todos.Get(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	if t.UserID != me.ID {
		server.RespondWithError(c, apperrors.Forbidden("You don't have permission to "+action+" this todo"))
		return nil, false
	}
	return t, true
}
