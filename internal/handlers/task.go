package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"
	"taskmanager/internal/query"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	registerValidators()
	return &TaskHandler{svc: svc}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// List godoc
// @Summary      List tasks
// @Description  Filtered, sorted and paginated listing. All sort fields are ascending.
// @Tags         tasks
// @Produce      json
// @Param        search     query     string  false  "Case-insensitive substring of title or description"
// @Param        category   query     string  false  "WORK, PERSONAL or LEARNING"
// @Param        priority   query     string  false  "HIGH, MEDIUM or LOW"
// @Param        completed  query     bool    false  "Completion state"
// @Param        page       query     int     false  "Zero-based page"  default(0)
// @Param        size       query     int     false  "Page size"        default(20)
// @Param        sort       query     string  false  "Comma separated fields"  default(priority,deadline)
// @Success      200  {object}  dto.Page[dto.TaskResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Update godoc
// @Summary      Replace a task
// @Description  Overwrites every field; a null "completed" keeps the stored value.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Task ID"
// @Param        body  body      dto.TaskRequest  true  "Task body"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listParams(c *gin.Context) (service.ListParams, error) {
	p := service.ListParams{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Sort:     c.DefaultQuery("sort", query.DefaultSort),
	}
	var err error
	if p.Page, err = intParam(c, "page", query.DefaultPage); err != nil {
		return p, err
	}
	if p.Size, err = intParam(c, "size", query.DefaultSize); err != nil {
		return p, err
	}
	if raw := strings.TrimSpace(c.Query("completed")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return p, invalidParam("completed", raw)
		}
		p.Completed = &b
	}
	return p, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, raw)
	}
	return n, nil
}

func invalidParam(name, raw string) error {
	return fmt.Errorf("%w: parameter %s=%q", dom.ErrInvalidArgument, name, raw)
}
