package handler

import (
	"net/http"

	"posserver/internal/middleware"
	"posserver/internal/model"
	"posserver/internal/service"
	"posserver/pkg/pagination"
	"posserver/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the staff-management endpoints, all admin-only
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users", middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.GET("/deleted", h.ListDeletedUsers)
		users.POST("", h.CreateUser)
		users.PATCH("/:id", h.UpdateUser)
		users.PATCH("/:id/password", h.SetPassword)
		users.PATCH("/:id/reactivate", h.ReactivateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers returns active staff accounts
// @Summary      List active users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]model.User}
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.listUsers(c, false)
}

// ListDeletedUsers returns deactivated accounts for reactivation management
// @Summary      List deactivated users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.User}
// @Router       /users/deleted [get]
func (h *UserHandler) ListDeletedUsers(c *gin.Context) {
	h.listUsers(c, true)
}

func (h *UserHandler) listUsers(c *gin.Context, deleted bool) {
	params := pagination.Parse(c)

	var (
		users []model.User
		total int64
		err   error
	)
	if deleted {
		users, total, err = h.userService.ListDeleted(c.Request.Context(), params.Page, params.Limit)
	} else {
		users, total, err = h.userService.ListActive(c.Request.Context(), params.Page, params.Limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CreateUser creates a staff account
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "User Payload"
// @Success      201      {object}  response.Response{data=service.PublicUser}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateUser patches name/email/role
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.PublicUser}
// @Failure      404      {object}  response.Response
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// SetPassword replaces a user's password
// @Summary      Set user password
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  string  true  "User ID"
// @Param        payload  body  service.SetPasswordRequest  true  "New password"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /users/{id}/password [patch]
func (h *UserHandler) SetPassword(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req service.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), id, req.Password); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"ok": true}))
}

// DeleteUser deactivates an account (soft delete) and revokes its refresh tokens
// @Summary      Deactivate user
// @Description  Flips is_deleted and purges the user's refresh tokens in one transaction
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.userService.SoftDelete(c.Request.Context(), id); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.Status(http.StatusNoContent)
}

// ReactivateUser restores a deactivated account
// @Summary      Reactivate user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.PublicUser}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /users/{id}/reactivate [patch]
func (h *UserHandler) ReactivateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.Reactivate(c.Request.Context(), id)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return uuid.Nil, false
	}
	return id, true
}
