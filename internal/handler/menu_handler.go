package handler

import (
	"net/http"

	"posserver/internal/middleware"
	"posserver/internal/model"
	"posserver/internal/service"
	"posserver/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MenuHandler struct {
	menuService service.MenuService
}

func NewMenuHandler(menuService service.MenuService) *MenuHandler {
	return &MenuHandler{menuService: menuService}
}

// RegisterRoutes binds the menu endpoints; reads are public, writes admin-only
func (h *MenuHandler) RegisterRoutes(router *gin.RouterGroup) {
	menu := router.Group("/menu")
	{
		menu.GET("", h.ListMenuItems)

		admin := menu.Group("", middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("", h.CreateMenuItem)
			admin.PATCH("/:id", h.UpdateMenuItem)
			admin.DELETE("/:id", h.DeleteMenuItem)
		}
	}
}

// ListMenuItems returns all menu items ordered by name
// @Summary      List menu items
// @Tags         menu
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.MenuItem}
// @Router       /menu [get]
func (h *MenuHandler) ListMenuItems(c *gin.Context) {
	items, err := h.menuService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreateMenuItem adds a dish to the menu
// @Summary      Create menu item
// @Tags         menu
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMenuItemRequest  true  "Menu Item"
// @Success      201      {object}  response.Response{data=model.MenuItem}
// @Failure      400      {object}  response.Response
// @Router       /menu [post]
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var req service.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.menuService.Create(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateMenuItem patches fields on a menu item
// @Summary      Update menu item
// @Tags         menu
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Menu Item ID"
// @Param        payload  body      service.UpdateMenuItemRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=model.MenuItem}
// @Failure      404      {object}  response.Response
// @Router       /menu/{id} [patch]
func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Menu item not found"))
		return
	}

	var req service.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.menuService.Update(c.Request.Context(), id, req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteMenuItem removes a menu item (historical bills keep their snapshots)
// @Summary      Delete menu item
// @Tags         menu
// @Security     BearerAuth
// @Param        id  path  string  true  "Menu Item ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Router       /menu/{id} [delete]
func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Menu item not found"))
		return
	}

	if err := h.menuService.Delete(c.Request.Context(), id); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.Status(http.StatusNoContent)
}
