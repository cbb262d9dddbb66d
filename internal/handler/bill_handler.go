package handler

import (
	"net/http"
	"time"

	"posserver/internal/middleware"
	"posserver/internal/service"
	"posserver/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillHandler struct {
	billService service.BillService
}

func NewBillHandler(billService service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// RegisterRoutes binds the bill endpoints; all of them require auth
func (h *BillHandler) RegisterRoutes(router *gin.RouterGroup) {
	bills := router.Group("/bills", middleware.RequireAuth())
	{
		bills.POST("", h.CreateBill)
		bills.GET("", h.ListBills)
		bills.GET("/summary", h.Summary)
		bills.GET("/:id", h.GetBill)
	}
}

// CreateBill persists a new immutable bill with its line items
// @Summary      Create a bill
// @Description  Computes GST totals, allocates the next monthly bill number and stores the bill atomically
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBillRequest  true  "Bill Payload"
// @Success      201      {object}  response.Response{data=model.Bill}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req service.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), userID, req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bill))
}

// ListBills returns bills newest-first, optionally filtered
// @Summary      List bills
// @Description  Returns bills with items, newest first, filtered by inclusive date range and/or creator
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        from       query     string  false  "Start date (YYYY-MM-DD or RFC3339)"
// @Param        to         query     string  false  "End date (YYYY-MM-DD or RFC3339)"
// @Param        createdBy  query     string  false  "Creator user id"
// @Success      200        {object}  response.Response{data=[]model.Bill}
// @Failure      400        {object}  response.Response
// @Failure      401        {object}  response.Response
// @Router       /bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	var filter service.BillFilter

	from, ok := parseTimeParam(c, "from", false)
	if !ok {
		return
	}
	filter.From = from

	to, ok := parseTimeParam(c, "to", true)
	if !ok {
		return
	}
	filter.To = to

	if createdBy := c.Query("createdBy"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid createdBy"))
			return
		}
		filter.CreatedBy = &id
	}

	bills, err := h.billService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bills))
}

// Summary aggregates bills over a date range
// @Summary      Bill summary
// @Description  Returns bill count, gross revenue, tax collected and discount given for a date range
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Start date (YYYY-MM-DD or RFC3339)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD or RFC3339)"
// @Success      200   {object}  response.Response{data=service.SummaryResponse}
// @Failure      400   {object}  response.Response
// @Failure      401   {object}  response.Response
// @Router       /bills/summary [get]
func (h *BillHandler) Summary(c *gin.Context) {
	from, ok := parseTimeParam(c, "from", false)
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, "to", true)
	if !ok {
		return
	}

	start := time.Time{}
	if from != nil {
		start = *from
	}
	end := time.Now()
	if to != nil {
		end = *to
	}

	summary, err := h.billService.Summary(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetBill returns a single bill with its items
// @Summary      Get a bill
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=model.Bill}
// @Failure      404  {object}  response.Response
// @Router       /bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Bill not found"))
		return
	}

	bill, err := h.billService.GetByID(c.Request.Context(), id)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, message(err, status)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// parseTimeParam reads a date query param as YYYY-MM-DD or RFC3339. Date-only
// "to" bounds are pushed to end-of-day so the range stays inclusive.
func parseTimeParam(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}

	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" date"))
	return nil, false
}
