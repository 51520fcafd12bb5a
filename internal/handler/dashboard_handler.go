package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	"github.com/xxxsen/civiclens/internal/pkg/response"
	"github.com/xxxsen/civiclens/internal/service"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Finance(c *gin.Context) {
	stats, err := h.dashboard.FinanceDashboard(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *DashboardHandler) News(c *gin.Context) {
	articles, err := h.dashboard.News(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"articles": articles})
}

func (h *DashboardHandler) Lobbying(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid year")
			return
		}
		year = v
	}
	summary, err := h.dashboard.Lobbying(c.Request.Context(), year)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *DashboardHandler) StateBills(c *gin.Context) {
	bills, err := h.dashboard.StateBills(c.Request.Context(), c.Query("jurisdiction"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"bills": bills})
}

func (h *DashboardHandler) MemberBills(c *gin.Context) {
	bills, err := h.dashboard.RepresentativeBills(c.Request.Context(), c.Param("bioguide"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"bills": bills})
}
