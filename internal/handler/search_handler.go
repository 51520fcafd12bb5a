package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	"github.com/xxxsen/civiclens/internal/pkg/response"
	"github.com/xxxsen/civiclens/internal/search"
)

type SearchHandler struct {
	orchestrator *search.Orchestrator
}

func NewSearchHandler(orchestrator *search.Orchestrator) *SearchHandler {
	return &SearchHandler{orchestrator: orchestrator}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req search.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	resp, err := h.orchestrator.Search(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
