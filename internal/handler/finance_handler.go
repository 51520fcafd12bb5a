package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/finance"
	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	"github.com/xxxsen/civiclens/internal/pkg/response"
)

type FinanceHandler struct {
	aggregator *finance.Aggregator
}

func NewFinanceHandler(aggregator *finance.Aggregator) *FinanceHandler {
	return &FinanceHandler{aggregator: aggregator}
}

type moneyFlowRequest struct {
	CandidateID string `json:"candidateId"`
	Cycle       int    `json:"cycle"`
}

func (h *FinanceHandler) MoneyFlow(c *gin.Context) {
	var req moneyFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	graph, err := h.aggregator.GetMoneyFlowData(c.Request.Context(), req.CandidateID, req.Cycle)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, graph)
}
