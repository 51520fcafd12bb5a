package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	"github.com/xxxsen/civiclens/internal/pkg/response"
	"github.com/xxxsen/civiclens/internal/service"
)

type BillHandler struct {
	index *service.IndexService
}

func NewBillHandler(index *service.IndexService) *BillHandler {
	return &BillHandler{index: index}
}

func (h *BillHandler) Get(c *gin.Context) {
	congress, err := strconv.Atoi(c.Param("congress"))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid congress")
		return
	}
	bill, err := h.index.GetBill(c.Request.Context(), congress, c.Param("type"), c.Param("number"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bill)
}

func (h *BillHandler) IndexStats(c *gin.Context) {
	response.Success(c, h.index.Stats())
}
