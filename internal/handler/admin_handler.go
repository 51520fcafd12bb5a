package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/job"
	"github.com/xxxsen/civiclens/internal/middleware"
	"github.com/xxxsen/civiclens/internal/pkg/response"
)

type JobTrigger interface {
	Trigger(name string) error
}

type AdminHandler struct {
	jobs JobTrigger
}

func NewAdminHandler(jobs JobTrigger) *AdminHandler {
	return &AdminHandler{jobs: jobs}
}

// Reindex starts a background rebuild of the bill vector index.
func (h *AdminHandler) Reindex(c *gin.Context) {
	if err := h.jobs.Trigger(job.ReindexJobName); err != nil {
		handleError(c, err)
		return
	}
	subject, _ := c.Get(middleware.ContextSubjectKey)
	response.Success(c, gin.H{"job": job.ReindexJobName, "started": true, "requested_by": subject})
}
