package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hall-booking-backend/internal/jobs"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

type JobsHandler struct {
	jobs *jobs.Jobs
}

func NewHandler(j *jobs.Jobs) *JobsHandler {
	return &JobsHandler{jobs: j}
}

type RunResponse struct {
	Job      string `json:"job"`
	Affected int    `json:"affected"`
}

// ExpirePending runs the stale pending expiry immediately. The schedule lock is not taken.
func (h *JobsHandler) ExpirePending(c *gin.Context) {
	n, err := h.jobs.ExpireStalePending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, RunResponse{Job: jobs.JobExpirePending, Affected: n})
}

func (h *JobsHandler) SendReminders(c *gin.Context) {
	n, err := h.jobs.SendNextDayReminders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, RunResponse{Job: jobs.JobSendReminders, Affected: n})
}
