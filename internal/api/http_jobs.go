package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/service"
)

const jobLookupTimeout = 10 * time.Second

// JobResponse 任务执行结果
type JobResponse struct {
	JobID   string           `json:"jobId,omitempty"`
	Status  entity.JobStatus `json:"status,omitempty"`
	Message string           `json:"message"`
}

// JobDetailResponse 任务详情及其渲染结果
type JobDetailResponse struct {
	Job     *entity.PredictionJob `json:"job"`
	Renders []entity.Render       `json:"renders"`
}

// CreateJob 接收 SQS 格式的事件并同步执行任务
func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var event events.SQSEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		logrus.WithError(err).Warn("invalid job request payload")
		InvalidPayload(c)
		return
	}

	outcome := h.process(c.Request.Context(), event)
	writeOutcome(c, outcome)
}

// GetJob 查询任务及其渲染结果
func (h *HTTPHandler) GetJob(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "job id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), jobLookupTimeout)
	defer cancel()

	job, err := h.jobs.GetJob(ctx, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			NotFound(c, ErrCodeJobNotFound, err.Error())
			return
		}
		logrus.WithError(err).WithField("job_id", jobID).Error("failed to load job")
		InternalError(c, "failed to load job")
		return
	}

	renders, err := h.jobs.ListRenders(ctx, jobID)
	if err != nil {
		logrus.WithError(err).WithField("job_id", jobID).Error("failed to load renders")
		InternalError(c, "failed to load renders")
		return
	}
	if renders == nil {
		renders = []entity.Render{}
	}

	c.JSON(http.StatusOK, JobDetailResponse{Job: job, Renders: renders})
}

// writeOutcome 将任务结果写入响应
func writeOutcome(c *gin.Context, outcome service.Outcome) {
	if outcome.StatusCode == http.StatusOK {
		c.JSON(http.StatusOK, JobResponse{
			JobID:   outcome.JobID,
			Status:  outcome.Status,
			Message: outcome.Message,
		})
		return
	}

	code := ErrorCode(outcome.Err)
	if code == "" {
		code = ErrCodeInternalError
	}
	status := outcome.StatusCode
	if status == 0 {
		status = apperrors.HTTPStatus(outcome.Err)
	}
	if outcome.JobID == "" {
		ErrorResponse(c, status, code, outcome.Message)
		return
	}
	ErrorResponseWithDetails(c, status, code, outcome.Message, gin.H{
		"jobId":  outcome.JobID,
		"status": outcome.Status,
	})
}
