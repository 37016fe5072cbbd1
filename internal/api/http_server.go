package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/auth"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/service"
)

// JobRunner 执行单个预测任务
type JobRunner interface {
	Run(ctx context.Context, init entity.JobInitialization) service.Outcome
}

// JobReader 任务查询所需的只读仓储
type JobReader interface {
	GetJob(ctx context.Context, jobID string) (*entity.PredictionJob, error)
	ListRenders(ctx context.Context, jobID string) ([]entity.Render, error)
}

// HTTPHandler HTTP 与 SQS 请求处理器
type HTTPHandler struct {
	runner      JobRunner
	jobs        JobReader
	authManager *auth.Manager
}

// NewHTTPHandler 创建处理器实例，authManager 为 nil 时入口不校验令牌
func NewHTTPHandler(runner JobRunner, jobs JobReader, authManager *auth.Manager) *HTTPHandler {
	return &HTTPHandler{
		runner:      runner,
		jobs:        jobs,
		authManager: authManager,
	}
}

// HandleSQSEvent 处理一条 SQS 事件并返回网关风格的响应。错误体现在状态码中，
// 不会作为 error 返回，消息不会被重新投递。
func (h *HTTPHandler) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (events.APIGatewayProxyResponse, error) {
	outcome := h.process(ctx, event)
	return events.APIGatewayProxyResponse{
		StatusCode: outcome.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       quoteMessage(outcome.Message),
	}, nil
}

// process 解析事件并执行任务。任务一旦开始便与调用方的取消信号分离，
// 只受轮询超时约束
func (h *HTTPHandler) process(ctx context.Context, event events.SQSEvent) service.Outcome {
	ctx = context.WithoutCancel(ctx)
	init, err := ParseSQSEvent(event)
	if err != nil {
		logrus.WithError(err).Warn("rejected sqs event")
		return service.Outcome{
			StatusCode: http.StatusBadRequest,
			Message:    "Bad Request: " + err.Error(),
			Err:        err,
		}
	}
	return h.runner.Run(ctx, init)
}

func quoteMessage(message string) string {
	data, err := json.Marshal(message)
	if err != nil {
		return `""`
	}
	return string(data)
}
