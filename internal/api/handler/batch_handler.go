package handler

import (
	"context"
	"strconv"

	"trend-go/internal/api/dto"
	"trend-go/internal/api/response"
	"trend-go/internal/service"
	"trend-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BatchHandler struct {
	batchService *service.BatchService
}

func NewBatchHandler(batchService *service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// TriggerCollect POST /api/v1/batch/collect（管理接口）
// 批处理可能跑几分钟，异步执行，进度看运行日志
func (h *BatchHandler) TriggerCollect(c *gin.Context) {
	var req dto.BatchTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	go func() {
		if _, err := h.batchService.RunCollection(context.Background(), req.SnapshotDate, req.Regions); err != nil {
			logger.Error("Manual collection batch failed", zap.Error(err))
		}
	}()

	response.OK(c, "快照采集批处理已触发", gin.H{
		"snapshot_date": req.SnapshotDate,
		"regions":       req.Regions,
	})
}

// TriggerAnalyze POST /api/v1/batch/analyze（管理接口）
func (h *BatchHandler) TriggerAnalyze(c *gin.Context) {
	var req dto.BatchTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	go func() {
		if _, err := h.batchService.RunAnalysis(context.Background(), req.SnapshotDate, req.Regions); err != nil {
			logger.Error("Manual analysis batch failed", zap.Error(err))
		}
	}()

	response.OK(c, "关键词分析批处理已触发", gin.H{
		"snapshot_date": req.SnapshotDate,
		"regions":       req.Regions,
	})
}

// ListRuns GET /api/v1/batch/runs
func (h *BatchHandler) ListRuns(c *gin.Context) {
	batchType := c.Query("type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, total, err := h.batchService.ListRuns(batchType, limit, offset)
	if err != nil {
		logger.Error("List batch runs failed", zap.Error(err))
		response.InternalError(c, "获取运行日志失败")
		return
	}

	infos := make([]dto.BatchRunInfo, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		infos = append(infos, dto.BatchRunInfo{
			ID:            run.ID,
			BatchType:     run.BatchType,
			SnapshotDate:  run.SnapshotDate,
			Status:        run.Status,
			StartedAt:     run.StartedAt,
			CompletedAt:   run.CompletedAt,
			TotalVideos:   run.Metadata.TotalVideos,
			TotalKeywords: run.Metadata.TotalKeywords,
			FailureCount:  run.Metadata.FailureCount,
			DurationMs:    run.Metadata.DurationMs,
		})
	}

	response.OK(c, "获取运行日志成功", dto.BatchRunListData{
		Runs:  infos,
		Total: total,
	})
}
