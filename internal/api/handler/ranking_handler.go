package handler

import (
	"errors"

	"trend-go/internal/api/dto"
	"trend-go/internal/api/response"
	"trend-go/internal/service"
	"trend-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RankingHandler struct {
	rankingService *service.RankingService
}

func NewRankingHandler(rankingService *service.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// GetRanking GET /api/v1/rankings
func (h *RankingHandler) GetRanking(c *gin.Context) {
	var req dto.RankingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.rankingService.GetRanking(c.Request.Context(), &req)
	if err != nil {
		handleRankingError(c, err)
		return
	}

	response.OK(c, "获取排行成功", data)
}

// GetDeltaRanking GET /api/v1/rankings/delta
func (h *RankingHandler) GetDeltaRanking(c *gin.Context) {
	var req dto.RankingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.rankingService.GetDeltaRanking(c.Request.Context(), &req)
	if err != nil {
		handleRankingError(c, err)
		return
	}

	response.OK(c, "获取日增排行成功", data)
}

func handleRankingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMetric),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNoSnapshotData):
		response.NotFound(c, "该分类/地区没有快照数据")
	default:
		logger.Error("Get ranking failed", zap.Error(err))
		response.InternalError(c, "获取排行失败")
	}
}
