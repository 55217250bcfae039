package handler

import (
	"errors"
	"strconv"

	"trend-go/internal/api/dto"
	"trend-go/internal/api/response"
	"trend-go/internal/model"
	"trend-go/internal/service"
	"trend-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type KeywordHandler struct {
	keywordService *service.KeywordService
}

func NewKeywordHandler(keywordService *service.KeywordService) *KeywordHandler {
	return &KeywordHandler{keywordService: keywordService}
}

// GetTopKeywords GET /api/v1/keywords
func (h *KeywordHandler) GetTopKeywords(c *gin.Context) {
	var req dto.KeywordRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}
	if req.Period == "" {
		req.Period = model.PeriodDaily
	}
	if req.SortBy == "" {
		req.SortBy = "raw_score"
	}

	trends, snapshotDate, err := h.keywordService.GetTopKeywords(
		c.Request.Context(), req.SnapshotDate, req.CategoryID, req.Period, req.RegionCode, req.SortBy, req.Limit)
	if err != nil {
		handleKeywordError(c, err)
		return
	}

	keywords := make([]dto.KeywordInfo, 0, len(trends))
	for _, t := range trends {
		keywords = append(keywords, dto.KeywordInfo{
			Keyword:        t.Keyword,
			RawScore:       t.RawScore,
			TrendScore:     t.TrendScore,
			VideoCount:     t.VideoCount,
			SampleTitles:   t.SampleTitles,
			SampleVideoIDs: t.SampleVideoIDs,
		})
	}

	response.OK(c, "获取关键词趋势成功", dto.KeywordData{
		SnapshotDate: snapshotDate,
		CategoryID:   req.CategoryID,
		RegionCode:   req.RegionCode,
		Period:       req.Period,
		SortBy:       req.SortBy,
		Keywords:     keywords,
	})
}

// SearchKeywords GET /api/v1/keywords/search
func (h *KeywordHandler) SearchKeywords(c *gin.Context) {
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	trends, err := h.keywordService.SearchKeywords(c.Request.Context(), q, limit)
	if err != nil {
		handleKeywordError(c, err)
		return
	}

	items := make([]dto.KeywordSearchItem, 0, len(trends))
	for _, t := range trends {
		items = append(items, dto.KeywordSearchItem{
			Keyword:      t.Keyword,
			SnapshotDate: t.SnapshotDate,
			CategoryID:   t.CategoryID,
			RegionCode:   t.RegionCode,
			Period:       t.Period,
			RawScore:     t.RawScore,
			TrendScore:   t.TrendScore,
			VideoCount:   t.VideoCount,
		})
	}

	response.OK(c, "关键词检索成功", gin.H{"items": items})
}

func handleKeywordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrEmptySearchTerm):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNoKeywordData):
		response.NotFound(c, "该键没有关键词数据")
	default:
		logger.Error("Get keywords failed", zap.Error(err))
		response.InternalError(c, "获取关键词失败")
	}
}
