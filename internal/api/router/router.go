package router

import (
	"trend-go/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	rankingHandler *handler.RankingHandler,
	keywordHandler *handler.KeywordHandler,
	batchHandler *handler.BatchHandler,
	adminMiddleware gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1")

	// --- 排行模块 ---
	rankings := v1.Group("/rankings")
	{
		rankings.GET("", rankingHandler.GetRanking)
		rankings.GET("/delta", rankingHandler.GetDeltaRanking)
	}

	// --- 关键词模块 ---
	keywords := v1.Group("/keywords")
	{
		keywords.GET("", keywordHandler.GetTopKeywords)
		keywords.GET("/search", keywordHandler.SearchKeywords)
	}

	// --- 批处理模块 ---
	batch := v1.Group("/batch")
	{
		batch.GET("/runs", batchHandler.ListRuns)

		// 手动触发接口走管理令牌
		admin := batch.Group("", adminMiddleware)
		{
			admin.POST("/collect", batchHandler.TriggerCollect)
			admin.POST("/analyze", batchHandler.TriggerAnalyze)
		}
	}
}
