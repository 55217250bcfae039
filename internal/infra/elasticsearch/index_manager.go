package elasticsearch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"trend-go/internal/config"
	"trend-go/pkg/logger"

	"go.uber.org/zap"
)

// KeywordTrendsIndexName 从配置解析关键词趋势索引名
func KeywordTrendsIndexName() string {
	cfg := config.GetElasticsearch()
	name := cfg.Index["keyword_trends"]
	if name == "" {
		name = "keyword_trends"
	}
	return name
}

// GetKeywordTrendsIndexMapping 返回 keyword_trends 索引的 mapping
func GetKeywordTrendsIndexMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		},
		"mappings": {
			"properties": {
				"keyword": {
					"type": "text",
					"fields": {"raw": {"type": "keyword", "ignore_above": 100}}
				},
				"snapshot_date": {"type": "date", "format": "yyyy-MM-dd"},
				"category_id": {"type": "keyword"},
				"region_code": {"type": "keyword"},
				"period": {"type": "keyword"},
				"raw_score": {"type": "float"},
				"trend_score": {"type": "float"},
				"video_count": {"type": "integer"},
				"sample_titles": {"type": "text"}
			}
		}
	}`
}

// EnsureKeywordTrendsIndex 确保 keyword_trends 索引存在，不存在则创建
func EnsureKeywordTrendsIndex(ctx context.Context) error {
	indexName := KeywordTrendsIndexName()

	exists, err := IndicesExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		logger.Info("Elasticsearch keyword_trends index already exists", zap.String("index", indexName))
		return nil
	}

	body := bytes.NewReader([]byte(GetKeywordTrendsIndexMapping()))
	resp, err := IndicesCreate(ctx, indexName, body)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch keyword_trends index created", zap.String("index", indexName))
	return nil
}

// InitIndexes 初始化所有索引（启动时调用）
func InitIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return EnsureKeywordTrendsIndex(ctx)
}
