package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trend-go/internal/config"
	"trend-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

// BatchCompletedEvent 批处理完成事件消息体。
// API 进程消费该事件后使对应的读缓存失效。
type BatchCompletedEvent struct {
	RunID         int64  `json:"run_id"`
	BatchType     string `json:"batch_type"`
	SnapshotDate  string `json:"snapshot_date"`
	Status        string `json:"status"`
	TotalVideos   int    `json:"total_videos"`
	TotalKeywords int    `json:"total_keywords"`
	FailureCount  int    `json:"failure_count"`
}

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	producer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// SendBatchCompletedEvent 发送批处理完成事件
func SendBatchCompletedEvent(ctx context.Context, topic string, event *BatchCompletedEvent) error {
	if producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal batch event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(fmt.Sprintf("run-%d", event.RunID)),
		Value: payload,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send batch event: %w", err)
	}

	logger.Info("Batch completed event sent",
		zap.Int64("run_id", event.RunID),
		zap.String("batch_type", event.BatchType),
		zap.String("status", event.Status),
		zap.String("topic", topic),
	)

	return nil
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
