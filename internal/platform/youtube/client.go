package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"trend-go/internal/config"
	"trend-go/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Video 上游人气视频条目（已归一化）
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	DurationSec  int       `json:"duration_sec"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// Client 上游视频平台查询客户端（YouTube Data API v3，API Key 鉴权）
type Client struct {
	service *youtube.Service
	cfg     *config.YouTubeConfig
}

// NewClient 创建客户端
func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube api key is empty")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	return &Client{service: service, cfg: cfg}, nil
}

// FetchPopular 拉取指定分类/地区的人气视频，按页翻到没有下一页
// 或达到 max_pages 为止（限制最坏情况下的配额消耗）。
// 某一页失败时返回已取到的条目和该错误，由调用方决定是否按分类级失败处理。
func (c *Client) FetchPopular(ctx context.Context, categoryID, regionCode string) ([]Video, error) {
	var videos []Video
	pageToken := ""

	for page := 0; page < c.cfg.MaxPages; page++ {
		call := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Chart("mostPopular").
			VideoCategoryId(categoryID).
			RegionCode(regionCode).
			MaxResults(int64(c.cfg.PageSize)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			// 部分结果：前面的页仍然有效
			return videos, fmt.Errorf("fetch popular page %d for category %s/%s: %w",
				page+1, categoryID, regionCode, err)
		}

		for _, item := range resp.Items {
			videos = append(videos, normalizeItem(item))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	logger.Debug("Fetched popular videos",
		zap.String("category_id", categoryID),
		zap.String("region", regionCode),
		zap.Int("count", len(videos)),
	)

	return videos, nil
}

// normalizeItem 将上游条目归一化为 Video
func normalizeItem(item *youtube.Video) Video {
	v := Video{ID: item.Id}

	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.ChannelID = item.Snippet.ChannelId
		v.ChannelTitle = item.Snippet.ChannelTitle
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = t
		}
		if item.Snippet.Thumbnails != nil {
			if item.Snippet.Thumbnails.Medium != nil {
				v.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
			} else if item.Snippet.Thumbnails.Default != nil {
				v.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
			}
		}
	}

	if item.ContentDetails != nil {
		v.DurationSec = ParseDurationSeconds(item.ContentDetails.Duration)
	}

	if item.Statistics != nil {
		v.ViewCount = int64(item.Statistics.ViewCount)
		v.LikeCount = int64(item.Statistics.LikeCount)
		v.CommentCount = int64(item.Statistics.CommentCount)
	}

	return v
}

var durationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseDurationSeconds 解析 ISO-8601 时长（如 "PT1M30S"）为秒数
func ParseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := durationRe.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int

	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			totalSeconds += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			totalSeconds += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			totalSeconds += seconds
		}
	}

	return totalSeconds
}
