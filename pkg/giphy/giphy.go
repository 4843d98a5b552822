package giphy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/sony/gobreaker"
)

// ErrUnavailable 表示上游不可用（熔断打开或请求失败）
var ErrUnavailable = errors.New("giphy unavailable")

// Gif 单条搜索结果，URL 取 fixed_height 渲染图。
type Gif struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Client Giphy 搜索客户端，带熔断保护。
// 上游持续失败时快速失败，避免拖垮聊天主链路。
type Client struct {
	cfg     config.GiphyConfig
	httpCli *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient 创建 Giphy 客户端
func NewClient(cfg config.GiphyConfig) *Client {
	st := gobreaker.Settings{
		Name:        "giphy",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "giphy breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &Client{
		cfg:     cfg,
		httpCli: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// searchResponse Giphy /v1/gifs/search 响应结构（只取用到的字段）
type searchResponse struct {
	Data []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Images struct {
			FixedHeight struct {
				URL string `json:"url"`
			} `json:"fixed_height"`
		} `json:"images"`
	} `json:"data"`
}

// Search 搜索 GIF，limit <= 0 时使用配置默认值。
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Gif, error) {
	if limit <= 0 {
		limit = c.cfg.Limit
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doSearch(ctx, query, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result.([]Gif), nil
}

func (c *Client) doSearch(ctx context.Context, query string, limit int) ([]Gif, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/v1/gifs/search?%s", c.cfg.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("giphy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("giphy status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("giphy decode failed: %w", err)
	}

	gifs := make([]Gif, 0, len(body.Data))
	for _, item := range body.Data {
		if item.Images.FixedHeight.URL == "" {
			continue
		}
		gifs = append(gifs, Gif{
			ID:    item.ID,
			Title: item.Title,
			URL:   item.Images.FixedHeight.URL,
		})
	}
	return gifs, nil
}
