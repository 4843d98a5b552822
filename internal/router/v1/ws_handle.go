package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/feed"
	"github.com/bhavyaajainn/chatly/internal/live"
	"github.com/bhavyaajainn/chatly/internal/middleware"
	"github.com/bhavyaajainn/chatly/pkg/ctxmeta"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 当前阶段默认放开来源校验，方便本地多端调试。
	// 生产环境建议按域名白名单收紧校验策略。
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// feedFrame 下行状态帧
type feedFrame struct {
	Type string        `json:"type"` // feed_state
	Data feedStateData `json:"data"`
}

type feedStateData struct {
	Phase     string             `json:"phase"` // closed/loading/live
	ChannelID string             `json:"channelId"`
	Messages  []*dto.MessageItem `json:"messages"`
}

// WSHandler 会话实时订阅入口。
// 职责边界：
// - 处理握手参数、鉴权与协议升级；
// - 把 hub 投递的会话状态编码成下行帧写给客户端；
// - 连接断开时取消订阅。
type WSHandler struct {
	hub    *live.Hub
	jwtCfg config.JWTConfig
}

// NewWSHandler 创建 WebSocket 入口处理器
func NewWSHandler(hub *live.Hub, jwtCfg config.JWTConfig) *WSHandler {
	return &WSHandler{hub: hub, jwtCfg: jwtCfg}
}

// ServeWS 处理 WebSocket 握手与接入。
// 执行流程：
// 1. 从 query 中读取 token/peerUuid 并鉴权。
// 2. 完成协议升级。
// 3. 订阅会话，进入读写循环直到任一端断开。
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	peerUUID := c.Query("peerUuid")
	if token == "" || peerUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "token and peerUuid are required",
		})
		return
	}

	claims, err := util.ParseAccessToken(h.jwtCfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "token invalid or expired",
		})
		return
	}

	// 连接级 context，生命周期与连接一致
	connCtx := context.Background()
	if traceID := ctxmeta.TraceID(c.Request.Context()); traceID != "" {
		connCtx = ctxmeta.WithTraceID(connCtx, traceID)
	}
	connCtx = ctxmeta.WithUserUUID(connCtx, claims.UserUUID)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	h.handleConnection(connCtx, conn, claims.UserUUID, peerUUID)
}

// handleConnection 承载单条连接的完整生命周期。
// 订阅建立后先收到加载中状态，快照就绪后转为在线状态；
// 此后每次会话变化都会收到按本人视角调和后的全量状态。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, viewerUUID, peerUUID string) {
	sub := h.hub.Subscribe(ctx, viewerUUID, peerUUID)
	middleware.SubscriptionOpened()
	defer func() {
		sub.Cancel()
		middleware.SubscriptionClosed()
		_ = conn.Close()
		logger.Info(ctx, "会话订阅已断开",
			logger.String("channel_id", sub.ChannelID()),
			logger.String("viewer_uuid", viewerUUID),
			logger.Int("subscription_count", h.hub.Count()),
		)
	}()

	logger.Info(ctx, "会话订阅已建立",
		logger.String("channel_id", sub.ChannelID()),
		logger.String("viewer_uuid", viewerUUID),
		logger.Int("subscription_count", h.hub.Count()),
	)

	// 读循环只用于感知客户端断开
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case <-sub.Done():
			return
		case state := <-sub.Updates():
			payload, err := json.Marshal(encodeFeedState(state))
			if err != nil {
				logger.Warn(ctx, "状态帧序列化失败", logger.ErrorField(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func encodeFeedState(state feed.State) feedFrame {
	items := make([]*dto.MessageItem, 0, len(state.Messages))
	for i := range state.Messages {
		msg := &state.Messages[i]
		files := make([]dto.FileItem, 0, len(msg.Files))
		for _, f := range msg.Files {
			files = append(files, dto.FileItem{Name: f.Name, URL: f.Url})
		}
		items = append(items, &dto.MessageItem{
			ID:         util.FormatID(msg.Id),
			ChannelID:  msg.ChannelId,
			SenderUUID: msg.SenderUuid,
			Text:       msg.Text,
			ImageURLs:  msg.ImageUrls,
			Files:      files,
			GifURL:     msg.GifUrl,
			Timestamp:  msg.CreatedAt.UnixMilli(),
		})
	}
	return feedFrame{
		Type: "feed_state",
		Data: feedStateData{
			Phase:     state.Phase.String(),
			ChannelID: state.ChannelID,
			Messages:  items,
		},
	}
}
