package v1

import (
	"io"

	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/middleware"
	"github.com/bhavyaajainn/chatly/internal/service"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/result"

	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessage 发送消息接口
// @Summary 发送消息（文本/图片/文件/GIF，multipart 表单）
// @Tags 聊天接口
// @Accept multipart/form-data
// @Produce json
// @Param peerUuid formData string true "对端用户UUID"
// @Param text formData string false "文本内容"
// @Param gifUrl formData string false "GIF地址"
// @Param files formData file false "附件（可多个）"
// @Success 200 {object} dto.MessageItem
// @Router /api/v1/auth/chat/message [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	// 1. 绑定表单字段
	var req dto.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 2. 收集附件，内容流延迟打开，由服务层并行消费
	var attachments []service.Attachment
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["files"] {
			fh := fh
			attachments = append(attachments, service.Attachment{
				Name: fh.Filename,
				Size: fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}
	}

	// 3. 调用服务层
	resp, err := h.chatService.SendMessage(ctx, userUUID, &req, attachments)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "发送消息内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// ListMessages 消息列表接口
// @Summary 拉取与对端的会话消息
// @Tags 聊天接口
// @Produce json
// @Param peerUuid query string true "对端用户UUID"
// @Success 200 {object} dto.MessageListResponse
// @Router /api/v1/auth/chat/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	peerUUID := c.Query("peerUuid")
	if peerUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.chatService.ListMessages(ctx, userUUID, peerUUID)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "拉取消息内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// ListChannels 会话列表接口
// @Summary 会话列表，按最近消息时间倒序
// @Tags 聊天接口
// @Produce json
// @Success 200 {object} dto.ChannelListResponse
// @Router /api/v1/auth/chat/channels [get]
func (h *ChatHandler) ListChannels(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.chatService.ListChannels(ctx, userUUID)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "查询会话列表内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// DeleteChat 删除会话接口
// @Summary 单方删除与对端的会话（重复删除幂等）
// @Tags 聊天接口
// @Accept json
// @Produce json
// @Param request body dto.DeleteChatRequest true "删除会话请求"
// @Router /api/v1/auth/chat/delete [post]
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.DeleteChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.chatService.DeleteChat(ctx, userUUID, req.PeerUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "删除会话内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// SearchGifs GIF 搜索接口
// @Summary 搜索 GIF
// @Tags 聊天接口
// @Produce json
// @Param q query string true "搜索词"
// @Param limit query int false "返回条数"
// @Success 200 {object} dto.GifSearchResponse
// @Router /api/v1/auth/chat/gifs [get]
func (h *ChatHandler) SearchGifs(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GifSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.chatService.SearchGifs(ctx, req.Query, req.Limit)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "GIF 搜索内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
