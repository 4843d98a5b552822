package v1

import (
	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/middleware"
	"github.com/bhavyaajainn/chatly/internal/service"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/result"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友处理器
type FriendHandler struct {
	friendService service.FriendService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(friendService service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendRequest 发送好友申请接口
// @Summary 按昵称发送好友申请
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.SendFriendRequestRequest true "发送申请请求"
// @Success 200 {object} dto.SendFriendRequestResponse
// @Router /api/v1/auth/friend/request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.friendService.SendRequest(ctx, userUUID, req.DisplayName)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "发送好友申请内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Accept 同意好友申请接口
// @Summary 同意收到的好友申请
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.HandleFriendRequestRequest true "处理申请请求"
// @Router /api/v1/auth/friend/request/accept [post]
func (h *FriendHandler) Accept(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.AcceptRequest(ctx, userUUID, req.SenderUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "同意好友申请内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Reject 拒绝好友申请接口
// @Summary 拒绝收到的好友申请
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.HandleFriendRequestRequest true "处理申请请求"
// @Router /api/v1/auth/friend/request/reject [post]
func (h *FriendHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.RejectRequest(ctx, userUUID, req.SenderUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "拒绝好友申请内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Cancel 撤回好友申请接口
// @Summary 撤回自己发出的待处理申请
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.CancelFriendRequestRequest true "撤回申请请求"
// @Router /api/v1/auth/friend/request/cancel [post]
func (h *FriendHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.CancelFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.CancelRequest(ctx, userUUID, req.ReceiverUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "撤回好友申请内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Remove 删除好友接口
// @Summary 删除好友
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.RemoveFriendRequest true "删除好友请求"
// @Router /api/v1/auth/friend/remove [post]
func (h *FriendHandler) Remove(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.RemoveFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.RemoveFriend(ctx, userUUID, req.FriendUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "删除好友内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// ListRequests 好友申请列表接口
// @Summary 收到与发出的待处理申请
// @Tags 好友接口
// @Produce json
// @Success 200 {object} dto.FriendRequestListResponse
// @Router /api/v1/auth/friend/requests [get]
func (h *FriendHandler) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.friendService.ListRequests(ctx, userUUID)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "查询好友申请内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// ListFriends 好友列表接口
// @Summary 好友列表（附最近联系好友）
// @Tags 好友接口
// @Produce json
// @Success 200 {object} dto.FriendListResponse
// @Router /api/v1/auth/friend/list [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.friendService.ListFriends(ctx, userUUID)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "查询好友列表内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
