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

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 用户注册接口
// @Summary 用户注册
// @Description 用户通过邮箱和密码注册，注册后需完成邮箱验证
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 200 {object} dto.RegisterResponse
// @Router /api/v1/public/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. 绑定请求数据
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 2. 调用服务层处理业务逻辑
	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "注册服务内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// Login 用户登录接口
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录，邮箱未验证时拒绝
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/public/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "登录服务内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// SendVerifyCode 发送邮箱验证码接口
// @Summary 发送邮箱验证码
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.SendVerifyCodeRequest true "发送验证码请求"
// @Router /api/v1/public/send-verify-code [post]
func (h *AuthHandler) SendVerifyCode(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SendVerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.authService.SendVerifyCode(ctx, req.Email); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "发送验证码内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// VerifyEmail 邮箱验证接口
// @Summary 校验验证码并标记邮箱已验证
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "邮箱验证请求"
// @Router /api/v1/public/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.authService.VerifyEmail(ctx, req.Email, req.Code); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "邮箱验证内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// ForgotPassword 忘记密码接口
// @Summary 发送密码重置邮件
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "忘记密码请求"
// @Router /api/v1/public/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "忘记密码内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// ResetPassword 重置密码接口
// @Summary 用重置令牌设置新密码
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "重置密码请求"
// @Router /api/v1/public/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.authService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "重置密码内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Logout 登出接口
// @Summary 登出
// @Tags 用户接口
// @Produce json
// @Success 200 {object} result.Response
// @Router /api/v1/auth/user/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	if err := h.authService.Logout(ctx, userUUID); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "登出内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// GetProfile 获取当前用户资料接口
// @Summary 获取当前用户资料
// @Tags 用户接口
// @Produce json
// @Success 200 {object} dto.UserInfoVO
// @Router /api/v1/auth/user/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	resp, err := h.authService.GetProfile(ctx, userUUID)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "查询资料内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// UpdateProfile 更新资料接口
// @Summary 更新昵称
// @Tags 用户接口
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "更新资料请求"
// @Router /api/v1/auth/user/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.authService.UpdateProfile(ctx, userUUID, req.DisplayName); err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "更新资料内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// UploadAvatar 上传头像接口
// @Summary 上传头像
// @Tags 用户接口
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "头像文件"
// @Router /api/v1/auth/user/avatar [post]
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	ctx := c.Request.Context()

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	defer file.Close()

	url, err := h.authService.UploadAvatar(ctx, userUUID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		if utils.IsNonServerError(utils.ExtractErrorCode(err)) {
			result.Fail(c, nil, utils.ExtractErrorCode(err))
			return
		}
		logger.Error(ctx, "上传头像内部错误", logger.ErrorField(err))
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, gin.H{"avatarUrl": url})
}
