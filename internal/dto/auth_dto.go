package dto

// ==================== 认证相关 DTO ====================

// RegisterRequest 注册请求 DTO
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=128"`       // 邮箱
	Password    string `json:"password" binding:"required,min=8,max=64"`     // 密码
	DisplayName string `json:"displayName" binding:"required,min=1,max=32"`  // 昵称
}

// RegisterResponse 注册响应 DTO
type RegisterResponse struct {
	UserUUID string `json:"userUuid"` // 用户UUID
}

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`    // 邮箱
	Password string `json:"password" binding:"required,min=1"` // 密码
}

// LoginResponse 登录响应 DTO
type LoginResponse struct {
	AccessToken string      `json:"accessToken"` // 访问令牌
	User        *UserInfoVO `json:"user"`        // 用户信息
}

// SendVerifyCodeRequest 发送邮箱验证码请求 DTO
type SendVerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"` // 邮箱
}

// VerifyEmailRequest 校验邮箱验证码请求 DTO
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`          // 邮箱
	Code  string `json:"code" binding:"required,len=6,numeric"`   // 验证码
}

// ForgotPasswordRequest 忘记密码请求 DTO
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"` // 邮箱
}

// ResetPasswordRequest 重置密码请求 DTO
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`                    // 重置令牌（邮件链接携带）
	NewPassword string `json:"newPassword" binding:"required,min=8,max=64"` // 新密码
}

// UpdateProfileRequest 更新资料请求 DTO（头像走 multipart 单独上传）
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"omitempty,min=1,max=32"` // 昵称
}

// UserInfoVO 用户信息 VO
type UserInfoVO struct {
	UUID          string `json:"uuid"`          // 用户UUID
	Email         string `json:"email"`         // 邮箱
	DisplayName   string `json:"displayName"`   // 昵称
	AvatarURL     string `json:"avatarUrl"`     // 头像url
	AvatarColor   string `json:"avatarColor"`   // 头像底色（无头像时前端渲染用）
	EmailVerified bool   `json:"emailVerified"` // 邮箱是否已验证
}
