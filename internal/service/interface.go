package service

import (
	"context"
	"io"

	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/pkg/giphy"
	"github.com/bhavyaajainn/chatly/pkg/minio"
)

// ==================== 认证服务 ====================

// AuthService 认证与用户资料服务接口
type AuthService interface {
	// Register 用户注册（注册后需邮箱验证才能登录）
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)

	// Login 邮箱密码登录，邮箱未验证时拒绝
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// Logout 登出，撤销访问令牌并清理温启动缓存
	Logout(ctx context.Context, userUUID string) error

	// SendVerifyCode 发送邮箱验证码
	SendVerifyCode(ctx context.Context, email string) error

	// VerifyEmail 校验验证码并标记邮箱已验证
	VerifyEmail(ctx context.Context, email, code string) error

	// ForgotPassword 发送密码重置邮件（用户不存在时静默成功，防枚举）
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword 用重置令牌设置新密码
	ResetPassword(ctx context.Context, token, newPassword string) error

	// GetProfile 获取当前用户资料
	GetProfile(ctx context.Context, userUUID string) (*dto.UserInfoVO, error)

	// UpdateProfile 更新昵称
	UpdateProfile(ctx context.Context, userUUID, displayName string) error

	// UploadAvatar 上传头像，返回访问 URL
	UploadAvatar(ctx context.Context, userUUID, fileName string, size int64, reader io.Reader) (string, error)
}

// ==================== 好友服务 ====================

// FriendService 好友申请与好友关系服务接口
type FriendService interface {
	// SendRequest 按昵称向目标用户发送好友申请
	SendRequest(ctx context.Context, senderUUID, displayName string) (*dto.SendFriendRequestResponse, error)

	// AcceptRequest 同意收到的申请（已处理时静默成功）
	AcceptRequest(ctx context.Context, receiverUUID, senderUUID string) error

	// RejectRequest 拒绝收到的申请（已处理时静默成功）
	RejectRequest(ctx context.Context, receiverUUID, senderUUID string) error

	// CancelRequest 撤回自己发出的待处理申请
	CancelRequest(ctx context.Context, senderUUID, receiverUUID string) error

	// RemoveFriend 删除好友
	RemoveFriend(ctx context.Context, userUUID, friendUUID string) error

	// ListRequests 收到与发出的待处理申请
	ListRequests(ctx context.Context, userUUID string) (*dto.FriendRequestListResponse, error)

	// ListFriends 好友列表（按对端 uuid 去重）
	ListFriends(ctx context.Context, userUUID string) (*dto.FriendListResponse, error)
}

// ==================== 聊天服务 ====================

// Attachment 待上传的附件，Open 延迟打开内容流
type Attachment struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// ChatService 消息收发与会话服务接口
type ChatService interface {
	// SendMessage 发送消息：并行上传附件、落库、更新会话元数据、
	// 通知订阅者。任一附件上传失败则整体失败。
	SendMessage(ctx context.Context, senderUUID string, req *dto.SendMessageRequest, attachments []Attachment) (*dto.MessageItem, error)

	// ListMessages 拉取与对端的会话消息（过滤己方已删除的）
	ListMessages(ctx context.Context, userUUID, peerUUID string) (*dto.MessageListResponse, error)

	// ListChannels 会话列表，按最近消息时间倒序
	ListChannels(ctx context.Context, userUUID string) (*dto.ChannelListResponse, error)

	// DeleteChat 单方删除与对端的会话
	DeleteChat(ctx context.Context, userUUID, peerUUID string) error

	// SearchGifs 搜索 GIF（带结果缓存与熔断）
	SearchGifs(ctx context.Context, query string, limit int) (*dto.GifSearchResponse, error)
}

// ==================== 依赖抽象 ====================

// AttachmentStore 附件对象存储抽象，生产实现为 pkg/minio
type AttachmentStore interface {
	Upload(ctx context.Context, reader io.Reader, fileSize int64, opts minio.UploadOptions) (*minio.UploadResult, error)
	DeleteMultiple(ctx context.Context, objectNames []string) []error
	ObjectNameFromURL(rawURL string) string
}

// GifSearcher GIF 搜索抽象，生产实现为 pkg/giphy
type GifSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]giphy.Gif, error)
}

// MailSender 邮件发送抽象，生产实现为 pkg/mail
type MailSender interface {
	SendVerifyCode(to, code string) error
	SendPasswordReset(to, resetURL string) error
}

// FeedNotifier 会话订阅通知抽象，生产实现为 internal/live.Hub
type FeedNotifier interface {
	NotifyChannel(ctx context.Context, channelID string)
}

// EventProducer 消息事件投递抽象，生产实现为 internal/mq
type EventProducer interface {
	PublishMessageSent(ctx context.Context, channelID, messageID, senderUUID string) error
}
