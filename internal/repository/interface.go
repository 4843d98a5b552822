package repository

import (
	"context"
	"time"

	"github.com/bhavyaajainn/chatly/model"
)

// ==================== 用户 Repository ====================

// IUserRepository 用户数据访问接口
type IUserRepository interface {
	// Create 创建新用户
	Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error)

	// GetByUUID 根据 UUID 查询用户信息（Cache-Aside）
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)

	// GetByEmail 根据邮箱查询用户信息
	GetByEmail(ctx context.Context, email string) (*model.UserInfo, error)

	// GetByDisplayName 根据昵称查询用户信息（好友申请按昵称检索）
	GetByDisplayName(ctx context.Context, displayName string) (*model.UserInfo, error)

	// ExistsByEmail 检查邮箱是否已存在
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByDisplayName 检查昵称是否已存在
	ExistsByDisplayName(ctx context.Context, displayName string) (bool, error)

	// UpdatePassword 更新密码
	UpdatePassword(ctx context.Context, userUUID, password string) error

	// UpdateProfile 更新昵称与头像（空值跳过）
	UpdateProfile(ctx context.Context, userUUID, displayName, avatarURL string) error

	// SetEmailVerified 标记邮箱已验证
	SetEmailVerified(ctx context.Context, userUUID string) error

	// StoreVerifyCode 存储邮箱验证码到 Redis（带过期时间）
	StoreVerifyCode(ctx context.Context, email, code string, codeType int32, expire time.Duration) error

	// VerifyVerifyCode 校验验证码
	VerifyVerifyCode(ctx context.Context, email, code string, codeType int32) (bool, error)

	// DeleteVerifyCode 删除验证码（校验通过后消耗）
	DeleteVerifyCode(ctx context.Context, email string, codeType int32) error

	// VerifyCodeRateLimit 验证码发送限流校验
	// 返回 true 表示触发限流，不允许发送
	VerifyCodeRateLimit(ctx context.Context, email string) (bool, error)

	// IncrementVerifyCodeCount 递增验证码发送计数
	IncrementVerifyCodeCount(ctx context.Context, email string) error

	// StoreAccessToken 存储访问令牌白名单（登出/重复登录后旧令牌失效）
	StoreAccessToken(ctx context.Context, userUUID, token string, expire time.Duration) error

	// RevokeAccessToken 撤销访问令牌并清理用户温启动缓存
	RevokeAccessToken(ctx context.Context, userUUID string) error

	// StoreResetToken 存储密码重置令牌
	StoreResetToken(ctx context.Context, token, userUUID string) error

	// ConsumeResetToken 消耗密码重置令牌，返回对应用户 UUID
	ConsumeResetToken(ctx context.Context, token string) (string, error)

	// GetAvatarColor 读取头像底色缓存，未命中返回空串
	GetAvatarColor(ctx context.Context, userUUID string) (string, error)

	// SetAvatarColor 写入头像底色缓存
	SetAvatarColor(ctx context.Context, userUUID, color string) error
}

// ==================== 好友关系 Repository ====================

// IFriendRepository 好友申请与好友关系数据访问接口。
// 已同意的申请记录即好友关系，不再单独维护关系表。
type IFriendRepository interface {
	// CreateRequest 创建好友申请
	CreateRequest(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error)

	// GetRequest 查询指定方向的申请记录
	GetRequest(ctx context.Context, senderUUID, receiverUUID string) (*model.FriendRequest, error)

	// ExistsPending 检查 sender -> receiver 方向是否存在待处理申请（Cache-Aside）
	ExistsPending(ctx context.Context, senderUUID, receiverUUID string) (bool, error)

	// ExistsAccepted 检查双方任一方向是否已是好友
	ExistsAccepted(ctx context.Context, a, b string) (bool, error)

	// AcceptRequest 同意申请（CAS，WHERE status=0）
	// alreadyHandled=true 表示申请已被处理，幂等成功
	AcceptRequest(ctx context.Context, senderUUID, receiverUUID string) (alreadyHandled bool, err error)

	// RejectRequest 拒绝申请（CAS，WHERE status=0）
	RejectRequest(ctx context.Context, senderUUID, receiverUUID string) (alreadyHandled bool, err error)

	// DeletePending 撤回待处理申请（物理删除）
	DeletePending(ctx context.Context, senderUUID, receiverUUID string) error

	// DeleteAccepted 删除好友（物理删除双方任一方向的已同意记录）
	DeleteAccepted(ctx context.Context, a, b string) error

	// ListIncomingPending 收到的待处理申请，按创建时间倒序
	ListIncomingPending(ctx context.Context, receiverUUID string) ([]*model.FriendRequest, error)

	// ListOutgoingPending 发出的待处理申请，按创建时间倒序
	ListOutgoingPending(ctx context.Context, senderUUID string) ([]*model.FriendRequest, error)

	// ListAcceptedInvolving 查询用户参与的全部已同意记录（两个方向）
	ListAcceptedInvolving(ctx context.Context, userUUID string) ([]*model.FriendRequest, error)

	// TouchRecentFriend 记录最近联系的好友
	TouchRecentFriend(ctx context.Context, userUUID, friendUUID string) error

	// ClearRecentFriend 最近联系人指向该好友时清除指针
	ClearRecentFriend(ctx context.Context, userUUID, friendUUID string) error

	// GetRecentFriend 读取最近联系的好友，未命中返回空串
	GetRecentFriend(ctx context.Context, userUUID string) (string, error)
}

// ==================== 消息 Repository ====================

// IMessageRepository 消息与会话元数据访问接口
type IMessageRepository interface {
	// CreateMessage 写入一条消息
	CreateMessage(ctx context.Context, msg *model.Message) (*model.Message, error)

	// ListByChannel 按 (created_at, id) 升序返回会话内全部消息。
	// 不做可见性过滤，过滤由 feed 层按订阅者视角完成。
	ListByChannel(ctx context.Context, channelID string, limit int) ([]model.Message, error)

	// MarkDeletedForUser 单方删除会话：为每条消息追加 delete_by，
	// 双方都删除的消息物理删除。返回被物理删除消息的附件 URL，
	// 供调用方异步清理对象存储。
	MarkDeletedForUser(ctx context.Context, channelID, userUUID string) (purgedAttachments []string, err error)

	// UpsertChannelMeta 发送消息时更新会话元数据（不存在则创建）
	UpsertChannelMeta(ctx context.Context, meta *model.ChannelMeta) error

	// GetChannelMeta 查询会话元数据（Cache-Aside）
	GetChannelMeta(ctx context.Context, channelID string) (*model.ChannelMeta, error)

	// ListChannelsForUser 查询用户参与的会话，按最近消息时间倒序
	ListChannelsForUser(ctx context.Context, userUUID string) ([]*model.ChannelMeta, error)
}
