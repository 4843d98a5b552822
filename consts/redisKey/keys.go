package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// VerifyCodeTTL 邮箱验证码有效期
	VerifyCodeTTL = 10 * time.Minute
	// VerifyCodeMinuteTTL 验证码 1 分钟限流 TTL
	VerifyCodeMinuteTTL = 1 * time.Minute
	// VerifyCode24HTTL 验证码 24 小时限流 TTL
	VerifyCode24HTTL = 24 * time.Hour

	// ResetTokenTTL 密码重置令牌有效期
	ResetTokenTTL = 30 * time.Minute

	// UserInfoTTL 用户信息缓存 TTL
	UserInfoTTL = 1 * time.Hour
	// UserInfoEmptyTTL 用户信息空值缓存 TTL
	UserInfoEmptyTTL = 5 * time.Minute

	// FriendRelationTTL 好友关系缓存 TTL
	FriendRelationTTL = 24 * time.Hour
	// FriendRelationEmptyTTL 好友关系空值缓存 TTL
	FriendRelationEmptyTTL = 5 * time.Minute

	// ApplyPendingTTL 好友申请待处理缓存 TTL
	ApplyPendingTTL = 24 * time.Hour
	// ApplyPendingEmptyTTL 好友申请空值缓存 TTL
	ApplyPendingEmptyTTL = 5 * time.Minute

	// RecentFriendTTL 最近联系人 TTL
	RecentFriendTTL = 7 * 24 * time.Hour
	// AvatarColorTTL 头像底色 TTL（头像色一旦分配即长期稳定）
	AvatarColorTTL = 30 * 24 * time.Hour

	// ChannelMetaTTL 会话元数据缓存 TTL
	ChannelMetaTTL = 12 * time.Hour
	// ChannelMetaEmptyTTL 会话元数据空值缓存 TTL
	ChannelMetaEmptyTTL = 5 * time.Minute

	// GifSearchTTL GIF 搜索结果缓存 TTL
	GifSearchTTL = 10 * time.Minute
)

// ==================== Key 构造函数 ====================

// VerifyCodeKey 生成邮箱验证码 Key: user:verify_code:{email}:{type}
func VerifyCodeKey(email string, codeType int32) string {
	return fmt.Sprintf("user:verify_code:%s:%d", email, codeType)
}

// VerifyCodeMinuteKey 生成验证码 1 分钟限流 Key: user:verify_code:1m:{email}
func VerifyCodeMinuteKey(email string) string {
	return fmt.Sprintf("user:verify_code:1m:%s", email)
}

// VerifyCode24HKey 生成验证码 24 小时限流 Key: user:verify_code:24h:{email}
func VerifyCode24HKey(email string) string {
	return fmt.Sprintf("user:verify_code:24h:%s", email)
}

// ResetTokenKey 生成密码重置令牌 Key: user:reset_token:{token}
func ResetTokenKey(token string) string {
	return fmt.Sprintf("user:reset_token:%s", token)
}

// AccessTokenKey 生成访问令牌白名单 Key: user:access_token:{user_uuid}
// 同一用户单令牌在线，登出或重新登录后旧令牌即失效
func AccessTokenKey(userUUID string) string {
	return fmt.Sprintf("user:access_token:%s", userUUID)
}

// UserInfoKey 生成用户信息缓存 Key: user:info:{uuid}
func UserInfoKey(uuid string) string {
	return fmt.Sprintf("user:info:%s", uuid)
}

// DisplayNameKey 生成昵称反查 Key: user:display_name:{name}
func DisplayNameKey(name string) string {
	return fmt.Sprintf("user:display_name:%s", name)
}

// FriendRelationKey 生成好友关系 Key: user:relation:friend:{user_uuid}
func FriendRelationKey(userUUID string) string {
	return fmt.Sprintf("user:relation:friend:%s", userUUID)
}

// ApplyPendingKey 生成好友申请待处理 Key: user:apply:pending:{target_uuid}
func ApplyPendingKey(targetUUID string) string {
	return fmt.Sprintf("user:apply:pending:%s", targetUUID)
}

// RecentFriendKey 生成最近联系人 Key: user:recent_friend:{user_uuid}
func RecentFriendKey(userUUID string) string {
	return fmt.Sprintf("user:recent_friend:%s", userUUID)
}

// AvatarColorKey 生成头像底色 Key: user:avatar_color:{user_uuid}
func AvatarColorKey(userUUID string) string {
	return fmt.Sprintf("user:avatar_color:%s", userUUID)
}

// ChannelMetaKey 生成会话元数据 Key: chat:channel:meta:{channel_id}
func ChannelMetaKey(channelID string) string {
	return fmt.Sprintf("chat:channel:meta:%s", channelID)
}

// GifSearchKey 生成 GIF 搜索缓存 Key: gif:search:{query}:{limit}
func GifSearchKey(query string, limit int) string {
	return fmt.Sprintf("gif:search:%s:%d", query, limit)
}

// ==================== 限流 Key 构造函数 ====================

// UserRateLimitKey 生成用户限流 Key: rate:limit:user:{user_uuid}
func UserRateLimitKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:user:%s", userUUID)
}

// IPRateLimitKey 生成 IP 限流 Key: rate:limit:ip:{ip}
func IPRateLimitKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}
