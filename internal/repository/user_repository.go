package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// userRepositoryImpl 用户数据访问层实现
type userRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB, redisClient *redis.Client) IUserRepository {
	return &userRepositoryImpl{db: db, redisClient: redisClient}
}

// Create 创建新用户
func (r *userRepositoryImpl) Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	// 注册前按该昵称查过不存在的话，反查缓存里会有空值占位，清掉
	r.invalidateDisplayNameCacheAsync(ctx, user.DisplayName)
	return user, nil
}

// GetByUUID 根据 UUID 查询用户信息
// Cache-Aside：优先查 Redis JSON 缓存，未命中回源 MySQL 并异步回填
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	cacheKey := rediskey.UserInfoKey(uuid)

	val, err := r.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		// 空值占位符：确认用户不存在，避免穿透
		if val == pkgredis.EmptyPlaceholder {
			return nil, ErrRecordNotFound
		}
		var user model.UserInfo
		if jsonErr := json.Unmarshal([]byte(val), &user); jsonErr == nil {
			// 概率续期，避免热点 key 集中过期
			if getRandomBool(0.01) {
				r.redisClient.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.UserInfoTTL))
			}
			return &user, nil
		}
		// 缓存内容损坏，删掉走回源
		_ = r.redisClient.Del(ctx, cacheKey).Err()
	} else if err != redis.Nil {
		LogRedisError(ctx, err)
	}

	// 回源 MySQL
	var user model.UserInfo
	dbErr := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error
	if dbErr != nil {
		wrapped := WrapDBError(dbErr)
		if wrapped == ErrRecordNotFound {
			// 异步写空值占位
			async.RunSafe(ctx, func(runCtx context.Context) {
				if err := r.redisClient.Set(runCtx, cacheKey, pkgredis.EmptyPlaceholder, rediskey.UserInfoEmptyTTL).Err(); err != nil {
					LogRedisError(runCtx, err)
				}
			}, 0)
		}
		return nil, wrapped
	}

	// 异步回填缓存
	r.cacheUserAsync(ctx, &user)
	return &user, nil
}

// GetByEmail 根据邮箱查询用户信息（登录链路，直接查库）
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// GetByDisplayName 根据昵称查询用户信息
// 好友申请按昵称检索：先查昵称 -> uuid 的反查缓存，再走 uuid 缓存
func (r *userRepositoryImpl) GetByDisplayName(ctx context.Context, displayName string) (*model.UserInfo, error) {
	nameKey := rediskey.DisplayNameKey(displayName)

	uuid, err := r.redisClient.Get(ctx, nameKey).Result()
	if err == nil {
		if uuid == pkgredis.EmptyPlaceholder {
			return nil, ErrRecordNotFound
		}
		return r.GetByUUID(ctx, uuid)
	}
	if err != redis.Nil {
		LogRedisError(ctx, err)
	}

	var user model.UserInfo
	dbErr := r.db.WithContext(ctx).Where("display_name = ?", displayName).First(&user).Error
	if dbErr != nil {
		wrapped := WrapDBError(dbErr)
		if wrapped == ErrRecordNotFound {
			async.RunSafe(ctx, func(runCtx context.Context) {
				if err := r.redisClient.Set(runCtx, nameKey, pkgredis.EmptyPlaceholder, rediskey.UserInfoEmptyTTL).Err(); err != nil {
					LogRedisError(runCtx, err)
				}
			}, 0)
		}
		return nil, wrapped
	}

	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Set(runCtx, nameKey, user.Uuid, getRandomExpireTime(rediskey.UserInfoTTL)).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
	r.cacheUserAsync(ctx, &user)

	return &user, nil
}

// ExistsByEmail 检查邮箱是否已存在
func (r *userRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserInfo{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// ExistsByDisplayName 检查昵称是否已存在
func (r *userRepositoryImpl) ExistsByDisplayName(ctx context.Context, displayName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserInfo{}).Where("display_name = ?", displayName).Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// UpdatePassword 更新密码
func (r *userRepositoryImpl) UpdatePassword(ctx context.Context, userUUID, password string) error {
	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ?", userUUID).
		Update("password", password).Error
	if err != nil {
		return WrapDBError(err)
	}
	r.invalidateUserCacheAsync(ctx, userUUID)
	return nil
}

// UpdateProfile 更新昵称与头像（空值跳过）
func (r *userRepositoryImpl) UpdateProfile(ctx context.Context, userUUID, displayName, avatarURL string) error {
	updates := map[string]interface{}{}
	var oldName string
	if displayName != "" {
		updates["display_name"] = displayName
		// 改名要同时失效新旧昵称的反查缓存，旧昵称先取出来
		var current model.UserInfo
		if err := r.db.WithContext(ctx).
			Select("display_name").
			Where("uuid = ?", userUUID).
			Take(&current).Error; err != nil {
			return WrapDBError(err)
		}
		oldName = current.DisplayName
	}
	if avatarURL != "" {
		updates["avatar_url"] = avatarURL
	}
	if len(updates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ?", userUUID).
		Updates(updates).Error
	if err != nil {
		return WrapDBError(err)
	}
	r.invalidateUserCacheAsync(ctx, userUUID)
	r.invalidateDisplayNameCacheAsync(ctx, oldName, displayName)
	return nil
}

// SetEmailVerified 标记邮箱已验证
func (r *userRepositoryImpl) SetEmailVerified(ctx context.Context, userUUID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ?", userUUID).
		Update("email_verified", true).Error
	if err != nil {
		return WrapDBError(err)
	}
	r.invalidateUserCacheAsync(ctx, userUUID)
	return nil
}

// ==================== 验证码 ====================

// StoreVerifyCode 存储邮箱验证码到 Redis
func (r *userRepositoryImpl) StoreVerifyCode(ctx context.Context, email, code string, codeType int32, expire time.Duration) error {
	key := rediskey.VerifyCodeKey(email, codeType)
	if err := r.redisClient.Set(ctx, key, code, expire).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// VerifyVerifyCode 校验验证码
func (r *userRepositoryImpl) VerifyVerifyCode(ctx context.Context, email, code string, codeType int32) (bool, error) {
	key := rediskey.VerifyCodeKey(email, codeType)
	val, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, WrapRedisError(err)
	}
	return val == code, nil
}

// DeleteVerifyCode 删除验证码（校验通过后消耗）
func (r *userRepositoryImpl) DeleteVerifyCode(ctx context.Context, email string, codeType int32) error {
	key := rediskey.VerifyCodeKey(email, codeType)
	if err := r.redisClient.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return WrapRedisError(err)
	}
	return nil
}

// VerifyCodeRateLimit 验证码发送限流校验
// 1 分钟内最多 1 次，24 小时内最多 10 次
func (r *userRepositoryImpl) VerifyCodeRateLimit(ctx context.Context, email string) (bool, error) {
	pipe := r.redisClient.Pipeline()
	minuteCmd := pipe.Get(ctx, rediskey.VerifyCodeMinuteKey(email))
	dayCmd := pipe.Get(ctx, rediskey.VerifyCode24HKey(email))
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return false, WrapRedisError(err)
	}

	if minuteCmd.Err() == nil {
		return true, nil
	}
	if dayCmd.Err() == nil {
		if count, convErr := dayCmd.Int64(); convErr == nil && count >= 10 {
			return true, nil
		}
	}
	return false, nil
}

// IncrementVerifyCodeCount 递增验证码发送计数
func (r *userRepositoryImpl) IncrementVerifyCodeCount(ctx context.Context, email string) error {
	pipe := r.redisClient.Pipeline()
	pipe.Set(ctx, rediskey.VerifyCodeMinuteKey(email), 1, rediskey.VerifyCodeMinuteTTL)
	dayKey := rediskey.VerifyCode24HKey(email)
	pipe.Incr(ctx, dayKey)
	pipe.Expire(ctx, dayKey, rediskey.VerifyCode24HTTL)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return WrapRedisError(err)
	}
	return nil
}

// ==================== 密码重置令牌 ====================

// StoreResetToken 存储密码重置令牌
func (r *userRepositoryImpl) StoreResetToken(ctx context.Context, token, userUUID string) error {
	key := rediskey.ResetTokenKey(token)
	if err := r.redisClient.Set(ctx, key, userUUID, rediskey.ResetTokenTTL).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// ConsumeResetToken 消耗密码重置令牌（GetDel 保证一次性）
func (r *userRepositoryImpl) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := rediskey.ResetTokenKey(token)
	uuid, err := r.redisClient.GetDel(ctx, key).Result()
	if err != nil {
		return "", WrapRedisError(err)
	}
	return uuid, nil
}

// ==================== 访问令牌白名单 ====================

// StoreAccessToken 存储访问令牌，同一用户重复登录直接覆盖旧令牌
func (r *userRepositoryImpl) StoreAccessToken(ctx context.Context, userUUID, token string, expire time.Duration) error {
	key := rediskey.AccessTokenKey(userUUID)
	if err := r.redisClient.Set(ctx, key, token, expire).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// RevokeAccessToken 登出时撤销访问令牌，并顺带清理用户的温启动缓存
func (r *userRepositoryImpl) RevokeAccessToken(ctx context.Context, userUUID string) error {
	keys := []string{
		rediskey.AccessTokenKey(userUUID),
		rediskey.RecentFriendKey(userUUID),
		rediskey.FriendRelationKey(userUUID),
	}
	if err := r.redisClient.Del(ctx, keys...).Err(); err != nil && err != redis.Nil {
		return WrapRedisError(err)
	}
	return nil
}

// ==================== 头像底色 ====================

// GetAvatarColor 读取头像底色缓存
func (r *userRepositoryImpl) GetAvatarColor(ctx context.Context, userUUID string) (string, error) {
	val, err := r.redisClient.Get(ctx, rediskey.AvatarColorKey(userUUID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", WrapRedisError(err)
	}
	return val, nil
}

// SetAvatarColor 写入头像底色缓存
func (r *userRepositoryImpl) SetAvatarColor(ctx context.Context, userUUID, color string) error {
	err := r.redisClient.Set(ctx, rediskey.AvatarColorKey(userUUID), color, rediskey.AvatarColorTTL).Err()
	if err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// ==================== 缓存辅助 ====================

// cacheUserAsync 异步回填用户信息缓存
func (r *userRepositoryImpl) cacheUserAsync(ctx context.Context, user *model.UserInfo) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		data, err := json.Marshal(user)
		if err != nil {
			return
		}
		key := rediskey.UserInfoKey(user.Uuid)
		if err := r.redisClient.Set(runCtx, key, data, getRandomExpireTime(rediskey.UserInfoTTL)).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// invalidateDisplayNameCacheAsync 异步失效昵称反查缓存。
// 注册清掉未命中占位，改名同时清掉新旧昵称，否则旧昵称在
// TTL 内仍会解析到改名后的用户。
func (r *userRepositoryImpl) invalidateDisplayNameCacheAsync(ctx context.Context, names ...string) {
	keys := displayNameKeysToInvalidate(names...)
	if len(keys) == 0 {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, keys...).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// displayNameKeysToInvalidate 去空去重后映射为昵称反查 key
func displayNameKeysToInvalidate(names ...string) []string {
	seen := make(map[string]struct{}, len(names))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		keys = append(keys, rediskey.DisplayNameKey(name))
	}
	return keys
}

// invalidateUserCacheAsync 异步失效用户信息缓存（写后删）
func (r *userRepositoryImpl) invalidateUserCacheAsync(ctx context.Context, userUUID string) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, rediskey.UserInfoKey(userUUID)).Err(); err != nil && err != redis.Nil {
			logger.Error(runCtx, "用户缓存失效失败",
				logger.String("user_uuid", userUUID),
				logger.ErrorField(err),
			)
		}
	}, 0)
}
