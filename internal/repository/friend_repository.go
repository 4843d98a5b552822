package repository

import (
	"context"

	"github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// friendRepositoryImpl 好友申请与好友关系数据访问层实现
type friendRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFriendRepository 创建好友仓储实例
func NewFriendRepository(db *gorm.DB, redisClient *redis.Client) IFriendRepository {
	return &friendRepositoryImpl{db: db, redisClient: redisClient}
}

// CreateRequest 创建好友申请
func (r *friendRepositoryImpl) CreateRequest(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, WrapDBError(err)
	}

	// 尽力而为地更新接收方的待处理申请缓存。
	// 只有 Key 存在时才增量添加，Key 不存在时交给读接口全量加载，
	// 避免 Key 过期后增量添加导致缓存数据不完整。
	cacheKey := rediskey.ApplyPendingKey(req.ReceiverUuid)
	luaScript := redis.NewScript(luaAddPendingIfExists)

	expireSeconds := int(getRandomExpireTime(rediskey.ApplyPendingTTL).Seconds())
	_, err := luaScript.Run(ctx, r.redisClient,
		[]string{cacheKey},
		req.CreatedAt.Unix(),
		req.SenderUuid,
		expireSeconds,
	).Result()
	if err != nil && err != redis.Nil {
		LogRedisError(ctx, err)
	}

	return req, nil
}

// GetRequest 查询指定方向的申请记录
func (r *friendRepositoryImpl) GetRequest(ctx context.Context, senderUUID, receiverUUID string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_uuid = ? AND receiver_uuid = ?", senderUUID, receiverUUID).
		First(&req).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &req, nil
}

// ExistsPending 检查 sender -> receiver 方向是否存在待处理申请
// Cache-Aside：优先查接收方维度的 Redis ZSet，未命中回源 MySQL 并异步重建
func (r *friendRepositoryImpl) ExistsPending(ctx context.Context, senderUUID, receiverUUID string) (bool, error) {
	cacheKey := rediskey.ApplyPendingKey(receiverUUID)

	// 1. 组合查询 Redis (Pipeline)
	pipe := r.redisClient.Pipeline()
	existsCmd := pipe.Exists(ctx, cacheKey)
	scoreCmd := pipe.ZScore(ctx, cacheKey, senderUUID)

	// 概率续期：1% 概率在读取时顺便续期
	if getRandomBool(0.01) {
		pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.ApplyPendingTTL))
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		LogRedisError(ctx, err)
	} else if existsCmd.Val() > 0 {
		if scoreCmd.Err() == nil {
			return true, nil
		}
		if scoreCmd.Err() == redis.Nil {
			return false, nil
		}
		LogRedisError(ctx, scoreCmd.Err())
	}

	// 2. 缓存未命中，回源查询 MySQL
	var pendings []model.FriendRequest
	err = r.db.WithContext(ctx).
		Where("receiver_uuid = ? AND status = ? AND deleted_at IS NULL", receiverUUID, model.RequestStatusPending).
		Find(&pendings).Error
	if err != nil {
		return false, WrapDBError(err)
	}

	// 3. 异步重建缓存 (ZSet)
	r.rebuildPendingCacheAsync(ctx, receiverUUID, pendings)

	// 4. 根据回源结果判断
	for _, p := range pendings {
		if p.SenderUuid == senderUUID {
			return true, nil
		}
	}
	return false, nil
}

// rebuildPendingCacheAsync 异步重建待处理申请的 Redis 缓存（需要全量数据）
func (r *friendRepositoryImpl) rebuildPendingCacheAsync(ctx context.Context, receiverUUID string, pendings []model.FriendRequest) {
	cacheKey := rediskey.ApplyPendingKey(receiverUUID)

	async.RunSafe(ctx, func(runCtx context.Context) {
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(pendings) == 0 {
			// 空值占位，防止缓存穿透
			pipe.ZAdd(runCtx, cacheKey, redis.Z{Score: 0, Member: pkgredis.EmptyPlaceholder})
			pipe.Expire(runCtx, cacheKey, rediskey.ApplyPendingEmptyTTL)
		} else {
			zs := make([]redis.Z, 0, len(pendings))
			for _, p := range pendings {
				zs = append(zs, redis.Z{
					Score:  float64(p.CreatedAt.Unix()),
					Member: p.SenderUuid,
				})
			}
			pipe.ZAdd(runCtx, cacheKey, zs...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.ApplyPendingTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// ExistsAccepted 检查双方任一方向是否已是好友
// 好友关系 Set 仅作热路径加速，未命中直接查库，不在这里重建
func (r *friendRepositoryImpl) ExistsAccepted(ctx context.Context, a, b string) (bool, error) {
	cacheKey := rediskey.FriendRelationKey(a)
	isMember, err := r.redisClient.SIsMember(ctx, cacheKey, b).Result()
	if err == nil && isMember {
		return true, nil
	}
	if err != nil && err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			LogRedisError(ctx, err)
		}
	}

	var count int64
	dbErr := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("status = ? AND deleted_at IS NULL", model.RequestStatusAccepted).
		Where("(sender_uuid = ? AND receiver_uuid = ?) OR (sender_uuid = ? AND receiver_uuid = ?)", a, b, b, a).
		Count(&count).Error
	if dbErr != nil {
		return false, WrapDBError(dbErr)
	}
	return count > 0, nil
}

// AcceptRequest 同意申请（CAS，WHERE status=0 作为守门员）
// RowsAffected=0 时说明申请不存在或已被处理，幂等成功
func (r *friendRepositoryImpl) AcceptRequest(ctx context.Context, senderUUID, receiverUUID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("sender_uuid = ? AND receiver_uuid = ? AND status = ?", senderUUID, receiverUUID, model.RequestStatusPending).
		Update("status", model.RequestStatusAccepted)
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return true, nil
	}

	// 事务外异步维护双方缓存：好友集合增量添加、待处理集合移除
	r.onRequestResolvedAsync(ctx, senderUUID, receiverUUID, true)
	return false, nil
}

// RejectRequest 拒绝申请（CAS，WHERE status=0）
func (r *friendRepositoryImpl) RejectRequest(ctx context.Context, senderUUID, receiverUUID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.FriendRequest{}).
		Where("sender_uuid = ? AND receiver_uuid = ? AND status = ?", senderUUID, receiverUUID, model.RequestStatusPending).
		Update("status", model.RequestStatusRejected)
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return true, nil
	}

	r.onRequestResolvedAsync(ctx, senderUUID, receiverUUID, false)
	return false, nil
}

// onRequestResolvedAsync 申请被处理后的缓存维护。
// accepted=true 时双向添加好友集合，任何结果都要把 sender 从
// receiver 的待处理集合里移除。
func (r *friendRepositoryImpl) onRequestResolvedAsync(ctx context.Context, senderUUID, receiverUUID string, accepted bool) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		expireSeconds := int(getRandomExpireTime(rediskey.FriendRelationTTL).Seconds())

		removeScript := redis.NewScript(luaRemovePendingIfExists)
		pendingKey := rediskey.ApplyPendingKey(receiverUUID)
		emptyTTL := int(rediskey.ApplyPendingEmptyTTL.Seconds())
		if _, err := removeScript.Run(runCtx, r.redisClient, []string{pendingKey}, senderUUID, emptyTTL).Result(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}

		if !accepted {
			return
		}

		addScript := redis.NewScript(luaAddFriendIfExists)
		pairs := [][2]string{
			{rediskey.FriendRelationKey(senderUUID), receiverUUID},
			{rediskey.FriendRelationKey(receiverUUID), senderUUID},
		}
		for _, pair := range pairs {
			if _, err := addScript.Run(runCtx, r.redisClient, []string{pair[0]}, pair[1], expireSeconds).Result(); err != nil && err != redis.Nil {
				if isRedisWrongType(err) {
					_ = r.redisClient.Del(runCtx, pair[0]).Err()
					continue
				}
				logger.Error(runCtx, "Redis 脚本执行失败", logger.ErrorField(err))
			}
		}
	}, 0)
}

// DeletePending 撤回待处理申请（物理删除）
func (r *friendRepositoryImpl) DeletePending(ctx context.Context, senderUUID, receiverUUID string) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("sender_uuid = ? AND receiver_uuid = ? AND status = ?", senderUUID, receiverUUID, model.RequestStatusPending).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}

	async.RunSafe(ctx, func(runCtx context.Context) {
		removeScript := redis.NewScript(luaRemovePendingIfExists)
		pendingKey := rediskey.ApplyPendingKey(receiverUUID)
		emptyTTL := int(rediskey.ApplyPendingEmptyTTL.Seconds())
		if _, err := removeScript.Run(runCtx, r.redisClient, []string{pendingKey}, senderUUID, emptyTTL).Result(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)

	return nil
}

// DeleteAccepted 删除好友（物理删除双方任一方向的已同意记录）
func (r *friendRepositoryImpl) DeleteAccepted(ctx context.Context, a, b string) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("status = ?", model.RequestStatusAccepted).
		Where("(sender_uuid = ? AND receiver_uuid = ?) OR (sender_uuid = ? AND receiver_uuid = ?)", a, b, b, a).
		Delete(&model.FriendRequest{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	// 双向移除好友集合缓存
	async.RunSafe(ctx, func(runCtx context.Context) {
		removeScript := redis.NewScript(luaRemoveFriendIfExists)
		emptyTTL := int(rediskey.FriendRelationEmptyTTL.Seconds())
		pairs := [][2]string{
			{rediskey.FriendRelationKey(a), b},
			{rediskey.FriendRelationKey(b), a},
		}
		for _, pair := range pairs {
			if _, err := removeScript.Run(runCtx, r.redisClient, []string{pair[0]}, pair[1], emptyTTL).Result(); err != nil && err != redis.Nil {
				LogRedisError(runCtx, err)
			}
		}
	}, 0)

	return nil
}

// ListIncomingPending 收到的待处理申请，按创建时间倒序
func (r *friendRepositoryImpl) ListIncomingPending(ctx context.Context, receiverUUID string) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("receiver_uuid = ? AND status = ? AND deleted_at IS NULL", receiverUUID, model.RequestStatusPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return reqs, nil
}

// ListOutgoingPending 发出的待处理申请，按创建时间倒序
func (r *friendRepositoryImpl) ListOutgoingPending(ctx context.Context, senderUUID string) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_uuid = ? AND status = ? AND deleted_at IS NULL", senderUUID, model.RequestStatusPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return reqs, nil
}

// ListAcceptedInvolving 查询用户参与的全部已同意记录（两个方向）
func (r *friendRepositoryImpl) ListAcceptedInvolving(ctx context.Context, userUUID string) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NULL", model.RequestStatusAccepted).
		Where("sender_uuid = ? OR receiver_uuid = ?", userUUID, userUUID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	// 顺带重建好友集合缓存，读多写少场景下命中率高
	r.rebuildFriendSetAsync(ctx, userUUID, reqs)
	return reqs, nil
}

// rebuildFriendSetAsync 异步重建好友集合缓存
func (r *friendRepositoryImpl) rebuildFriendSetAsync(ctx context.Context, userUUID string, accepted []*model.FriendRequest) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		cacheKey := rediskey.FriendRelationKey(userUUID)
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(accepted) == 0 {
			pipe.SAdd(runCtx, cacheKey, pkgredis.EmptyPlaceholder)
			pipe.Expire(runCtx, cacheKey, rediskey.FriendRelationEmptyTTL)
		} else {
			members := make([]interface{}, 0, len(accepted))
			for _, req := range accepted {
				other := req.SenderUuid
				if other == userUUID {
					other = req.ReceiverUuid
				}
				members = append(members, other)
			}
			pipe.SAdd(runCtx, cacheKey, members...)
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.FriendRelationTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// TouchRecentFriend 记录最近联系的好友
func (r *friendRepositoryImpl) TouchRecentFriend(ctx context.Context, userUUID, friendUUID string) error {
	key := rediskey.RecentFriendKey(userUUID)
	if err := r.redisClient.Set(ctx, key, friendUUID, rediskey.RecentFriendTTL).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// ClearRecentFriend 最近联系人指向该好友时清除指针（删除好友后调用）。
// 比较和删除在脚本里原子完成，不会误删并发写入的新指针。
func (r *friendRepositoryImpl) ClearRecentFriend(ctx context.Context, userUUID, friendUUID string) error {
	script := redis.NewScript(luaClearRecentIfMatch)
	key := rediskey.RecentFriendKey(userUUID)
	if _, err := script.Run(ctx, r.redisClient, []string{key}, friendUUID).Result(); err != nil && err != redis.Nil {
		return WrapRedisError(err)
	}
	return nil
}

// GetRecentFriend 读取最近联系的好友
func (r *friendRepositoryImpl) GetRecentFriend(ctx context.Context, userUUID string) (string, error) {
	val, err := r.redisClient.Get(ctx, rediskey.RecentFriendKey(userUUID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", WrapRedisError(err)
	}
	return val, nil
}
