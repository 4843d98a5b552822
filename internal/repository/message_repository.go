package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// messageRepositoryImpl 消息与会话元数据访问层实现
type messageRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB, redisClient *redis.Client) IMessageRepository {
	return &messageRepositoryImpl{db: db, redisClient: redisClient}
}

// CreateMessage 写入一条消息
func (r *messageRepositoryImpl) CreateMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return msg, nil
}

// ListByChannel 按 (created_at, id) 升序返回会话内全部消息
func (r *messageRepositoryImpl) ListByChannel(ctx context.Context, channelID string, limit int) ([]model.Message, error) {
	query := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var msgs []model.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return msgs, nil
}

// MarkDeletedForUser 单方删除会话。
// 事务内逐条处理：delete_by 不含该用户时追加；追加后双方都在
// delete_by 里的消息物理删除。重复调用是幂等的（已含 uid 的消息跳过）。
func (r *messageRepositoryImpl) MarkDeletedForUser(ctx context.Context, channelID, userUUID string) ([]string, error) {
	var purged []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msgs []model.Message
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("channel_id = ?", channelID).
			Find(&msgs).Error; err != nil {
			return err
		}

		var purgeIDs []int64
		for i := range msgs {
			msg := &msgs[i]
			already := false
			for _, uid := range msg.DeleteBy {
				if uid == userUUID {
					already = true
					break
				}
			}
			if already {
				continue
			}

			deleteBy := append(msg.DeleteBy, userUUID)
			if len(deleteBy) >= 2 {
				// 双方都已删除，物理删除并收集附件待清理
				purgeIDs = append(purgeIDs, msg.Id)
				purged = append(purged, msg.ImageUrls...)
				for _, f := range msg.Files {
					purged = append(purged, f.Url)
				}
				continue
			}

			if err := tx.Model(&model.Message{}).
				Where("id = ?", msg.Id).
				Update("delete_by", deleteBy).Error; err != nil {
				return err
			}
		}

		if len(purgeIDs) > 0 {
			if err := tx.Where("id IN ?", purgeIDs).Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return purged, nil
}

// UpsertChannelMeta 发送消息时更新会话元数据（不存在则创建）
func (r *messageRepositoryImpl) UpsertChannelMeta(ctx context.Context, meta *model.ChannelMeta) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_message":    meta.LastMessage,
			"last_message_at": meta.LastMessageAt,
			"updated_at":      time.Now(),
		}),
	}).Create(meta).Error
	if err != nil {
		return WrapDBError(err)
	}

	// 写后删，下次读取重建
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, rediskey.ChannelMetaKey(meta.ChannelId)).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)

	return nil
}

// GetChannelMeta 查询会话元数据（Cache-Aside）
func (r *messageRepositoryImpl) GetChannelMeta(ctx context.Context, channelID string) (*model.ChannelMeta, error) {
	cacheKey := rediskey.ChannelMetaKey(channelID)

	val, err := r.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		if val == pkgredis.EmptyPlaceholder {
			return nil, ErrRecordNotFound
		}
		var meta model.ChannelMeta
		if jsonErr := json.Unmarshal([]byte(val), &meta); jsonErr == nil {
			if getRandomBool(0.01) {
				r.redisClient.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.ChannelMetaTTL))
			}
			return &meta, nil
		}
		_ = r.redisClient.Del(ctx, cacheKey).Err()
	} else if err != redis.Nil {
		LogRedisError(ctx, err)
	}

	var meta model.ChannelMeta
	dbErr := r.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&meta).Error
	if dbErr != nil {
		wrapped := WrapDBError(dbErr)
		if wrapped == ErrRecordNotFound {
			async.RunSafe(ctx, func(runCtx context.Context) {
				if err := r.redisClient.Set(runCtx, cacheKey, pkgredis.EmptyPlaceholder, rediskey.ChannelMetaEmptyTTL).Err(); err != nil {
					LogRedisError(runCtx, err)
				}
			}, 0)
		}
		return nil, wrapped
	}

	async.RunSafe(ctx, func(runCtx context.Context) {
		data, err := json.Marshal(&meta)
		if err != nil {
			return
		}
		if err := r.redisClient.Set(runCtx, cacheKey, data, getRandomExpireTime(rediskey.ChannelMetaTTL)).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)

	return &meta, nil
}

// ListChannelsForUser 查询用户参与的会话，按最近消息时间倒序
func (r *messageRepositoryImpl) ListChannelsForUser(ctx context.Context, userUUID string) ([]*model.ChannelMeta, error) {
	var metas []*model.ChannelMeta
	err := r.db.WithContext(ctx).
		Where("user_a_uuid = ? OR user_b_uuid = ?", userUUID, userUUID).
		Order("last_message_at DESC").
		Find(&metas).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return metas, nil
}
