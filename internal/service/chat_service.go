package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bhavyaajainn/chatly/consts"
	rediskey "github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/feed"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/giphy"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/minio"
	"github.com/bhavyaajainn/chatly/pkg/redis"
	"github.com/bhavyaajainn/chatly/pkg/util"
)

const (
	// messageFetchLimit 单次拉取会话消息的上限
	messageFetchLimit = 500

	// gifSearchDefaultLimit GIF 搜索默认返回条数
	gifSearchDefaultLimit = 25
)

// chatServiceImpl 聊天服务实现
type chatServiceImpl struct {
	msgRepo    repository.IMessageRepository
	friendRepo repository.IFriendRepository
	store      AttachmentStore
	gifs       GifSearcher
	notifier   FeedNotifier
	producer   EventProducer
}

// NewChatService 创建聊天服务实例。
// notifier 与 producer 可为 nil，对应能力未启用时跳过。
func NewChatService(
	msgRepo repository.IMessageRepository,
	friendRepo repository.IFriendRepository,
	store AttachmentStore,
	gifs GifSearcher,
	notifier FeedNotifier,
	producer EventProducer,
) ChatService {
	return &chatServiceImpl{
		msgRepo:    msgRepo,
		friendRepo: friendRepo,
		store:      store,
		gifs:       gifs,
		notifier:   notifier,
		producer:   producer,
	}
}

// uploadedAttachment 单个附件的上传结果
type uploadedAttachment struct {
	name   string
	result *minio.UploadResult
	err    error
}

// SendMessage 发送消息
// 业务流程：
//  1. 校验好友关系与消息非空
//  2. 并行上传全部附件，任一失败整体失败并清理已传对象
//  3. 按检测到的 Content-Type 归类图片/文件
//  4. 消息落库，更新会话元数据预览
//  5. 记最近联系人，异步投递事件、通知订阅者
//
// 错误码映射：
//   - 12003 双方不是好友
//   - 10001 消息内容为空
//   - 13004 附件上传失败
func (s *chatServiceImpl) SendMessage(ctx context.Context, senderUUID string, req *dto.SendMessageRequest, attachments []Attachment) (*dto.MessageItem, error) {
	// 1. 好友关系校验
	isFriend, err := s.friendRepo.ExistsAccepted(ctx, senderUUID, req.PeerUUID)
	if err != nil {
		logger.Error(ctx, "查询好友关系失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if !isFriend {
		return nil, utils.NewBizError(consts.CodeNotFriend)
	}

	// 空消息拒绝
	if strings.TrimSpace(req.Text) == "" && req.GifURL == "" && len(attachments) == 0 {
		return nil, utils.NewBizErrorWithMessage(consts.CodeParamError, "消息内容为空")
	}

	channelID := feed.ResolveChannelID(senderUUID, req.PeerUUID)

	// 2. 并行上传附件
	uploaded := s.uploadAttachments(ctx, channelID, attachments)
	var imageURLs []string
	var files []model.FileMeta
	for _, up := range uploaded {
		if up.err != nil {
			// 任一失败整体失败，已传对象尽力清理
			s.cleanupUploads(ctx, uploaded)
			logger.Error(ctx, "附件上传失败",
				logger.String("file_name", up.name),
				logger.ErrorField(up.err),
			)
			return nil, utils.NewBizError(consts.CodeAttachmentUploadFail)
		}
		// 3. 按内容嗅探结果归类
		if strings.HasPrefix(up.result.ContentType, "image/") {
			imageURLs = append(imageURLs, up.result.URL)
		} else {
			files = append(files, model.FileMeta{Name: up.name, Url: up.result.URL})
		}
	}

	// 4. 消息落库
	msg := &model.Message{
		Id:         util.NextID(),
		ChannelId:  channelID,
		SenderUuid: senderUUID,
		Text:       req.Text,
		ImageUrls:  imageURLs,
		Files:      files,
		GifUrl:     req.GifURL,
	}
	created, err := s.msgRepo.CreateMessage(ctx, msg)
	if err != nil {
		s.cleanupUploads(ctx, uploaded)
		logger.Error(ctx, "消息落库失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 会话元数据，预览按 文本 > 图片 > 文件 > GIF 取值
	userA, userB, _ := feed.SplitChannelID(channelID)
	now := created.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	meta := &model.ChannelMeta{
		ChannelId:     channelID,
		UserAUuid:     userA,
		UserBUuid:     userB,
		LastMessage:   feed.DerivePreview(req.Text, len(imageURLs), len(files), req.GifURL),
		LastMessageAt: &now,
	}
	if err := s.msgRepo.UpsertChannelMeta(ctx, meta); err != nil {
		logger.Error(ctx, "更新会话元数据失败", logger.ErrorField(err))
	}

	// 5. 最近联系人 + 异步通知
	if err := s.friendRepo.TouchRecentFriend(ctx, senderUUID, req.PeerUUID); err != nil {
		logger.Warn(ctx, "记录最近联系人失败", logger.ErrorField(err))
	}
	s.afterSendAsync(ctx, channelID, created)

	return toMessageItem(created), nil
}

// uploadAttachments 并行上传附件，返回与入参等长的结果切片
func (s *chatServiceImpl) uploadAttachments(ctx context.Context, channelID string, attachments []Attachment) []uploadedAttachment {
	if len(attachments) == 0 {
		return nil
	}

	results := make([]uploadedAttachment, len(attachments))
	var wg sync.WaitGroup
	for i, att := range attachments {
		i, att := i, att
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.uploadOne(ctx, channelID, att)
		}
		if err := async.Submit(task); err != nil {
			// 协程池不可用时退化为同步上传
			task()
		}
	}
	wg.Wait()
	return results
}

func (s *chatServiceImpl) uploadOne(ctx context.Context, channelID string, att Attachment) uploadedAttachment {
	reader, err := att.Open()
	if err != nil {
		return uploadedAttachment{name: att.Name, err: err}
	}
	defer reader.Close()

	result, err := s.store.Upload(ctx, reader, att.Size, minio.UploadOptions{
		PathPrefix: "chat/" + channelID,
		FileName:   att.Name,
	})
	return uploadedAttachment{name: att.Name, result: result, err: err}
}

// cleanupUploads 清理已上传成功的对象，失败只记日志
func (s *chatServiceImpl) cleanupUploads(ctx context.Context, uploaded []uploadedAttachment) {
	var objectNames []string
	for _, up := range uploaded {
		if up.err == nil && up.result != nil {
			objectNames = append(objectNames, up.result.ObjectName)
		}
	}
	if len(objectNames) == 0 {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		for _, err := range s.store.DeleteMultiple(runCtx, objectNames) {
			if err != nil {
				logger.Warn(runCtx, "清理附件失败", logger.ErrorField(err))
			}
		}
	}, 0)
}

// afterSendAsync 发送成功后的异步动作：投递事件、通知会话订阅者
func (s *chatServiceImpl) afterSendAsync(ctx context.Context, channelID string, msg *model.Message) {
	producer := s.producer
	notifier := s.notifier
	async.RunSafe(ctx, func(runCtx context.Context) {
		if producer != nil {
			if err := producer.PublishMessageSent(runCtx, channelID, util.FormatID(msg.Id), msg.SenderUuid); err != nil {
				logger.Warn(runCtx, "投递消息事件失败", logger.ErrorField(err))
			}
		}
		if notifier != nil {
			notifier.NotifyChannel(runCtx, channelID)
		}
	}, 0)
}

// ListMessages 拉取与对端的会话消息，过滤己方已删除的，按时间升序
func (s *chatServiceImpl) ListMessages(ctx context.Context, userUUID, peerUUID string) (*dto.MessageListResponse, error) {
	channelID := feed.ResolveChannelID(userUUID, peerUUID)

	msgs, err := s.msgRepo.ListByChannel(ctx, channelID, messageFetchLimit)
	if err != nil {
		logger.Error(ctx, "拉取会话消息失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	visible := feed.FilterVisible(msgs, userUUID)
	items := make([]*dto.MessageItem, 0, len(visible))
	for i := range visible {
		items = append(items, toMessageItem(&visible[i]))
	}
	return &dto.MessageListResponse{ChannelID: channelID, Items: items}, nil
}

// ListChannels 会话列表，按最近消息时间倒序
func (s *chatServiceImpl) ListChannels(ctx context.Context, userUUID string) (*dto.ChannelListResponse, error) {
	metas, err := s.msgRepo.ListChannelsForUser(ctx, userUUID)
	if err != nil {
		logger.Error(ctx, "查询会话列表失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	items := make([]*dto.ChannelItem, 0, len(metas))
	for _, meta := range metas {
		peer := meta.UserAUuid
		if peer == userUUID {
			peer = meta.UserBUuid
		}
		item := &dto.ChannelItem{
			ChannelID:   meta.ChannelId,
			PeerUUID:    peer,
			LastMessage: meta.LastMessage,
		}
		if meta.LastMessageAt != nil {
			item.LastMessageAt = meta.LastMessageAt.UnixMilli()
		}
		items = append(items, item)
	}
	return &dto.ChannelListResponse{Items: items}, nil
}

// DeleteChat 单方删除与对端的会话。
// 己方视角消息全部隐藏；双方都删除过的消息物理删除，
// 附件异步从对象存储清理。重复删除幂等。
func (s *chatServiceImpl) DeleteChat(ctx context.Context, userUUID, peerUUID string) error {
	channelID := feed.ResolveChannelID(userUUID, peerUUID)

	purged, err := s.msgRepo.MarkDeletedForUser(ctx, channelID, userUUID)
	if err != nil {
		logger.Error(ctx, "删除会话失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	// 被物理删除消息的附件异步清理
	if len(purged) > 0 {
		store := s.store
		async.RunSafe(ctx, func(runCtx context.Context) {
			var objectNames []string
			for _, rawURL := range purged {
				if name := store.ObjectNameFromURL(rawURL); name != "" {
					objectNames = append(objectNames, name)
				}
			}
			if len(objectNames) == 0 {
				return
			}
			for _, err := range store.DeleteMultiple(runCtx, objectNames) {
				if err != nil {
					logger.Warn(runCtx, "清理附件失败", logger.ErrorField(err))
				}
			}
		}, 0)
	}

	logger.Info(ctx, "会话已删除",
		logger.String("channel_id", channelID),
		logger.String("user_uuid", userUUID),
		logger.Int("purged_attachments", len(purged)),
	)
	return nil
}

// SearchGifs 搜索 GIF，结果短暂缓存，上游熔断时返回服务不可用
func (s *chatServiceImpl) SearchGifs(ctx context.Context, query string, limit int) (*dto.GifSearchResponse, error) {
	if limit <= 0 {
		limit = gifSearchDefaultLimit
	}

	// 缓存优先
	cacheKey := rediskey.GifSearchKey(query, limit)
	if rdb := redis.Client(); rdb != nil {
		if raw, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var items []*dto.GifItem
			if json.Unmarshal([]byte(raw), &items) == nil {
				return &dto.GifSearchResponse{Items: items}, nil
			}
		}
	}

	gifs, err := s.gifs.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, giphy.ErrUnavailable) {
			return nil, utils.NewBizError(consts.CodeServiceUnavailable)
		}
		logger.Error(ctx, "GIF 搜索失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	items := make([]*dto.GifItem, 0, len(gifs))
	for _, g := range gifs {
		items = append(items, &dto.GifItem{ID: g.ID, Title: g.Title, URL: g.URL})
	}

	// 结果异步写缓存
	if rdb := redis.Client(); rdb != nil {
		async.RunSafe(ctx, func(runCtx context.Context) {
			raw, err := json.Marshal(items)
			if err != nil {
				return
			}
			if err := rdb.Set(runCtx, cacheKey, raw, rediskey.GifSearchTTL).Err(); err != nil {
				logger.Warn(runCtx, "写入 GIF 缓存失败", logger.ErrorField(err))
			}
		}, 0)
	}

	return &dto.GifSearchResponse{Items: items}, nil
}

func toMessageItem(msg *model.Message) *dto.MessageItem {
	files := make([]dto.FileItem, 0, len(msg.Files))
	for _, f := range msg.Files {
		files = append(files, dto.FileItem{Name: f.Name, URL: f.Url})
	}
	return &dto.MessageItem{
		ID:         util.FormatID(msg.Id),
		ChannelID:  msg.ChannelId,
		SenderUUID: msg.SenderUuid,
		Text:       msg.Text,
		ImageURLs:  msg.ImageUrls,
		Files:      files,
		GifURL:     msg.GifUrl,
		Timestamp:  msg.CreatedAt.UnixMilli(),
	}
}
