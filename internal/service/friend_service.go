package service

import (
	"context"
	"errors"
	"time"

	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/cache"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/util"
)

// 好友资料本地缓存，列表渲染高频读
const (
	friendVOCacheSize = 1024
	friendVOCacheTTL  = 30 * time.Second
)

// friendServiceImpl 好友服务实现
type friendServiceImpl struct {
	friendRepo repository.IFriendRepository
	userRepo   repository.IUserRepository
	// voCache 好友 VO 的进程内热缓存，减少列表接口的逐人回查
	voCache *cache.TTLCache[*dto.FriendItem]
}

// NewFriendService 创建好友服务实例
func NewFriendService(friendRepo repository.IFriendRepository, userRepo repository.IUserRepository) FriendService {
	// 容量为正常量，构造不会失败
	voCache, _ := cache.NewTTLCache[*dto.FriendItem](friendVOCacheSize, friendVOCacheTTL)
	return &friendServiceImpl{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		voCache:    voCache,
	}
}

// SendRequest 发送好友申请
// 业务流程：
//  1. 按昵称检索目标用户
//  2. 不能添加自己
//  3. 任一方向已是好友则冲突
//  4. 同方向已有待处理申请则冲突
//  5. 创建申请记录（带双方昵称快照）
//
// 错误码映射：
//   - 11001 目标用户不存在
//   - 12004 不能添加自己
//   - 12001 已经是好友
//   - 12002 申请已发送
func (s *friendServiceImpl) SendRequest(ctx context.Context, senderUUID, displayName string) (*dto.SendFriendRequestResponse, error) {
	logger.Info(ctx, "发送好友申请",
		logger.String("sender_uuid", senderUUID),
		logger.String("display_name", displayName),
	)

	// 1. 按昵称检索目标用户
	receiver, err := s.userRepo.GetByDisplayName(ctx, displayName)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		logger.Error(ctx, "检索目标用户失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 2. 不能添加自己
	if receiver.Uuid == senderUUID {
		return nil, utils.NewBizError(consts.CodeCannotAddSelf)
	}

	// 3. 任一方向已是好友
	isFriend, err := s.friendRepo.ExistsAccepted(ctx, senderUUID, receiver.Uuid)
	if err != nil {
		logger.Error(ctx, "查询好友关系失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if isFriend {
		return nil, utils.NewBizError(consts.CodeAlreadyFriend)
	}

	// 4. 同方向已有待处理申请
	pending, err := s.friendRepo.ExistsPending(ctx, senderUUID, receiver.Uuid)
	if err != nil {
		logger.Error(ctx, "查询待处理申请失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if pending {
		return nil, utils.NewBizError(consts.CodeFriendRequestSent)
	}

	// 5. 创建申请记录，昵称存快照，列表展示不再回查
	sender, err := s.userRepo.GetByUUID(ctx, senderUUID)
	if err != nil {
		logger.Error(ctx, "查询发起方失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	req := &model.FriendRequest{
		SenderUuid:          senderUUID,
		ReceiverUuid:        receiver.Uuid,
		SenderDisplayName:   sender.DisplayName,
		ReceiverDisplayName: receiver.DisplayName,
		Status:              model.RequestStatusPending,
	}
	if _, err := s.friendRepo.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// 并发下撞唯一索引，等价于申请已发送
			return nil, utils.NewBizError(consts.CodeFriendRequestSent)
		}
		logger.Error(ctx, "创建好友申请失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	return &dto.SendFriendRequestResponse{ReceiverUUID: receiver.Uuid}, nil
}

// AcceptRequest 同意好友申请。
// 申请已被处理（同意过、拒绝过或被撤回后重发）时静默成功，
// 客户端重复点击不会看到报错。
func (s *friendServiceImpl) AcceptRequest(ctx context.Context, receiverUUID, senderUUID string) error {
	alreadyHandled, err := s.friendRepo.AcceptRequest(ctx, senderUUID, receiverUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return utils.NewBizError(consts.CodeApplyNotFoundOrDealt)
		}
		logger.Error(ctx, "同意好友申请失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	if alreadyHandled {
		logger.Info(ctx, "申请已处理，幂等返回",
			logger.String("sender_uuid", senderUUID),
			logger.String("receiver_uuid", receiverUUID),
		)
		return nil
	}

	logger.Info(ctx, "好友申请已同意",
		logger.String("sender_uuid", senderUUID),
		logger.String("receiver_uuid", receiverUUID),
	)
	return nil
}

// RejectRequest 拒绝好友申请，已处理时静默成功
func (s *friendServiceImpl) RejectRequest(ctx context.Context, receiverUUID, senderUUID string) error {
	alreadyHandled, err := s.friendRepo.RejectRequest(ctx, senderUUID, receiverUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return utils.NewBizError(consts.CodeApplyNotFoundOrDealt)
		}
		logger.Error(ctx, "拒绝好友申请失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	if alreadyHandled {
		return nil
	}
	return nil
}

// CancelRequest 撤回自己发出的待处理申请
func (s *friendServiceImpl) CancelRequest(ctx context.Context, senderUUID, receiverUUID string) error {
	if err := s.friendRepo.DeletePending(ctx, senderUUID, receiverUUID); err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return utils.NewBizError(consts.CodeApplyNotFoundOrDealt)
		}
		logger.Error(ctx, "撤回好友申请失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	return nil
}

// RemoveFriend 删除好友，物理删除双方任一方向的已同意记录
func (s *friendServiceImpl) RemoveFriend(ctx context.Context, userUUID, friendUUID string) error {
	if err := s.friendRepo.DeleteAccepted(ctx, userUUID, friendUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeNotFriend)
		}
		logger.Error(ctx, "删除好友失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	s.voCache.Remove(friendUUID)

	// 最近联系人指向被删除的好友时一并清除
	if err := s.friendRepo.ClearRecentFriend(ctx, userUUID, friendUUID); err != nil {
		logger.Warn(ctx, "清除最近联系人失败", logger.ErrorField(err))
	}

	logger.Info(ctx, "好友已删除",
		logger.String("user_uuid", userUUID),
		logger.String("friend_uuid", friendUUID),
	)
	return nil
}

// ListRequests 收到与发出的待处理申请
func (s *friendServiceImpl) ListRequests(ctx context.Context, userUUID string) (*dto.FriendRequestListResponse, error) {
	incoming, err := s.friendRepo.ListIncomingPending(ctx, userUUID)
	if err != nil {
		logger.Error(ctx, "查询收到的申请失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	outgoing, err := s.friendRepo.ListOutgoingPending(ctx, userUUID)
	if err != nil {
		logger.Error(ctx, "查询发出的申请失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	resp := &dto.FriendRequestListResponse{
		Incoming: make([]*dto.FriendRequestItem, 0, len(incoming)),
		Outgoing: make([]*dto.FriendRequestItem, 0, len(outgoing)),
	}
	for _, req := range incoming {
		resp.Incoming = append(resp.Incoming, toFriendRequestItem(req))
	}
	for _, req := range outgoing {
		resp.Outgoing = append(resp.Outgoing, toFriendRequestItem(req))
	}
	return resp, nil
}

// ListFriends 好友列表
// 业务流程：
//  1. 查询用户参与的全部已同意记录（两个方向）
//  2. 按对端 uuid 去重
//  3. 逐人补全资料（进程内缓存 -> 用户缓存/库）
//  4. 附带最近联系好友
func (s *friendServiceImpl) ListFriends(ctx context.Context, userUUID string) (*dto.FriendListResponse, error) {
	// 1. 两个方向的已同意记录
	records, err := s.friendRepo.ListAcceptedInvolving(ctx, userUUID)
	if err != nil {
		logger.Error(ctx, "查询好友关系失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 2. 按对端 uuid 去重，保持记录顺序
	seen := make(map[string]struct{}, len(records))
	peers := make([]string, 0, len(records))
	for _, rec := range records {
		peer := rec.SenderUuid
		if peer == userUUID {
			peer = rec.ReceiverUuid
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		peers = append(peers, peer)
	}

	// 3. 补全资料
	items := make([]*dto.FriendItem, 0, len(peers))
	for _, peer := range peers {
		item, err := s.friendItem(ctx, peer)
		if err != nil {
			// 单个好友资料缺失不拖垮整个列表
			logger.Warn(ctx, "补全好友资料失败",
				logger.String("friend_uuid", peer),
				logger.ErrorField(err),
			)
			continue
		}
		items = append(items, item)
	}

	// 4. 最近联系的好友
	recent, err := s.friendRepo.GetRecentFriend(ctx, userUUID)
	if err != nil {
		logger.Warn(ctx, "读取最近联系好友失败", logger.ErrorField(err))
		recent = ""
	}
	if _, ok := seen[recent]; !ok {
		recent = ""
	}

	return &dto.FriendListResponse{Items: items, RecentFriend: recent}, nil
}

// friendItem 读取单个好友的展示资料，进程内缓存优先
func (s *friendServiceImpl) friendItem(ctx context.Context, friendUUID string) (*dto.FriendItem, error) {
	if item, ok := s.voCache.Get(friendUUID); ok {
		return item, nil
	}

	user, err := s.userRepo.GetByUUID(ctx, friendUUID)
	if err != nil {
		return nil, err
	}

	color := user.AvatarColor
	if color == "" {
		color, err = s.userRepo.GetAvatarColor(ctx, friendUUID)
		if err != nil || color == "" {
			color = util.RandomLightColor()
			if err := s.userRepo.SetAvatarColor(ctx, friendUUID, color); err != nil {
				logger.Warn(ctx, "写入头像底色缓存失败", logger.ErrorField(err))
			}
		}
	}

	item := &dto.FriendItem{
		UUID:        user.Uuid,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarUrl,
		AvatarColor: color,
	}
	s.voCache.Set(friendUUID, item)
	return item, nil
}

func toFriendRequestItem(req *model.FriendRequest) *dto.FriendRequestItem {
	return &dto.FriendRequestItem{
		SenderUUID:          req.SenderUuid,
		SenderDisplayName:   req.SenderDisplayName,
		ReceiverUUID:        req.ReceiverUuid,
		ReceiverDisplayName: req.ReceiverDisplayName,
		Status:              model.RequestStatusText[req.Status],
		CreatedAt:           req.CreatedAt.UnixMilli(),
	}
}
