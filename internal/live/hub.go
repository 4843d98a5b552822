package live

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bhavyaajainn/chatly/internal/feed"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/logger"
)

// updateQueueSize 每个订阅的状态队列长度。
// 状态是全量快照，队列满时丢弃旧状态只保留最新即可。
const updateQueueSize = 8

// SnapshotFunc 拉取会话全量消息快照。
// 返回的消息未做可见性过滤，过滤由 feed.Reconcile 按订阅者视角完成。
type SnapshotFunc func(ctx context.Context, channelID string) ([]model.Message, error)

// Subscription 一个订阅者对单个会话的订阅。
// 设计要点：
// - updates 投递 feed.State 全量状态，消费方直接整体替换渲染；
// - done 用于统一取消信号，once 保证 Cancel 幂等；
// - state 保存上一次投递的状态，作为下一次调和的基准。
type Subscription struct {
	id        int64
	channelID string
	updates   chan feed.State
	done      chan struct{}
	once      sync.Once
	hub       *Hub

	mu    sync.Mutex
	state feed.State
}

// Updates 返回状态流，订阅取消后不再有新状态投递。
func (s *Subscription) Updates() <-chan feed.State {
	return s.updates
}

// Done 返回取消信号通道。
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// ChannelID 返回订阅的会话 id。
func (s *Subscription) ChannelID() string {
	return s.channelID
}

// Cancel 幂等取消订阅：从 hub 注销并关闭取消信号。
// updates 通道不关闭，消费方通过 Done 感知结束。
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.unregister(s)
		close(s.done)
	})
}

// push 投递新状态并更新调和基准。
// 队列满时丢弃最旧状态，保证最新状态总能送达。
func (s *Subscription) push(next feed.State) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	for {
		select {
		case <-s.done:
			return
		case s.updates <- next:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// snapshotState 返回当前调和基准状态
func (s *Subscription) snapshotState() feed.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Hub 会话订阅中心。
// 消息写入方通过 NotifyChannel 触发会话快照重拉，hub 对每个
// 订阅者按其视角调和出新状态并投递。
type Hub struct {
	snapshot SnapshotFunc
	nextID   atomic.Int64

	mu       sync.RWMutex
	channels map[string]map[int64]*Subscription
}

// NewHub 创建订阅中心
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		snapshot: snapshot,
		channels: make(map[string]map[int64]*Subscription),
	}
}

// Subscribe 订阅与对端的会话。
// 订阅建立后立即投递加载中状态，随后异步拉取快照转入在线状态。
func (h *Hub) Subscribe(ctx context.Context, viewerUUID, peerUUID string) *Subscription {
	channelID := feed.ResolveChannelID(viewerUUID, peerUUID)
	loading := feed.NewState(channelID, viewerUUID)
	sub := &Subscription{
		id:        h.nextID.Add(1),
		channelID: channelID,
		updates:   make(chan feed.State, updateQueueSize),
		done:      make(chan struct{}),
		hub:       h,
		// 注册前先定好调和基准，并发 NotifyChannel 不会
		// 拿零值状态（空 viewer）做调和
		state: loading,
	}

	// 加载中帧先入队再注册，并发通知的调和结果必然排在其后
	sub.push(loading)

	h.mu.Lock()
	subs, ok := h.channels[channelID]
	if !ok {
		subs = make(map[int64]*Subscription)
		h.channels[channelID] = subs
	}
	subs[sub.id] = sub
	h.mu.Unlock()

	async.RunSafe(ctx, func(runCtx context.Context) {
		msgs, err := h.snapshot(runCtx, channelID)
		if err != nil {
			logger.Error(runCtx, "拉取会话快照失败",
				logger.String("channel_id", channelID),
				logger.ErrorField(err),
			)
			return
		}
		sub.push(feed.Reconcile(sub.snapshotState(), msgs))
	}, 0)

	return sub
}

// NotifyChannel 会话有变化（新消息、删除）时调用。
// 快照只拉一次，对会话下每个订阅者按各自视角调和后投递。
func (h *Hub) NotifyChannel(ctx context.Context, channelID string) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.channels[channelID]))
	for _, sub := range h.channels[channelID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	msgs, err := h.snapshot(ctx, channelID)
	if err != nil {
		logger.Error(ctx, "拉取会话快照失败",
			logger.String("channel_id", channelID),
			logger.ErrorField(err),
		)
		return
	}

	for _, sub := range subs {
		sub.push(feed.Reconcile(sub.snapshotState(), msgs))
	}
}

// Count 当前订阅总数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, subs := range h.channels {
		total += len(subs)
	}
	return total
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[sub.channelID]
	if !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.channels, sub.channelID)
	}
}
