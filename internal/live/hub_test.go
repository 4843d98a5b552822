package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/internal/feed"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var hubTestOnce sync.Once

func initHubTest() {
	hubTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		// 订阅的快照加载走协程池，测试前必须初始化
		if err := async.Init(config.DefaultAsyncConfig()); err != nil {
			panic(err)
		}
	})
}

// channelStore 可变的会话消息源，模拟消息写入方
type channelStore struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (c *channelStore) snapshot(_ context.Context, _ string) ([]model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.msgs))
	copy(out, c.msgs)
	return out, nil
}

func (c *channelStore) append(msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func waitState(t *testing.T, sub *Subscription) feed.State {
	t.Helper()
	select {
	case state := <-sub.Updates():
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed state")
		return feed.State{}
	}
}

// waitLive 跳过中间状态，等到指定消息数的在线状态
func waitLive(t *testing.T, sub *Subscription, wantLen int) feed.State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case state := <-sub.Updates():
			if state.Phase == feed.PhaseLive && len(state.Messages) == wantLen {
				return state
			}
		case <-deadline:
			t.Fatalf("timed out waiting for live state with %d messages", wantLen)
			return feed.State{}
		}
	}
}

func TestHubSubscribe(t *testing.T) {
	initHubTest()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := &channelStore{msgs: []model.Message{
		{Id: 2, ChannelId: "u1_u2", SenderUuid: "u2", Text: "second", CreatedAt: base.Add(time.Second)},
		{Id: 1, ChannelId: "u1_u2", SenderUuid: "u1", Text: "first", CreatedAt: base},
		{Id: 3, ChannelId: "u1_u2", SenderUuid: "u2", Text: "hidden", CreatedAt: base.Add(2 * time.Second), DeleteBy: []string{"u1"}},
	}}
	hub := NewHub(store.snapshot)

	sub := hub.Subscribe(context.Background(), "u1", "u2")
	defer sub.Cancel()

	assert.Equal(t, "u1_u2", sub.ChannelID())
	assert.Equal(t, 1, hub.Count())

	// 订阅建立先收到加载中，快照就绪后转入在线
	loading := waitState(t, sub)
	assert.Equal(t, feed.PhaseLoading, loading.Phase)
	assert.Empty(t, loading.Messages)

	live := waitState(t, sub)
	require.Equal(t, feed.PhaseLive, live.Phase)
	// 按时间升序，且己方删除过的消息不可见
	require.Len(t, live.Messages, 2)
	assert.Equal(t, "first", live.Messages[0].Text)
	assert.Equal(t, "second", live.Messages[1].Text)
}

func TestHubSubscribeSnapshotError(t *testing.T) {
	initHubTest()

	hub := NewHub(func(_ context.Context, _ string) ([]model.Message, error) {
		return nil, errors.New("db offline")
	})

	sub := hub.Subscribe(context.Background(), "u1", "u2")
	defer sub.Cancel()

	// 快照失败停留在加载中，不投递在线状态
	loading := waitState(t, sub)
	assert.Equal(t, feed.PhaseLoading, loading.Phase)

	select {
	case state := <-sub.Updates():
		t.Fatalf("unexpected state after snapshot failure: %v", state.Phase)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubSubscribeUnderConcurrentNotify(t *testing.T) {
	initHubTest()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := &channelStore{msgs: []model.Message{
		{Id: 1, ChannelId: "u1_u2", SenderUuid: "u2", Text: "visible", CreatedAt: base},
		{Id: 2, ChannelId: "u1_u2", SenderUuid: "u2", Text: "hidden", CreatedAt: base.Add(time.Second), DeleteBy: []string{"u1"}},
	}}
	hub := NewHub(store.snapshot)
	ctx := context.Background()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.NotifyChannel(ctx, "u1_u2")
				}
			}
		}()
	}

	// 订阅与通知并发时，任何一帧都必须是订阅者自己的视角：
	// 不出现零值状态，不泄露己方已删除的消息
	for i := 0; i < 200; i++ {
		sub := hub.Subscribe(ctx, "u1", "u2")

		state := waitState(t, sub)
		for drained := false; !drained; {
			assert.NotEqual(t, feed.PhaseClosed, state.Phase)
			assert.Equal(t, "u1", state.ViewerUUID)
			for _, msg := range state.Messages {
				assert.NotContains(t, msg.DeleteBy, "u1")
			}
			select {
			case state = <-sub.Updates():
			default:
				drained = true
			}
		}
		sub.Cancel()
	}

	close(stop)
	wg.Wait()
}

func TestHubNotifyChannelFanOut(t *testing.T) {
	initHubTest()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := &channelStore{msgs: []model.Message{
		{Id: 1, ChannelId: "u1_u2", SenderUuid: "u1", Text: "hello", CreatedAt: base},
	}}
	hub := NewHub(store.snapshot)
	ctx := context.Background()

	subA := hub.Subscribe(ctx, "u1", "u2")
	defer subA.Cancel()
	subB := hub.Subscribe(ctx, "u2", "u1")
	defer subB.Cancel()
	assert.Equal(t, 2, hub.Count())

	waitLive(t, subA, 1)
	waitLive(t, subB, 1)

	// 新消息对 u1 单方删除，通知后两个订阅者看到不同视图
	store.append(model.Message{
		Id: 2, ChannelId: "u1_u2", SenderUuid: "u2", Text: "only for u2",
		CreatedAt: base.Add(time.Second), DeleteBy: []string{"u1"},
	})
	hub.NotifyChannel(ctx, "u1_u2")

	stateA := waitState(t, subA)
	require.Equal(t, feed.PhaseLive, stateA.Phase)
	require.Len(t, stateA.Messages, 1)
	assert.Equal(t, "hello", stateA.Messages[0].Text)

	stateB := waitLive(t, subB, 2)
	assert.Equal(t, "only for u2", stateB.Messages[1].Text)
}

func TestHubNotifyWithoutSubscribers(t *testing.T) {
	initHubTest()

	called := false
	hub := NewHub(func(_ context.Context, _ string) ([]model.Message, error) {
		called = true
		return nil, nil
	})

	// 无订阅者不拉快照
	hub.NotifyChannel(context.Background(), "u1_u2")
	assert.False(t, called)
}

func TestHubCancel(t *testing.T) {
	initHubTest()

	store := &channelStore{}
	hub := NewHub(store.snapshot)
	ctx := context.Background()

	sub := hub.Subscribe(ctx, "u1", "u2")
	waitState(t, sub)
	waitLive(t, sub, 0)

	sub.Cancel()
	sub.Cancel() // 重复取消幂等
	assert.Equal(t, 0, hub.Count())

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel should be closed after cancel")
	}

	// 取消后的通知不再投递
	store.append(model.Message{Id: 1, ChannelId: "u1_u2", SenderUuid: "u2", Text: "late"})
	hub.NotifyChannel(ctx, "u1_u2")
	select {
	case state := <-sub.Updates():
		t.Fatalf("unexpected state after cancel: %v", state.Phase)
	case <-time.After(100 * time.Millisecond):
	}
}
