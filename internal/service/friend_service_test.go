package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var friendLoggerOnce sync.Once

func initFriendTestLogger() {
	friendLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

type fakeFriendRepo struct {
	repository.IFriendRepository

	createRequestFn         func(context.Context, *model.FriendRequest) (*model.FriendRequest, error)
	existsPendingFn         func(context.Context, string, string) (bool, error)
	existsAcceptedFn        func(context.Context, string, string) (bool, error)
	acceptRequestFn         func(context.Context, string, string) (bool, error)
	rejectRequestFn         func(context.Context, string, string) (bool, error)
	deletePendingFn         func(context.Context, string, string) error
	deleteAcceptedFn        func(context.Context, string, string) error
	listIncomingPendingFn   func(context.Context, string) ([]*model.FriendRequest, error)
	listOutgoingPendingFn   func(context.Context, string) ([]*model.FriendRequest, error)
	listAcceptedInvolvingFn func(context.Context, string) ([]*model.FriendRequest, error)
	getRecentFriendFn       func(context.Context, string) (string, error)
	touchRecentFn           func(context.Context, string, string) error
	clearRecentFn           func(context.Context, string, string) error
}

func (f *fakeFriendRepo) ClearRecentFriend(ctx context.Context, userUUID, friendUUID string) error {
	if f.clearRecentFn == nil {
		return nil
	}
	return f.clearRecentFn(ctx, userUUID, friendUUID)
}

func (f *fakeFriendRepo) TouchRecentFriend(ctx context.Context, userUUID, friendUUID string) error {
	if f.touchRecentFn == nil {
		return errors.New("unexpected TouchRecentFriend call")
	}
	return f.touchRecentFn(ctx, userUUID, friendUUID)
}

func (f *fakeFriendRepo) CreateRequest(ctx context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
	if f.createRequestFn == nil {
		return nil, errors.New("unexpected CreateRequest call")
	}
	return f.createRequestFn(ctx, req)
}

func (f *fakeFriendRepo) ExistsPending(ctx context.Context, sender, receiver string) (bool, error) {
	if f.existsPendingFn == nil {
		return false, errors.New("unexpected ExistsPending call")
	}
	return f.existsPendingFn(ctx, sender, receiver)
}

func (f *fakeFriendRepo) ExistsAccepted(ctx context.Context, a, b string) (bool, error) {
	if f.existsAcceptedFn == nil {
		return false, errors.New("unexpected ExistsAccepted call")
	}
	return f.existsAcceptedFn(ctx, a, b)
}

func (f *fakeFriendRepo) AcceptRequest(ctx context.Context, sender, receiver string) (bool, error) {
	if f.acceptRequestFn == nil {
		return false, errors.New("unexpected AcceptRequest call")
	}
	return f.acceptRequestFn(ctx, sender, receiver)
}

func (f *fakeFriendRepo) RejectRequest(ctx context.Context, sender, receiver string) (bool, error) {
	if f.rejectRequestFn == nil {
		return false, errors.New("unexpected RejectRequest call")
	}
	return f.rejectRequestFn(ctx, sender, receiver)
}

func (f *fakeFriendRepo) DeletePending(ctx context.Context, sender, receiver string) error {
	if f.deletePendingFn == nil {
		return errors.New("unexpected DeletePending call")
	}
	return f.deletePendingFn(ctx, sender, receiver)
}

func (f *fakeFriendRepo) DeleteAccepted(ctx context.Context, a, b string) error {
	if f.deleteAcceptedFn == nil {
		return errors.New("unexpected DeleteAccepted call")
	}
	return f.deleteAcceptedFn(ctx, a, b)
}

func (f *fakeFriendRepo) ListIncomingPending(ctx context.Context, receiver string) ([]*model.FriendRequest, error) {
	if f.listIncomingPendingFn == nil {
		return nil, errors.New("unexpected ListIncomingPending call")
	}
	return f.listIncomingPendingFn(ctx, receiver)
}

func (f *fakeFriendRepo) ListOutgoingPending(ctx context.Context, sender string) ([]*model.FriendRequest, error) {
	if f.listOutgoingPendingFn == nil {
		return nil, errors.New("unexpected ListOutgoingPending call")
	}
	return f.listOutgoingPendingFn(ctx, sender)
}

func (f *fakeFriendRepo) ListAcceptedInvolving(ctx context.Context, userUUID string) ([]*model.FriendRequest, error) {
	if f.listAcceptedInvolvingFn == nil {
		return nil, errors.New("unexpected ListAcceptedInvolving call")
	}
	return f.listAcceptedInvolvingFn(ctx, userUUID)
}

func (f *fakeFriendRepo) GetRecentFriend(ctx context.Context, userUUID string) (string, error) {
	if f.getRecentFriendFn == nil {
		return "", nil
	}
	return f.getRecentFriendFn(ctx, userUUID)
}

type fakeUserRepo struct {
	repository.IUserRepository

	getByUUIDFn        func(context.Context, string) (*model.UserInfo, error)
	getByEmailFn       func(context.Context, string) (*model.UserInfo, error)
	getByDisplayNameFn func(context.Context, string) (*model.UserInfo, error)
	existsByEmailFn    func(context.Context, string) (bool, error)
	existsByNameFn     func(context.Context, string) (bool, error)
	createFn           func(context.Context, *model.UserInfo) (*model.UserInfo, error)
	getAvatarColorFn   func(context.Context, string) (string, error)
	setAvatarColorFn   func(context.Context, string, string) error

	updatePasswordFn      func(context.Context, string, string) error
	updateProfileFn       func(context.Context, string, string, string) error
	setEmailVerifiedFn    func(context.Context, string) error
	storeVerifyCodeFn     func(context.Context, string, string, int32, time.Duration) error
	verifyVerifyCodeFn    func(context.Context, string, string, int32) (bool, error)
	deleteVerifyCodeFn    func(context.Context, string, int32) error
	verifyCodeRateFn      func(context.Context, string) (bool, error)
	incrVerifyCodeFn      func(context.Context, string) error
	storeResetTokenFn     func(context.Context, string, string) error
	consumeResetTokenFn   func(context.Context, string) (string, error)
	storeAccessTokenFn    func(context.Context, string, string, time.Duration) error
	revokeAccessTokenFn   func(context.Context, string) error
}

func (f *fakeUserRepo) StoreAccessToken(ctx context.Context, userUUID, token string, expire time.Duration) error {
	if f.storeAccessTokenFn == nil {
		return nil
	}
	return f.storeAccessTokenFn(ctx, userUUID, token, expire)
}

func (f *fakeUserRepo) RevokeAccessToken(ctx context.Context, userUUID string) error {
	if f.revokeAccessTokenFn == nil {
		return errors.New("unexpected RevokeAccessToken call")
	}
	return f.revokeAccessTokenFn(ctx, userUUID)
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userUUID, password string) error {
	if f.updatePasswordFn == nil {
		return errors.New("unexpected UpdatePassword call")
	}
	return f.updatePasswordFn(ctx, userUUID, password)
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, userUUID, displayName, avatarURL string) error {
	if f.updateProfileFn == nil {
		return errors.New("unexpected UpdateProfile call")
	}
	return f.updateProfileFn(ctx, userUUID, displayName, avatarURL)
}

func (f *fakeUserRepo) SetEmailVerified(ctx context.Context, userUUID string) error {
	if f.setEmailVerifiedFn == nil {
		return errors.New("unexpected SetEmailVerified call")
	}
	return f.setEmailVerifiedFn(ctx, userUUID)
}

func (f *fakeUserRepo) StoreVerifyCode(ctx context.Context, email, code string, codeType int32, expire time.Duration) error {
	if f.storeVerifyCodeFn == nil {
		return errors.New("unexpected StoreVerifyCode call")
	}
	return f.storeVerifyCodeFn(ctx, email, code, codeType, expire)
}

func (f *fakeUserRepo) VerifyVerifyCode(ctx context.Context, email, code string, codeType int32) (bool, error) {
	if f.verifyVerifyCodeFn == nil {
		return false, errors.New("unexpected VerifyVerifyCode call")
	}
	return f.verifyVerifyCodeFn(ctx, email, code, codeType)
}

func (f *fakeUserRepo) DeleteVerifyCode(ctx context.Context, email string, codeType int32) error {
	if f.deleteVerifyCodeFn == nil {
		return nil
	}
	return f.deleteVerifyCodeFn(ctx, email, codeType)
}

func (f *fakeUserRepo) VerifyCodeRateLimit(ctx context.Context, email string) (bool, error) {
	if f.verifyCodeRateFn == nil {
		return false, nil
	}
	return f.verifyCodeRateFn(ctx, email)
}

func (f *fakeUserRepo) IncrementVerifyCodeCount(ctx context.Context, email string) error {
	if f.incrVerifyCodeFn == nil {
		return nil
	}
	return f.incrVerifyCodeFn(ctx, email)
}

func (f *fakeUserRepo) StoreResetToken(ctx context.Context, token, userUUID string) error {
	if f.storeResetTokenFn == nil {
		return errors.New("unexpected StoreResetToken call")
	}
	return f.storeResetTokenFn(ctx, token, userUUID)
}

func (f *fakeUserRepo) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	if f.consumeResetTokenFn == nil {
		return "", errors.New("unexpected ConsumeResetToken call")
	}
	return f.consumeResetTokenFn(ctx, token)
}

func (f *fakeUserRepo) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if f.getByUUIDFn == nil {
		return nil, errors.New("unexpected GetByUUID call")
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	if f.getByEmailFn == nil {
		return nil, errors.New("unexpected GetByEmail call")
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepo) GetByDisplayName(ctx context.Context, name string) (*model.UserInfo, error) {
	if f.getByDisplayNameFn == nil {
		return nil, errors.New("unexpected GetByDisplayName call")
	}
	return f.getByDisplayNameFn(ctx, name)
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsByEmailFn == nil {
		return false, errors.New("unexpected ExistsByEmail call")
	}
	return f.existsByEmailFn(ctx, email)
}

func (f *fakeUserRepo) ExistsByDisplayName(ctx context.Context, name string) (bool, error) {
	if f.existsByNameFn == nil {
		return false, errors.New("unexpected ExistsByDisplayName call")
	}
	return f.existsByNameFn(ctx, name)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if f.createFn == nil {
		return nil, errors.New("unexpected Create call")
	}
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) GetAvatarColor(ctx context.Context, uuid string) (string, error) {
	if f.getAvatarColorFn == nil {
		return "", nil
	}
	return f.getAvatarColorFn(ctx, uuid)
}

func (f *fakeUserRepo) SetAvatarColor(ctx context.Context, uuid, color string) error {
	if f.setAvatarColorFn == nil {
		return nil
	}
	return f.setAvatarColorFn(ctx, uuid, color)
}

func TestFriendServiceSendRequest(t *testing.T) {
	initFriendTestLogger()
	ctx := context.Background()

	receiver := &model.UserInfo{Uuid: "u-receiver", DisplayName: "bob"}
	sender := &model.UserInfo{Uuid: "u-sender", DisplayName: "alice"}

	t.Run("success", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, name string) (*model.UserInfo, error) {
				require.Equal(t, "bob", name)
				return receiver, nil
			},
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				require.Equal(t, "u-sender", uuid)
				return sender, nil
			},
		}
		friendRepo := &fakeFriendRepo{
			existsAcceptedFn: func(_ context.Context, a, b string) (bool, error) { return false, nil },
			existsPendingFn:  func(_ context.Context, s, r string) (bool, error) { return false, nil },
			createRequestFn: func(_ context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
				assert.Equal(t, "u-sender", req.SenderUuid)
				assert.Equal(t, "u-receiver", req.ReceiverUuid)
				assert.Equal(t, "alice", req.SenderDisplayName)
				assert.Equal(t, "bob", req.ReceiverDisplayName)
				assert.Equal(t, model.RequestStatusPending, req.Status)
				return req, nil
			},
		}

		svc := NewFriendService(friendRepo, userRepo)
		resp, err := svc.SendRequest(ctx, "u-sender", "bob")
		require.NoError(t, err)
		assert.Equal(t, "u-receiver", resp.ReceiverUUID)
	})

	t.Run("target_not_found", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return nil, repository.ErrRecordNotFound
			},
		}
		svc := NewFriendService(&fakeFriendRepo{}, userRepo)

		_, err := svc.SendRequest(ctx, "u-sender", "ghost")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserNotFound, utils.ExtractErrorCode(err))
	})

	t.Run("cannot_add_self", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return sender, nil
			},
		}
		svc := NewFriendService(&fakeFriendRepo{}, userRepo)

		_, err := svc.SendRequest(ctx, "u-sender", "alice")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeCannotAddSelf, utils.ExtractErrorCode(err))
	})

	t.Run("already_friend_either_direction", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return receiver, nil
			},
		}
		friendRepo := &fakeFriendRepo{
			existsAcceptedFn: func(_ context.Context, a, b string) (bool, error) { return true, nil },
		}
		svc := NewFriendService(friendRepo, userRepo)

		_, err := svc.SendRequest(ctx, "u-sender", "bob")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeAlreadyFriend, utils.ExtractErrorCode(err))
	})

	t.Run("pending_conflict", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return receiver, nil
			},
		}
		friendRepo := &fakeFriendRepo{
			existsAcceptedFn: func(_ context.Context, a, b string) (bool, error) { return false, nil },
			existsPendingFn:  func(_ context.Context, s, r string) (bool, error) { return true, nil },
		}
		svc := NewFriendService(friendRepo, userRepo)

		_, err := svc.SendRequest(ctx, "u-sender", "bob")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeFriendRequestSent, utils.ExtractErrorCode(err))
	})

	t.Run("reverse_pending_does_not_block", func(t *testing.T) {
		// 待处理冲突只看发送方向：bob 已向 alice 发过申请，
		// 不妨碍 alice 向 bob 发起自己的申请
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return receiver, nil
			},
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return sender, nil
			},
		}
		friendRepo := &fakeFriendRepo{
			existsAcceptedFn: func(_ context.Context, a, b string) (bool, error) { return false, nil },
			existsPendingFn: func(_ context.Context, s, r string) (bool, error) {
				// 只按 发送方 -> 接收方 查询，反方向的记录不参与
				assert.Equal(t, "u-sender", s)
				assert.Equal(t, "u-receiver", r)
				return false, nil
			},
			createRequestFn: func(_ context.Context, req *model.FriendRequest) (*model.FriendRequest, error) {
				return req, nil
			},
		}
		svc := NewFriendService(friendRepo, userRepo)

		resp, err := svc.SendRequest(ctx, "u-sender", "bob")
		require.NoError(t, err)
		assert.Equal(t, "u-receiver", resp.ReceiverUUID)
	})

	t.Run("concurrent_duplicate_maps_to_sent", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByDisplayNameFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return receiver, nil
			},
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return sender, nil
			},
		}
		friendRepo := &fakeFriendRepo{
			existsAcceptedFn: func(_ context.Context, a, b string) (bool, error) { return false, nil },
			existsPendingFn:  func(_ context.Context, s, r string) (bool, error) { return false, nil },
			createRequestFn: func(_ context.Context, _ *model.FriendRequest) (*model.FriendRequest, error) {
				return nil, repository.ErrDuplicateKey
			},
		}
		svc := NewFriendService(friendRepo, userRepo)

		_, err := svc.SendRequest(ctx, "u-sender", "bob")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeFriendRequestSent, utils.ExtractErrorCode(err))
	})
}

func TestFriendServiceHandleRequest(t *testing.T) {
	initFriendTestLogger()
	ctx := context.Background()

	t.Run("accept_success", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			acceptRequestFn: func(_ context.Context, sender, receiver string) (bool, error) {
				require.Equal(t, "u-sender", sender)
				require.Equal(t, "u-receiver", receiver)
				return false, nil
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		require.NoError(t, svc.AcceptRequest(ctx, "u-receiver", "u-sender"))
	})

	t.Run("accept_already_handled_is_silent", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			acceptRequestFn: func(_ context.Context, _, _ string) (bool, error) {
				return true, nil
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		require.NoError(t, svc.AcceptRequest(ctx, "u-receiver", "u-sender"))
	})

	t.Run("accept_not_found", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			acceptRequestFn: func(_ context.Context, _, _ string) (bool, error) {
				return false, repository.ErrRequestNotFound
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		err := svc.AcceptRequest(ctx, "u-receiver", "u-sender")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeApplyNotFoundOrDealt, utils.ExtractErrorCode(err))
	})

	t.Run("reject_already_handled_is_silent", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			rejectRequestFn: func(_ context.Context, _, _ string) (bool, error) {
				return true, nil
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		require.NoError(t, svc.RejectRequest(ctx, "u-receiver", "u-sender"))
	})

	t.Run("cancel_not_found", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			deletePendingFn: func(_ context.Context, _, _ string) error {
				return repository.ErrRequestNotFound
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		err := svc.CancelRequest(ctx, "u-sender", "u-receiver")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeApplyNotFoundOrDealt, utils.ExtractErrorCode(err))
	})

	t.Run("remove_clears_recent_pointer", func(t *testing.T) {
		cleared := false
		friendRepo := &fakeFriendRepo{
			deleteAcceptedFn: func(_ context.Context, _, _ string) error { return nil },
			clearRecentFn: func(_ context.Context, userUUID, friendUUID string) error {
				cleared = true
				assert.Equal(t, "u1", userUUID)
				assert.Equal(t, "u2", friendUUID)
				return nil
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		require.NoError(t, svc.RemoveFriend(ctx, "u1", "u2"))
		assert.True(t, cleared)
	})

	t.Run("remove_not_friend", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			deleteAcceptedFn: func(_ context.Context, _, _ string) error {
				return repository.ErrRecordNotFound
			},
		}
		svc := NewFriendService(friendRepo, &fakeUserRepo{})

		err := svc.RemoveFriend(ctx, "u1", "u2")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeNotFriend, utils.ExtractErrorCode(err))
	})
}

func TestFriendServiceListFriends(t *testing.T) {
	initFriendTestLogger()
	ctx := context.Background()

	t.Run("dedup_both_directions", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			listAcceptedInvolvingFn: func(_ context.Context, userUUID string) ([]*model.FriendRequest, error) {
				require.Equal(t, "me", userUUID)
				return []*model.FriendRequest{
					{SenderUuid: "me", ReceiverUuid: "u1", Status: model.RequestStatusAccepted},
					{SenderUuid: "u1", ReceiverUuid: "me", Status: model.RequestStatusAccepted},
					{SenderUuid: "u2", ReceiverUuid: "me", Status: model.RequestStatusAccepted},
				}, nil
			},
			getRecentFriendFn: func(_ context.Context, _ string) (string, error) { return "u2", nil },
		}
		userRepo := &fakeUserRepo{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: uuid, DisplayName: "name-" + uuid, AvatarColor: "hsl(1, 60%, 80%)"}, nil
			},
		}
		svc := NewFriendService(friendRepo, userRepo)

		resp, err := svc.ListFriends(ctx, "me")
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "u1", resp.Items[0].UUID)
		assert.Equal(t, "u2", resp.Items[1].UUID)
		assert.Equal(t, "u2", resp.RecentFriend)
	})

	t.Run("recent_friend_outside_set_cleared", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			listAcceptedInvolvingFn: func(_ context.Context, _ string) ([]*model.FriendRequest, error) {
				return []*model.FriendRequest{
					{SenderUuid: "me", ReceiverUuid: "u1", Status: model.RequestStatusAccepted},
				}, nil
			},
			getRecentFriendFn: func(_ context.Context, _ string) (string, error) { return "removed", nil },
		}
		userRepo := &fakeUserRepo{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: uuid, AvatarColor: "c"}, nil
			},
		}
		svc := NewFriendService(friendRepo, userRepo)

		resp, err := svc.ListFriends(ctx, "me")
		require.NoError(t, err)
		assert.Empty(t, resp.RecentFriend)
	})

	t.Run("missing_profile_skipped", func(t *testing.T) {
		friendRepo := &fakeFriendRepo{
			listAcceptedInvolvingFn: func(_ context.Context, _ string) ([]*model.FriendRequest, error) {
				return []*model.FriendRequest{
					{SenderUuid: "me", ReceiverUuid: "gone", Status: model.RequestStatusAccepted},
					{SenderUuid: "me", ReceiverUuid: "u1", Status: model.RequestStatusAccepted},
				}, nil
			},
		}
		userRepo := &fakeUserRepo{
			getByUUIDFn: func(_ context.Context, uuid string) (*model.UserInfo, error) {
				if uuid == "gone" {
					return nil, repository.ErrRecordNotFound
				}
				return &model.UserInfo{Uuid: uuid, AvatarColor: "c"}, nil
			},
		}
		svc := NewFriendService(friendRepo, userRepo)

		resp, err := svc.ListFriends(ctx, "me")
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "u1", resp.Items[0].UUID)
	})
}

func TestFriendServiceListRequests(t *testing.T) {
	initFriendTestLogger()
	ctx := context.Background()

	friendRepo := &fakeFriendRepo{
		listIncomingPendingFn: func(_ context.Context, receiver string) ([]*model.FriendRequest, error) {
			require.Equal(t, "me", receiver)
			return []*model.FriendRequest{
				{SenderUuid: "u1", ReceiverUuid: "me", SenderDisplayName: "one", Status: model.RequestStatusPending},
			}, nil
		},
		listOutgoingPendingFn: func(_ context.Context, sender string) ([]*model.FriendRequest, error) {
			require.Equal(t, "me", sender)
			return nil, nil
		},
	}
	svc := NewFriendService(friendRepo, &fakeUserRepo{})

	resp, err := svc.ListRequests(ctx, "me")
	require.NoError(t, err)
	require.Len(t, resp.Incoming, 1)
	assert.Equal(t, "u1", resp.Incoming[0].SenderUUID)
	assert.Equal(t, "pending", resp.Incoming[0].Status)
	assert.Empty(t, resp.Outgoing)
}
