package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/minio"
	"github.com/bhavyaajainn/chatly/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authLoggerOnce sync.Once

func initAuthTestLogger() {
	authLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

type fakeMailSender struct {
	verifyFn func(to, code string) error
	resetFn  func(to, resetURL string) error
}

func (f *fakeMailSender) SendVerifyCode(to, code string) error {
	if f.verifyFn == nil {
		return errors.New("unexpected SendVerifyCode call")
	}
	return f.verifyFn(to, code)
}

func (f *fakeMailSender) SendPasswordReset(to, resetURL string) error {
	if f.resetFn == nil {
		return errors.New("unexpected SendPasswordReset call")
	}
	return f.resetFn(to, resetURL)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:       "test-secret",
		Issuer:       "chatly-test",
		AccessExpire: time.Hour,
	}
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestAuthServiceRegister(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			existsByEmailFn: func(_ context.Context, email string) (bool, error) {
				assert.Equal(t, "a@b.com", email)
				return false, nil
			},
			existsByNameFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
			createFn: func(_ context.Context, user *model.UserInfo) (*model.UserInfo, error) {
				assert.Equal(t, "a@b.com", user.Email)
				assert.NotEmpty(t, user.Uuid)
				assert.NotEmpty(t, user.AvatarColor)
				// 密码落库前必须哈希
				assert.NotEqual(t, "password123", user.Password)
				require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
				return user, nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "http://app/reset")

		resp, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@b.com", Password: "password123", DisplayName: "alice"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.UserUUID)
	})

	t.Run("email_taken", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			existsByEmailFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@b.com", Password: "password123", DisplayName: "alice"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserAlreadyExist, utils.ExtractErrorCode(err))
	})

	t.Run("display_name_taken", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			existsByEmailFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
			existsByNameFn:  func(_ context.Context, _ string) (bool, error) { return true, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@b.com", Password: "password123", DisplayName: "alice"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserAlreadyExist, utils.ExtractErrorCode(err))
	})

	t.Run("concurrent_duplicate_insert", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			existsByEmailFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
			existsByNameFn:  func(_ context.Context, _ string) (bool, error) { return false, nil },
			createFn: func(_ context.Context, _ *model.UserInfo) (*model.UserInfo, error) {
				return nil, repository.ErrDuplicateKey
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "a@b.com", Password: "password123", DisplayName: "alice"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserAlreadyExist, utils.ExtractErrorCode(err))
	})
}

func TestAuthServiceLogin(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	verifiedUser := func(t *testing.T) *model.UserInfo {
		return &model.UserInfo{
			Uuid:          "u1",
			Email:         "a@b.com",
			Password:      hashPassword(t, "password123"),
			DisplayName:   "alice",
			EmailVerified: true,
			Status:        model.UserStatusNormal,
		}
	}

	t.Run("success", func(t *testing.T) {
		user := verifiedUser(t)
		var whitelisted string
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) { return user, nil },
			storeAccessTokenFn: func(_ context.Context, userUUID, token string, expire time.Duration) error {
				assert.Equal(t, "u1", userUUID)
				assert.Equal(t, time.Hour, expire)
				whitelisted = token
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, resp.AccessToken, whitelisted)
		assert.Equal(t, "u1", resp.User.UUID)

		// 签发的令牌能被解析回同一用户
		claims, err := util.ParseAccessToken(testJWTConfig(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserUUID)
	})

	t.Run("user_not_found", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return nil, repository.ErrRecordNotFound
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "x@b.com", Password: "password123"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserNotFound, utils.ExtractErrorCode(err))
	})

	t.Run("wrong_password", func(t *testing.T) {
		user := verifiedUser(t)
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) { return user, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "wrong"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodePasswordError, utils.ExtractErrorCode(err))
	})

	t.Run("email_not_verified", func(t *testing.T) {
		user := verifiedUser(t)
		user.EmailVerified = false
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) { return user, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "password123"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeEmailNotVerified, utils.ExtractErrorCode(err))
	})

	t.Run("disabled_user", func(t *testing.T) {
		user := verifiedUser(t)
		user.Status = model.UserStatusDisabled
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) { return user, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@b.com", Password: "password123"})
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserDisabled, utils.ExtractErrorCode(err))
	})
}

func TestAuthServiceLogout(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	revoked := false
	userRepo := &fakeUserRepo{
		revokeAccessTokenFn: func(_ context.Context, userUUID string) error {
			revoked = true
			assert.Equal(t, "u1", userUUID)
			return nil
		},
	}
	svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

	require.NoError(t, svc.Logout(ctx, "u1"))
	assert.True(t, revoked)
}

func TestAuthServiceSendVerifyCode(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var storedCode string
		userRepo := &fakeUserRepo{
			storeVerifyCodeFn: func(_ context.Context, email, code string, codeType int32, _ time.Duration) error {
				assert.Equal(t, "a@b.com", email)
				assert.Len(t, code, 6)
				assert.EqualValues(t, verifyCodeTypeEmail, codeType)
				storedCode = code
				return nil
			},
		}
		mailed := false
		mail := &fakeMailSender{
			verifyFn: func(to, code string) error {
				mailed = true
				assert.Equal(t, "a@b.com", to)
				assert.Equal(t, storedCode, code)
				return nil
			},
		}
		svc := NewAuthService(userRepo, mail, &fakeAttachmentStore{}, testJWTConfig(), "")

		require.NoError(t, svc.SendVerifyCode(ctx, "a@b.com"))
		assert.True(t, mailed)
	})

	t.Run("rate_limited", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			verifyCodeRateFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		err := svc.SendVerifyCode(ctx, "a@b.com")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeTooManyRequests, utils.ExtractErrorCode(err))
	})

	t.Run("mail_failure_surfaces", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			storeVerifyCodeFn: func(_ context.Context, _, _ string, _ int32, _ time.Duration) error { return nil },
		}
		mail := &fakeMailSender{
			verifyFn: func(_, _ string) error { return errors.New("smtp down") },
		}
		svc := NewAuthService(userRepo, mail, &fakeAttachmentStore{}, testJWTConfig(), "")

		err := svc.SendVerifyCode(ctx, "a@b.com")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeServiceUnavailable, utils.ExtractErrorCode(err))
	})
}

func TestAuthServiceVerifyEmail(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		verified := false
		userRepo := &fakeUserRepo{
			verifyVerifyCodeFn: func(_ context.Context, email, code string, _ int32) (bool, error) {
				assert.Equal(t, "a@b.com", email)
				assert.Equal(t, "123456", code)
				return true, nil
			},
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: "u1", Email: "a@b.com"}, nil
			},
			setEmailVerifiedFn: func(_ context.Context, userUUID string) error {
				verified = true
				assert.Equal(t, "u1", userUUID)
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		require.NoError(t, svc.VerifyEmail(ctx, "a@b.com", "123456"))
		assert.True(t, verified)
	})

	t.Run("wrong_code", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			verifyVerifyCodeFn: func(_ context.Context, _, _ string, _ int32) (bool, error) { return false, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		err := svc.VerifyEmail(ctx, "a@b.com", "000000")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeVerifyCodeError, utils.ExtractErrorCode(err))
	})
}

func TestAuthServicePasswordReset(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	t.Run("forgot_password_stores_token", func(t *testing.T) {
		stored := false
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: "u1", Email: "a@b.com"}, nil
			},
			storeResetTokenFn: func(_ context.Context, token, userUUID string) error {
				stored = true
				assert.NotEmpty(t, token)
				assert.Equal(t, "u1", userUUID)
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "http://app/reset")

		require.NoError(t, svc.ForgotPassword(ctx, "a@b.com"))
		assert.True(t, stored)
	})

	t.Run("forgot_password_silent_on_unknown_email", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return nil, repository.ErrRecordNotFound
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "http://app/reset")

		// 不暴露邮箱是否注册
		require.NoError(t, svc.ForgotPassword(ctx, "unknown@b.com"))
	})

	t.Run("reset_password_success", func(t *testing.T) {
		updated := false
		userRepo := &fakeUserRepo{
			consumeResetTokenFn: func(_ context.Context, token string) (string, error) {
				assert.Equal(t, "tok1", token)
				return "u1", nil
			},
			updatePasswordFn: func(_ context.Context, userUUID, password string) error {
				updated = true
				assert.Equal(t, "u1", userUUID)
				require.NoError(t, bcrypt.CompareHashAndPassword([]byte(password), []byte("newpassword1")))
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		require.NoError(t, svc.ResetPassword(ctx, "tok1", "newpassword1"))
		assert.True(t, updated)
	})

	t.Run("reset_password_invalid_token", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			consumeResetTokenFn: func(_ context.Context, _ string) (string, error) {
				return "", repository.ErrRedisNil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		err := svc.ResetPassword(ctx, "expired", "newpassword1")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeInvalidToken, utils.ExtractErrorCode(err))
	})
}

func TestAuthServiceProfile(t *testing.T) {
	initAuthTestLogger()
	ctx := context.Background()

	t.Run("get_profile_lazy_avatar_color", func(t *testing.T) {
		var cachedColor string
		userRepo := &fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return &model.UserInfo{Uuid: "u1", Email: "a@b.com", DisplayName: "alice"}, nil
			},
			getAvatarColorFn: func(_ context.Context, _ string) (string, error) { return "", nil },
			setAvatarColorFn: func(_ context.Context, _, color string) error {
				cachedColor = color
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		vo, err := svc.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.NotEmpty(t, vo.AvatarColor)
		assert.Equal(t, cachedColor, vo.AvatarColor)
	})

	t.Run("update_profile_name_taken", func(t *testing.T) {
		userRepo := &fakeUserRepo{
			existsByNameFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, &fakeAttachmentStore{}, testJWTConfig(), "")

		err := svc.UpdateProfile(ctx, "u1", "bob")
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeUserAlreadyExist, utils.ExtractErrorCode(err))
	})

	t.Run("upload_avatar", func(t *testing.T) {
		store := &fakeAttachmentStore{
			uploadFn: func(_ context.Context, _ io.Reader, _ int64, opts minio.UploadOptions) (*minio.UploadResult, error) {
				assert.Equal(t, "avatars/", opts.PathPrefix)
				assert.Equal(t, "u1", opts.FileName)
				return &minio.UploadResult{URL: "http://store/avatars/u1"}, nil
			},
		}
		var savedURL string
		userRepo := &fakeUserRepo{
			updateProfileFn: func(_ context.Context, userUUID, displayName, avatarURL string) error {
				assert.Equal(t, "u1", userUUID)
				assert.Empty(t, displayName)
				savedURL = avatarURL
				return nil
			},
		}
		svc := NewAuthService(userRepo, &fakeMailSender{}, store, testJWTConfig(), "")

		url, err := svc.UploadAvatar(ctx, "u1", "me.png", 3, strings.NewReader("png"))
		require.NoError(t, err)
		assert.Equal(t, "http://store/avatars/u1", url)
		assert.Equal(t, savedURL, url)
	})

	t.Run("upload_avatar_store_failure", func(t *testing.T) {
		store := &fakeAttachmentStore{
			uploadFn: func(_ context.Context, _ io.Reader, _ int64, _ minio.UploadOptions) (*minio.UploadResult, error) {
				return nil, errors.New("bucket offline")
			},
		}
		svc := NewAuthService(&fakeUserRepo{}, &fakeMailSender{}, store, testJWTConfig(), "")

		_, err := svc.UploadAvatar(ctx, "u1", "me.png", 3, strings.NewReader("png"))
		require.Error(t, err)
		assert.EqualValues(t, consts.CodeAttachmentUploadFail, utils.ExtractErrorCode(err))
	})
}
