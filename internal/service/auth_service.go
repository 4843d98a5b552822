package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/internal/dto"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/utils"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/minio"
	"github.com/bhavyaajainn/chatly/pkg/util"

	"golang.org/x/crypto/bcrypt"
)

// 验证码类型
const (
	verifyCodeTypeEmail int32 = 1 // 邮箱验证
)

// authServiceImpl 认证服务实现
type authServiceImpl struct {
	userRepo repository.IUserRepository
	mail     MailSender
	store    AttachmentStore
	jwtCfg   config.JWTConfig
	// resetURLBase 密码重置链接前缀，邮件里拼接 token
	resetURLBase string
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	userRepo repository.IUserRepository,
	mail MailSender,
	store AttachmentStore,
	jwtCfg config.JWTConfig,
	resetURLBase string,
) AuthService {
	return &authServiceImpl{
		userRepo:     userRepo,
		mail:         mail,
		store:        store,
		jwtCfg:       jwtCfg,
		resetURLBase: resetURLBase,
	}
}

// Register 用户注册
// 业务流程：
//  1. 校验邮箱与昵称未被占用
//  2. 密码哈希后落库，随机分配头像底色
//  3. 异步发送邮箱验证码（登录前必须完成验证）
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	logger.Info(ctx, "用户注册请求",
		logger.String("email", req.Email),
		logger.String("display_name", req.DisplayName),
	)

	// 1. 邮箱占用检查
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		logger.Error(ctx, "查询邮箱占用失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if exists {
		return nil, utils.NewBizError(consts.CodeUserAlreadyExist)
	}

	// 2. 昵称占用检查（好友申请按昵称检索，必须全局唯一）
	exists, err = s.userRepo.ExistsByDisplayName(ctx, req.DisplayName)
	if err != nil {
		logger.Error(ctx, "查询昵称占用失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if exists {
		return nil, utils.NewBizErrorWithMessage(consts.CodeUserAlreadyExist, "昵称已被占用")
	}

	// 3. 密码哈希
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(ctx, "生成密码哈希失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 4. 创建用户
	user := &model.UserInfo{
		Uuid:        util.NextUUID(),
		Email:       req.Email,
		Password:    string(hashed),
		DisplayName: req.DisplayName,
		AvatarColor: util.RandomLightColor(),
		Status:      model.UserStatusNormal,
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, utils.NewBizError(consts.CodeUserAlreadyExist)
		}
		logger.Error(ctx, "创建用户失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 5. 异步发送验证码，失败不影响注册结果（可重新触发发送）
	s.sendVerifyCodeAsync(ctx, created.Email)

	return &dto.RegisterResponse{UserUUID: created.Uuid}, nil
}

// Login 邮箱密码登录
// 业务流程：
//  1. 查询用户
//  2. 校验状态与密码
//  3. 邮箱未验证拒绝登录
//  4. 签发访问令牌
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查询用户
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		logger.Error(ctx, "查询用户失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}

	// 2. 状态校验
	if user.Status == model.UserStatusDisabled {
		return nil, utils.NewBizError(consts.CodeUserDisabled)
	}

	// 3. 密码校验
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, utils.NewBizError(consts.CodePasswordError)
	}

	// 4. 邮箱验证校验
	if !user.EmailVerified {
		return nil, utils.NewBizError(consts.CodeEmailNotVerified)
	}

	// 5. 签发令牌并写入白名单，重复登录覆盖旧令牌
	token, err := util.GenerateAccessToken(s.jwtCfg, user.Uuid)
	if err != nil {
		logger.Error(ctx, "签发令牌失败", logger.ErrorField(err))
		return nil, utils.NewInternalError(err)
	}
	if err := s.userRepo.StoreAccessToken(ctx, user.Uuid, token, s.jwtCfg.AccessExpire); err != nil {
		// 白名单写入失败只降级撤销能力，不阻断登录
		logger.Warn(ctx, "存储访问令牌失败", logger.ErrorField(err))
	}

	logger.Info(ctx, "用户登录成功", logger.String("user_uuid", user.Uuid))
	return &dto.LoginResponse{
		AccessToken: token,
		User:        toUserInfoVO(user),
	}, nil
}

// Logout 登出：撤销访问令牌，同时清理该用户的温启动缓存
// （好友列表镜像、最近联系人），下次登录重新构建。
func (s *authServiceImpl) Logout(ctx context.Context, userUUID string) error {
	if err := s.userRepo.RevokeAccessToken(ctx, userUUID); err != nil {
		logger.Error(ctx, "撤销访问令牌失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	logger.Info(ctx, "用户登出", logger.String("user_uuid", userUUID))
	return nil
}

// SendVerifyCode 发送邮箱验证码
// 业务流程：
//  1. 限流校验（1 分钟 1 次，24 小时 10 次）
//  2. 生成并存储 6 位验证码
//  3. 发送邮件
func (s *authServiceImpl) SendVerifyCode(ctx context.Context, email string) error {
	// 1. 限流校验
	limited, err := s.userRepo.VerifyCodeRateLimit(ctx, email)
	if err != nil {
		logger.Error(ctx, "验证码限流校验失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	if limited {
		return utils.NewBizError(consts.CodeTooManyRequests)
	}

	// 2. 生成并存储验证码
	code := genVerifyCode()
	if err := s.userRepo.StoreVerifyCode(ctx, email, code, verifyCodeTypeEmail, 0); err != nil {
		logger.Error(ctx, "存储验证码失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	if err := s.userRepo.IncrementVerifyCodeCount(ctx, email); err != nil {
		logger.Error(ctx, "递增验证码计数失败", logger.ErrorField(err))
	}

	// 3. 发送邮件（同步，发送失败要让用户知道以便重试）
	if err := s.mail.SendVerifyCode(email, code); err != nil {
		logger.Error(ctx, "发送验证码邮件失败", logger.ErrorField(err))
		return utils.NewBizError(consts.CodeServiceUnavailable)
	}
	return nil
}

// sendVerifyCodeAsync 注册后异步发送验证码
func (s *authServiceImpl) sendVerifyCodeAsync(ctx context.Context, email string) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		code := genVerifyCode()
		if err := s.userRepo.StoreVerifyCode(runCtx, email, code, verifyCodeTypeEmail, 0); err != nil {
			logger.Error(runCtx, "存储验证码失败", logger.ErrorField(err))
			return
		}
		if err := s.userRepo.IncrementVerifyCodeCount(runCtx, email); err != nil {
			logger.Error(runCtx, "递增验证码计数失败", logger.ErrorField(err))
		}
		if err := s.mail.SendVerifyCode(email, code); err != nil {
			logger.Error(runCtx, "发送验证码邮件失败", logger.ErrorField(err))
		}
	}, 0)
}

// VerifyEmail 校验验证码并标记邮箱已验证
func (s *authServiceImpl) VerifyEmail(ctx context.Context, email, code string) error {
	// 1. 校验验证码
	ok, err := s.userRepo.VerifyVerifyCode(ctx, email, code, verifyCodeTypeEmail)
	if err != nil {
		logger.Error(ctx, "校验验证码失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	if !ok {
		return utils.NewBizError(consts.CodeVerifyCodeError)
	}

	// 2. 标记邮箱已验证
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeUserNotFound)
		}
		return utils.NewInternalError(err)
	}
	if err := s.userRepo.SetEmailVerified(ctx, user.Uuid); err != nil {
		logger.Error(ctx, "标记邮箱已验证失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	// 3. 消耗验证码
	if err := s.userRepo.DeleteVerifyCode(ctx, email, verifyCodeTypeEmail); err != nil {
		logger.Warn(ctx, "删除验证码失败", logger.ErrorField(err))
	}
	return nil
}

// ForgotPassword 发送密码重置邮件。
// 用户不存在时静默成功，避免接口被用来枚举注册邮箱。
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil
		}
		logger.Error(ctx, "查询用户失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	token := util.NewUUID()
	if err := s.userRepo.StoreResetToken(ctx, token, user.Uuid); err != nil {
		logger.Error(ctx, "存储重置令牌失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	resetURL := fmt.Sprintf("%s?token=%s", s.resetURLBase, token)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := s.mail.SendPasswordReset(email, resetURL); err != nil {
			logger.Error(runCtx, "发送重置邮件失败", logger.ErrorField(err))
		}
	}, 0)
	return nil
}

// ResetPassword 用重置令牌设置新密码
func (s *authServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	// 1. 消耗令牌
	userUUID, err := s.userRepo.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrRedisNil) {
			return utils.NewBizErrorWithMessage(consts.CodeInvalidToken, "重置链接无效或已过期")
		}
		logger.Error(ctx, "消耗重置令牌失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	// 2. 更新密码
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userUUID, string(hashed)); err != nil {
		logger.Error(ctx, "更新密码失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}

	logger.Info(ctx, "密码重置成功", logger.String("user_uuid", userUUID))
	return nil
}

// GetProfile 获取当前用户资料。
// 头像底色缺失时懒生成并写缓存，保证同一用户的底色稳定。
func (s *authServiceImpl) GetProfile(ctx context.Context, userUUID string) (*dto.UserInfoVO, error) {
	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		return nil, utils.NewInternalError(err)
	}

	vo := toUserInfoVO(user)
	if vo.AvatarColor == "" {
		color, cacheErr := s.userRepo.GetAvatarColor(ctx, userUUID)
		if cacheErr == nil && color == "" {
			color = util.RandomLightColor()
			if err := s.userRepo.SetAvatarColor(ctx, userUUID, color); err != nil {
				logger.Warn(ctx, "写入头像底色缓存失败", logger.ErrorField(err))
			}
		}
		vo.AvatarColor = color
	}
	return vo, nil
}

// UpdateProfile 更新昵称
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userUUID, displayName string) error {
	if displayName != "" {
		exists, err := s.userRepo.ExistsByDisplayName(ctx, displayName)
		if err != nil {
			return utils.NewInternalError(err)
		}
		if exists {
			return utils.NewBizErrorWithMessage(consts.CodeUserAlreadyExist, "昵称已被占用")
		}
	}
	if err := s.userRepo.UpdateProfile(ctx, userUUID, displayName, ""); err != nil {
		logger.Error(ctx, "更新资料失败", logger.ErrorField(err))
		return utils.NewInternalError(err)
	}
	return nil
}

// UploadAvatar 上传头像，对象名固定为用户 uuid，重复上传直接覆盖。
func (s *authServiceImpl) UploadAvatar(ctx context.Context, userUUID, fileName string, size int64, reader io.Reader) (string, error) {
	result, err := s.store.Upload(ctx, reader, size, minio.UploadOptions{
		PathPrefix: "avatars/",
		FileName:   userUUID,
	})
	if err != nil {
		logger.Error(ctx, "上传头像失败", logger.ErrorField(err))
		return "", utils.NewBizError(consts.CodeAttachmentUploadFail)
	}

	if err := s.userRepo.UpdateProfile(ctx, userUUID, "", result.URL); err != nil {
		logger.Error(ctx, "保存头像地址失败", logger.ErrorField(err))
		return "", utils.NewInternalError(err)
	}
	return result.URL, nil
}

// ==================== 辅助 ====================

func toUserInfoVO(user *model.UserInfo) *dto.UserInfoVO {
	return &dto.UserInfoVO{
		UUID:          user.Uuid,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		AvatarURL:     user.AvatarUrl,
		AvatarColor:   user.AvatarColor,
		EmailVerified: user.EmailVerified,
	}
}

// genVerifyCode 生成 6 位数字验证码
func genVerifyCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand 不可用的环境基本不存在，保险起见退化为固定前缀
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}
