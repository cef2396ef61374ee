package driver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/auth"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/config"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 司机账号用例：注册 + 登录换 token。
type Service struct {
	repo    *Repo
	authCfg config.AuthConfig
}

func NewService(repo *Repo, authCfg config.AuthConfig) *Service {
	return &Service{repo: repo, authCfg: authCfg}
}

// RegisterInput 注册入参。
type RegisterInput struct {
	Username  string
	Password  string
	Name      string
	Phone     string
	LicenseNo string
	Roles     []string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Driver, error) {
	if s == nil || s.repo == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, errs.Field(errs.KindValidation, "username", "username required")
	}
	if in.Password == "" {
		return nil, errs.Field(errs.KindValidation, "password", "password required")
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to generate salt", err)
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to hash password", err)
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{"driver"}
	}

	d := &Driver{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		LicenseNo:    strings.TrimSpace(in.LicenseNo),
		Roles:        RolesJoin(roles),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Field(errs.KindConflict, "username", "username already taken")
		}
		return nil, errs.Wrap(errs.KindInternal, "failed to create driver", err)
	}
	return d, nil
}

// Login 校验口令并签发 access token。
func (s *Service) Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error) {
	if s == nil || s.repo == nil {
		return "", time.Time{}, errs.New(errs.KindInternal, "service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, errs.Field(errs.KindValidation, "username", "username and password required")
	}

	d, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", time.Time{}, errs.New(errs.KindNotFound, "invalid credentials")
	}
	if err != nil {
		return "", time.Time{}, errs.Wrap(errs.KindInternal, "failed to find driver", err)
	}
	if !VerifyPassword(password, d.PasswordSalt, d.PasswordHash) {
		return "", time.Time{}, errs.New(errs.KindNotFound, "invalid credentials")
	}

	token, expiresAt, err = auth.GenerateAccessToken(s.authCfg, d.ID, d.RolesSlice(), 24*time.Hour)
	if err != nil {
		return "", time.Time{}, errs.Wrap(errs.KindInternal, "failed to sign token", err)
	}
	return token, expiresAt, nil
}
