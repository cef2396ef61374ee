package commission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// folio 碰撞时的建单重试次数（重试会换一个随机后缀）。
const folioCreateRetries = 3

// Service 封装委派单的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo  *Repo
	folio func(time.Time) (string, error) // 可注入，测试用
	now   func() time.Time
}

func NewService(repo *Repo) *Service {
	return &Service{
		repo:  repo,
		folio: NewFolio,
		now:   time.Now,
	}
}

// CreateInput 建单入参。
type CreateInput struct {
	DriverID    string
	VehicleID   string
	RequesterID string
	Route       string
}

// Create 新建委派单并生成 folio。
// 随机后缀撞上唯一索引时换后缀重试，重试耗尽才对外报 conflict。
func (s *Service) Create(ctx context.Context, in CreateInput) (*Commission, error) {
	if s == nil || s.repo == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	if strings.TrimSpace(in.DriverID) == "" {
		return nil, errs.Field(errs.KindValidation, "driver_id", "driver_id required")
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return nil, errs.Field(errs.KindValidation, "vehicle_id", "vehicle_id required")
	}

	var lastErr error
	for i := 0; i < folioCreateRetries; i++ {
		folio, err := s.folio(s.now())
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to generate folio", err)
		}

		c := &Commission{
			ID:          uuid.NewString(),
			Folio:       folio,
			DriverID:    strings.TrimSpace(in.DriverID),
			VehicleID:   strings.TrimSpace(in.VehicleID),
			RequesterID: strings.TrimSpace(in.RequesterID),
			Route:       strings.TrimSpace(in.Route),
			Active:      true,
		}
		err = s.repo.Create(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Wrap(errs.KindInternal, "failed to create commission", err)
		}
		lastErr = err
	}
	return nil, errs.Wrap(errs.KindConflict, "folio generation kept colliding", lastErr)
}

// Get 按 folio 查询。
func (s *Service) Get(ctx context.Context, folio string) (*Commission, error) {
	if s == nil || s.repo == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	folio = strings.TrimSpace(folio)
	if folio == "" {
		return nil, errs.Field(errs.KindValidation, "folio", "folio required")
	}
	c, err := s.repo.FindByFolio(ctx, folio)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.KindNotFound, "commission %s not found", folio)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find commission", err)
	}
	return c, nil
}

// SoftDelete 软删。重复删不报错，changed=false 表示本来就是删除态。
func (s *Service) SoftDelete(ctx context.Context, folio string) (changed bool, err error) {
	return s.setActive(ctx, folio, false)
}

// Restore 恢复软删的委派单。对已激活的单恢复是幂等成功，changed=false。
func (s *Service) Restore(ctx context.Context, folio string) (changed bool, err error) {
	return s.setActive(ctx, folio, true)
}

func (s *Service) setActive(ctx context.Context, folio string, active bool) (bool, error) {
	c, err := s.Get(ctx, folio)
	if err != nil {
		return false, err
	}
	if c.Active == active {
		return false, nil
	}
	c.Active = active
	if err := s.repo.Update(ctx, c); err != nil {
		return false, errs.Wrap(errs.KindInternal, "failed to update commission", err)
	}
	return true, nil
}

// List 分页列出委派单。
func (s *Service) List(ctx context.Context, activeOnly *bool, offset, limit int) ([]Commission, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, errs.New(errs.KindInternal, "service not initialized")
	}
	items, total, err := s.repo.List(ctx, activeOnly, offset, limit)
	if err != nil {
		return nil, 0, errs.Wrap(errs.KindInternal, "failed to list commissions", err)
	}
	return items, total, nil
}
