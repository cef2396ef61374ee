package pass

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/commission"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 封装出车单领域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	passes       *Repo
	commissions  *commission.Repo
	now          func() time.Time
	beforeCreate func(ctx context.Context) // 可注入，测试用（建单前插入并发竞争者）
}

func NewService(passes *Repo, commissions *commission.Repo) *Service {
	return &Service{
		passes:      passes,
		commissions: commissions,
		now:         time.Now,
	}
}

// DepartureInput 出车提交。Folio / PassID 二选一：
// 给 PassID 走改单；给 Folio 则按需建单（该委派单已有出车单时同样改单）。
type DepartureInput struct {
	Folio     string
	PassID    string
	Mileage   *int64
	Fuel      int
	Comment   string
	StartDate *time.Time // 不传则用当前时间；已出车的单不再改 StartDate
}

// ArrivalInput 回场提交。
type ArrivalInput struct {
	Folio   string
	PassID  string
	Mileage *int64
	Fuel    int
	Comment string
	EndDate *time.Time // 不传则用当前时间
}

// RecordDeparture 登记/修正出车。
// 按需建单依赖 commission_id 唯一索引做原子插入：并发下输家拿到
// ErrDuplicatedKey 后回读赢家的记录改单，不会出现一单两条出车记录。
func (s *Service) RecordDeparture(ctx context.Context, in DepartureInput) (*Pass, error) {
	if s == nil || s.passes == nil || s.commissions == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	if err := validateLegFields(in.Mileage, in.Fuel); err != nil {
		return nil, err
	}

	// 显式给了 pass_id：纯改单。
	// 注意：这里故意不看所属委派单的 active 标志，旧系统允许对软删单
	// 继续补录出车信息，保留该行为。
	if id := strings.TrimSpace(in.PassID); id != "" {
		p, err := s.passes.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "pass %s not found", id)
		}
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
		}
		if err := s.applyDeparture(p, in); err != nil {
			return nil, err
		}
		if err := s.passes.Update(ctx, p); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to update pass", err)
		}
		return p, nil
	}

	folio := strings.TrimSpace(in.Folio)
	if folio == "" {
		return nil, errs.Field(errs.KindValidation, "folio", "folio or pass_id required")
	}
	c, err := s.commissions.FindByFolio(ctx, folio)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.KindNotFound, "commission %s not found", folio)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find commission", err)
	}
	if !c.Active {
		return nil, errs.Field(errs.KindValidation, "folio", "commission is inactive")
	}

	// 已有出车单：改单
	if p, err := s.passes.FindByCommissionID(ctx, c.ID); err == nil {
		if err := s.applyDeparture(p, in); err != nil {
			return nil, err
		}
		if err := s.passes.Update(ctx, p); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to update pass", err)
		}
		return p, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
	}

	// 首次出车：建单
	startDate := s.now()
	if in.StartDate != nil {
		startDate = *in.StartDate
	}
	p := &Pass{
		ID:               uuid.NewString(),
		CommissionID:     c.ID,
		DepartureMileage: in.Mileage,
		FuelLevel:        in.Fuel,
		DepartureComment: strings.TrimSpace(in.Comment),
		StartDate:        startDate,
		EndDate:          EndDateSentinel,
		Active:           true,
	}
	if s.beforeCreate != nil {
		s.beforeCreate(ctx)
	}
	err = s.passes.Create(ctx, p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errs.Wrap(errs.KindInternal, "failed to create pass", err)
	}

	// 并发竞态：别的提交抢先建了单，回读后改单
	existing, err2 := s.passes.FindByCommissionID(ctx, c.ID)
	if err2 != nil {
		return nil, errs.Wrap(errs.KindConflict, "concurrent pass creation", err2)
	}
	if err := s.applyDeparture(existing, in); err != nil {
		return nil, err
	}
	if err := s.passes.Update(ctx, existing); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to update pass", err)
	}
	return existing, nil
}

// RecordArrival 登记/修正回场。要求该委派单已出车。
func (s *Service) RecordArrival(ctx context.Context, in ArrivalInput) (*Pass, error) {
	if s == nil || s.passes == nil || s.commissions == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	if err := validateLegFields(in.Mileage, in.Fuel); err != nil {
		return nil, err
	}

	p, err := s.resolveForArrival(ctx, in)
	if err != nil {
		return nil, err
	}

	// 两个里程都有值时必须回场 >= 出车；违规直接拒绝，不做截断修正
	if in.Mileage != nil && p.DepartureMileage != nil && *in.Mileage < *p.DepartureMileage {
		return nil, errs.Field(errs.KindValidation, "mileage", "arrival mileage is lower than departure mileage")
	}

	endDate := s.now()
	if in.EndDate != nil {
		endDate = *in.EndDate
	}
	// 重复提交是改单：没带的字段不清掉已提交的值
	if in.Mileage != nil {
		p.ArrivalMileage = in.Mileage
	}
	p.FuelLevel = in.Fuel
	if c := strings.TrimSpace(in.Comment); c != "" {
		p.ArrivalComment = c
	}
	p.EndDate = endDate

	if err := s.passes.Update(ctx, p); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to update pass", err)
	}
	return p, nil
}

// Get 按 id 查询出车单。
func (s *Service) Get(ctx context.Context, id string) (*Pass, error) {
	if s == nil || s.passes == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.Field(errs.KindValidation, "pass_id", "pass_id required")
	}
	p, err := s.passes.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.KindNotFound, "pass %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
	}
	return p, nil
}

// GetByCommission 查某委派单的出车单；没有则返回 nil（不算错误）。
func (s *Service) GetByCommission(ctx context.Context, commissionID string) (*Pass, error) {
	if s == nil || s.passes == nil {
		return nil, errs.New(errs.KindInternal, "service not initialized")
	}
	p, err := s.passes.FindByCommissionID(ctx, commissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
	}
	return p, nil
}

func (s *Service) resolveForArrival(ctx context.Context, in ArrivalInput) (*Pass, error) {
	if id := strings.TrimSpace(in.PassID); id != "" {
		p, err := s.passes.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "pass %s not found", id)
		}
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
		}
		return p, nil
	}

	folio := strings.TrimSpace(in.Folio)
	if folio == "" {
		return nil, errs.Field(errs.KindValidation, "folio", "folio or pass_id required")
	}
	c, err := s.commissions.FindByFolio(ctx, folio)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Newf(errs.KindNotFound, "commission %s not found", folio)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find commission", err)
	}

	p, err := s.passes.FindByCommissionID(ctx, c.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 没出过车就提交回场：状态机违规，不建单
		return nil, errs.Newf(errs.KindState, "commission %s has no recorded departure", folio)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to find pass", err)
	}
	return p, nil
}

// applyDeparture 把出车字段写进已有记录；StartDate 一经写入不再改。
// 已登记回场里程时，改出的出车里程不得超过它；违规拒绝，不截断。
func (s *Service) applyDeparture(p *Pass, in DepartureInput) error {
	if in.Mileage != nil && p.ArrivalMileage != nil && *in.Mileage > *p.ArrivalMileage {
		return errs.Field(errs.KindValidation, "mileage", "departure mileage is higher than arrival mileage")
	}
	if in.Mileage != nil {
		p.DepartureMileage = in.Mileage
	}
	p.FuelLevel = in.Fuel
	if c := strings.TrimSpace(in.Comment); c != "" {
		p.DepartureComment = c
	}
	if p.StartDate.IsZero() {
		if in.StartDate != nil {
			p.StartDate = *in.StartDate
		} else {
			p.StartDate = s.now()
		}
	}
	return nil
}

func validateLegFields(mileage *int64, fuel int) error {
	if mileage != nil && *mileage < 0 {
		return errs.Field(errs.KindValidation, "mileage", "mileage must be >= 0")
	}
	if fuel < FuelMin || fuel > FuelMax {
		return errs.Field(errs.KindValidation, "fuel", "fuel must be between 0 and 8")
	}
	return nil
}
