package lifecycle

import (
	"context"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/commission"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/inspection"
	"github.com/SmartFleetPass/SmartFleetPass/internal/pass"
)

// EvidenceItem 一件随提交上传的证据（命名槽位 -> 原始字节）。
type EvidenceItem struct {
	Part     string
	Type     inspection.RecordType
	Comment  string
	Bytes    []byte
	FileName string
}

// DepartureRequest 出车提交：Folio（新出车）或 PassID（改单）二选一。
type DepartureRequest struct {
	Folio    string
	PassID   string
	Mileage  *int64
	Fuel     int
	Comment  string
	At       *time.Time
	Actor    string
	Evidence []EvidenceItem
}

// ArrivalRequest 回场提交。
type ArrivalRequest struct {
	Folio    string
	PassID   string
	Mileage  *int64
	Fuel     int
	Comment  string
	At       *time.Time
	Actor    string
	Evidence []EvidenceItem
}

// InspectionView 对外暴露的检查记录视图。
type InspectionView struct {
	ID      string `json:"id"`
	Leg     string `json:"leg"`
	Part    string `json:"part"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
	Locator string `json:"locator,omitempty"`
}

// PassView 提交/查询返回的完整视图：出车单字段 + 委派单状态 + 全量证据列表。
// UI/PDF 层只依赖这个契约；证据一条不少，不存在"静默丢图"。
type PassView struct {
	PassID           string           `json:"pass_id"`
	CommissionID     string           `json:"commission_id"`
	Folio            string           `json:"folio"`
	Status           string           `json:"status"`
	DepartureMileage *int64           `json:"departure_mileage,omitempty"`
	ArrivalMileage   *int64           `json:"arrival_mileage,omitempty"`
	FuelLevel        int              `json:"fuel_level"`
	DepartureComment string           `json:"departure_comment,omitempty"`
	ArrivalComment   string           `json:"arrival_comment,omitempty"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          *time.Time       `json:"end_date,omitempty"` // 未回场为 null
	Inspections      []InspectionView `json:"inspections"`
}

// Coordinator 串起一次出车/回场提交的全流程：
// 解析目标出车单 -> 写字段 -> 逐件写证据 -> 组装一致视图。
//
// 字段提交和证据落盘是两份资源，中间没有跨资源事务：证据写失败时
// 字段更新不回滚，调用方只需重传证据（错误里带 pass_id 方便重试）。
type Coordinator struct {
	passes      *pass.Service
	commissions *commission.Service
	cRepo       *commission.Repo
	ledger      *inspection.Ledger
	subs        []Subscriber
	now         func() time.Time
}

func NewCoordinator(passes *pass.Service, commissions *commission.Service, cRepo *commission.Repo, ledger *inspection.Ledger, subs ...Subscriber) *Coordinator {
	return &Coordinator{
		passes:      passes,
		commissions: commissions,
		cRepo:       cRepo,
		ledger:      ledger,
		subs:        subs,
		now:         time.Now,
	}
}

// CreateCommission 建委派单并发布审计事件。
func (co *Coordinator) CreateCommission(ctx context.Context, in commission.CreateInput, actor string) (*commission.Commission, error) {
	c, err := co.commissions.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	co.publish(ctx, Event{
		Type: EventCommissionCreated, CommissionID: c.ID, Folio: c.Folio, Actor: actor, At: co.now(),
	})
	return c, nil
}

// DeleteCommission 软删；changed=false 表示本来就是删除态（幂等成功）。
func (co *Coordinator) DeleteCommission(ctx context.Context, folio, actor string) (bool, error) {
	changed, err := co.commissions.SoftDelete(ctx, folio)
	if err != nil {
		return false, err
	}
	if changed {
		co.publish(ctx, Event{Type: EventCommissionDeleted, Folio: folio, Actor: actor, At: co.now()})
	}
	return changed, nil
}

// RestoreCommission 恢复软删单；对已激活的单是幂等成功，不重复发审计事件。
func (co *Coordinator) RestoreCommission(ctx context.Context, folio, actor string) (bool, error) {
	changed, err := co.commissions.Restore(ctx, folio)
	if err != nil {
		return false, err
	}
	if changed {
		co.publish(ctx, Event{Type: EventCommissionRestored, Folio: folio, Actor: actor, At: co.now()})
	}
	return changed, nil
}

// Commission 按 folio 查委派单。
func (co *Coordinator) Commission(ctx context.Context, folio string) (*commission.Commission, error) {
	return co.commissions.Get(ctx, folio)
}

// ListCommissions 分页列出委派单。
func (co *Coordinator) ListCommissions(ctx context.Context, activeOnly *bool, offset, limit int) ([]commission.Commission, int64, error) {
	return co.commissions.List(ctx, activeOnly, offset, limit)
}

// SubmitDeparture 出车提交全流程。
func (co *Coordinator) SubmitDeparture(ctx context.Context, req DepartureRequest) (*PassView, error) {
	p, err := co.passes.RecordDeparture(ctx, pass.DepartureInput{
		Folio:     req.Folio,
		PassID:    req.PassID,
		Mileage:   req.Mileage,
		Fuel:      req.Fuel,
		Comment:   req.Comment,
		StartDate: req.At,
	})
	if err != nil {
		return nil, err
	}

	co.publish(ctx, Event{
		Type: EventPassDeparted, CommissionID: p.CommissionID, PassID: p.ID, Actor: req.Actor, At: co.now(),
	})

	if err := co.attachEvidence(ctx, p.ID, inspection.LegDeparture, req.Evidence); err != nil {
		return nil, err
	}
	return co.assembleView(ctx, p)
}

// SubmitArrival 回场提交全流程。要求已出车，否则 state 错误且不会建单。
func (co *Coordinator) SubmitArrival(ctx context.Context, req ArrivalRequest) (*PassView, error) {
	p, err := co.passes.RecordArrival(ctx, pass.ArrivalInput{
		Folio:   req.Folio,
		PassID:  req.PassID,
		Mileage: req.Mileage,
		Fuel:    req.Fuel,
		Comment: req.Comment,
		EndDate: req.At,
	})
	if err != nil {
		return nil, err
	}

	co.publish(ctx, Event{
		Type: EventPassArrived, CommissionID: p.CommissionID, PassID: p.ID, Actor: req.Actor, At: co.now(),
	})

	if err := co.attachEvidence(ctx, p.ID, inspection.LegArrival, req.Evidence); err != nil {
		return nil, err
	}
	return co.assembleView(ctx, p)
}

// GetPassView 只读组装。
func (co *Coordinator) GetPassView(ctx context.Context, passID string) (*PassView, error) {
	p, err := co.passes.Get(ctx, passID)
	if err != nil {
		return nil, err
	}
	return co.assembleView(ctx, p)
}

// attachEvidence 逐件上账。任何一件失败立即中断：此时字段已提交，
// 调用方重传证据即可，不需要整段重交。
func (co *Coordinator) attachEvidence(ctx context.Context, passID string, leg inspection.Leg, items []EvidenceItem) error {
	for _, item := range items {
		_, err := co.ledger.Upsert(ctx, inspection.UpsertInput{
			PassID:        passID,
			Leg:           leg,
			Part:          item.Part,
			Type:          item.Type,
			Comment:       item.Comment,
			Evidence:      item.Bytes,
			SuggestedName: item.FileName,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (co *Coordinator) assembleView(ctx context.Context, p *pass.Pass) (*PassView, error) {
	c, err := co.cRepo.FindByID(ctx, p.CommissionID)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to load commission for view", err)
	}

	recs, err := co.ledger.ListFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	inspections := make([]InspectionView, 0, len(recs))
	for _, r := range recs {
		inspections = append(inspections, InspectionView{
			ID:      r.ID,
			Leg:     string(r.Leg),
			Part:    r.Part,
			Type:    string(r.Type),
			Comment: r.Comment,
			Locator: r.EvidenceLocator,
		})
	}

	view := &PassView{
		PassID:           p.ID,
		CommissionID:     p.CommissionID,
		Folio:            c.Folio,
		Status:           string(pass.StatusOf(p)),
		DepartureMileage: p.DepartureMileage,
		ArrivalMileage:   p.ArrivalMileage,
		FuelLevel:        p.FuelLevel,
		DepartureComment: p.DepartureComment,
		ArrivalComment:   p.ArrivalComment,
		StartDate:        p.StartDate,
		Inspections:      inspections,
	}
	if p.IsArrived() {
		end := p.EndDate
		view.EndDate = &end
	}
	return view, nil
}

// CommissionStatus 查委派单当前状态（没有出车单即 created）。
func (co *Coordinator) CommissionStatus(ctx context.Context, commissionID string) (string, error) {
	p, err := co.passes.GetByCommission(ctx, commissionID)
	if err != nil {
		return "", err
	}
	return string(pass.StatusOf(p)), nil
}

func (co *Coordinator) publish(ctx context.Context, e Event) {
	for _, s := range co.subs {
		if s != nil {
			s.Notify(ctx, e)
		}
	}
}
