package inspection

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/evidence"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PassChecker 校验记录归属的出车单是否存在且有效（由 pass.Repo 实现）。
type PassChecker interface {
	ExistsActive(ctx context.Context, id string) (bool, error)
}

// Ledger 检查台账：维护出车单两段的照片/签名记录。
// 去重语义：同一 (pass, leg, part, type) 槽位后写覆盖，id 稳定。
type Ledger struct {
	records *Repo
	store   evidence.Store
	passes  PassChecker
}

func NewLedger(records *Repo, store evidence.Store, passes PassChecker) *Ledger {
	return &Ledger{records: records, store: store, passes: passes}
}

// UpsertInput 证据提交。Evidence 为空时只更新 comment（保留已有 locator）。
type UpsertInput struct {
	PassID        string
	Leg           Leg
	Part          string
	Type          RecordType
	Comment       string
	Evidence      []byte
	SuggestedName string
}

// Upsert 写入或替换槽位记录。
// 先写证据文件再动记录：文件写失败直接报 storage 错误，记录保持原样，
// 不会出现“记录指向不存在文件”的半提交。
func (l *Ledger) Upsert(ctx context.Context, in UpsertInput) (*Record, error) {
	if l == nil || l.records == nil || l.store == nil {
		return nil, errs.New(errs.KindInternal, "ledger not initialized")
	}
	part := strings.TrimSpace(in.Part)
	if part == "" {
		return nil, errs.Field(errs.KindValidation, "part", "part required")
	}
	if !ValidLeg(in.Leg) {
		return nil, errs.Field(errs.KindValidation, "leg", "leg must be departure or arrival")
	}
	if !ValidType(in.Type) {
		return nil, errs.Field(errs.KindValidation, "type", "type must be photo or signature")
	}

	locator := ""
	if len(in.Evidence) > 0 {
		loc, err := l.store.Put(ctx, in.Evidence, in.SuggestedName)
		if err != nil {
			return nil, err
		}
		locator = loc
	}

	existing, err := l.records.FindActiveSlot(ctx, in.PassID, in.Leg, part, in.Type)
	if err == nil {
		// 槽位已有记录：替换 locator / comment，id 不变
		if locator != "" {
			existing.EvidenceLocator = locator
		}
		existing.Comment = strings.TrimSpace(in.Comment)
		if err := l.records.Update(ctx, existing); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "failed to update inspection record", err)
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Wrap(errs.KindInternal, "failed to find inspection record", err)
	}

	rec := &Record{
		ID:              uuid.NewString(),
		PassID:          in.PassID,
		Leg:             in.Leg,
		Part:            part,
		Type:            in.Type,
		Comment:         strings.TrimSpace(in.Comment),
		EvidenceLocator: locator,
		Seq:             time.Now().UnixNano(),
		Active:          true,
	}
	if err := l.records.Create(ctx, rec); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to create inspection record", err)
	}
	return rec, nil
}

// ListFor 某出车单的全部 active 记录（两段都含），插入序。
func (l *Ledger) ListFor(ctx context.Context, passID string) ([]Record, error) {
	if l == nil || l.records == nil {
		return nil, errs.New(errs.KindInternal, "ledger not initialized")
	}
	recs, err := l.records.ListByPass(ctx, passID)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to list inspection records", err)
	}
	return recs, nil
}

// Remove 软删记录。证据文件不动（留作审计）。
// id 不存在、已删、或归属的出车单已不存在，都报 not_found。
func (l *Ledger) Remove(ctx context.Context, recordID string) error {
	if l == nil || l.records == nil {
		return errs.New(errs.KindInternal, "ledger not initialized")
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return errs.Field(errs.KindValidation, "record_id", "record_id required")
	}

	rec, err := l.records.FindActiveByID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Newf(errs.KindNotFound, "inspection record %s not found", recordID)
	}
	if err != nil {
		return errs.Wrap(errs.KindInternal, "failed to find inspection record", err)
	}

	if l.passes != nil {
		ok, err := l.passes.ExistsActive(ctx, rec.PassID)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "failed to check pass", err)
		}
		if !ok {
			return errs.Newf(errs.KindNotFound, "pass %s not found", rec.PassID)
		}
	}

	rec.Active = false
	if err := l.records.Update(ctx, rec); err != nil {
		return errs.Wrap(errs.KindInternal, "failed to remove inspection record", err)
	}
	return nil
}
