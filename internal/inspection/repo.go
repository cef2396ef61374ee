package inspection

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rec).Error
}

func (r *Repo) Update(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(rec).Error
}

func (r *Repo) FindActiveByID(ctx context.Context, id string) (*Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rec Record
	if err := db.Where("id = ? AND active = ?", id, true).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindActiveSlot 查某个 (pass, leg, part, type) 槽位当前的 active 记录。
func (r *Repo) FindActiveSlot(ctx context.Context, passID string, leg Leg, part string, typ RecordType) (*Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rec Record
	err := db.Where(
		"pass_id = ? AND leg = ? AND part = ? AND type = ? AND active = ?",
		passID, leg, part, typ, true,
	).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByPass 某出车单的全部 active 记录，按插入序稳定排列（不重排）。
func (r *Repo) ListByPass(ctx context.Context, passID string) ([]Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var recs []Record
	if err := db.Where("pass_id = ? AND active = ?", passID, true).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
