package pass

import (
	"context"
	"errors"
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

// Create 插入出车单。commission_id 撞唯一索引时错误为 gorm.ErrDuplicatedKey，
// 由 service 层退化为改单。
func (r *Repo) Create(ctx context.Context, p *Pass) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(p).Error
}

func (r *Repo) Update(ctx context.Context, p *Pass) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(p).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Pass, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Pass
	if err := db.Where("id = ? AND active = ?", id, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) FindByCommissionID(ctx context.Context, commissionID string) (*Pass, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Pass
	if err := db.Where("commission_id = ? AND active = ?", commissionID, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ExistsActive 供检查台账校验记录归属的出车单是否存在。
func (r *Repo) ExistsActive(ctx context.Context, id string) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
