package commission

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

func (r *Repo) Create(ctx context.Context, c *Commission) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

// Update 保存整行。Folio 建单后不可变：service 层从不改它，这里不做二次防护。
func (r *Repo) Update(ctx context.Context, c *Commission) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(c).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Commission, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Commission
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) FindByFolio(ctx context.Context, folio string) (*Commission, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Commission
	if err := db.Where("folio = ?", folio).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// List 支持按 active 过滤 + 分页。activeOnly 为 nil 时返回全部（含软删）。
func (r *Repo) List(ctx context.Context, activeOnly *bool, offset, limit int) ([]Commission, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&Commission{})
	if activeOnly != nil {
		q = q.Where("active = ?", *activeOnly)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var commissions []Commission
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}
