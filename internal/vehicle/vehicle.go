package vehicle

import (
	"time"
)

// Vehicle 是 vehicles 表的 GORM 模型。委派单通过 VehicleID 引用这里。
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PlateNumber string    `gorm:"uniqueIndex;size:32;not null"`
	VIN         string    `gorm:"size:64"`
	Model       string    `gorm:"size:64"`
	OwnerID     string    `gorm:"index;size:36"`
	Odometer    int64     `gorm:"not null;default:0"` // 最近一次回场登记的里程
	Status      string    `gorm:"size:16;not null"`   // available / dispatched / offline
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
