package commission

import "time"

// Commission 委派单：一次“司机 + 车辆 + 路线”的派车任务。
// Folio 是对外的人读编号，建单后不可变；删除是软删（Active=false），可恢复。
type Commission struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Folio       string    `gorm:"uniqueIndex;size:32;not null"` // 人读唯一编号，建单后不再修改
	DriverID    string    `gorm:"index;size:36"`                // 司机
	VehicleID   string    `gorm:"index;size:36"`                // 车辆
	RequesterID string    `gorm:"index;size:36"`                // 申请人/审批人
	Route       string    `gorm:"size:512"`                     // 路线描述
	Active      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
