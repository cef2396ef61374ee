package pass

import "time"

// 燃油表刻度范围（0 = 空，8 = 满）。
const (
	FuelMin = 0
	FuelMax = 8
)

// EndDateSentinel 表示“尚未回场”的占位结束时间（epoch UTC）。
// 保持旧系统的约定：EndDate 一直停在 epoch，直到回场提交被接受。
var EndDateSentinel = time.Unix(0, 0).UTC()

// Pass 出车单：一张委派单下完整的一次往返（出车 + 回场）。
// CommissionID 上的唯一索引保证并发出车提交时一张委派单最多落一条记录，
// 竞态输家改走“改单”路径。
type Pass struct {
	ID               string    `gorm:"primaryKey;size:36"`
	CommissionID     string    `gorm:"uniqueIndex;size:36;not null"`
	DepartureMileage *int64    // 出车里程（未填为 NULL）
	ArrivalMileage   *int64    // 回场里程（未填为 NULL）
	FuelLevel        int       `gorm:"not null;default:0"` // 0-8
	DepartureComment string    `gorm:"size:512"`
	ArrivalComment   string    `gorm:"size:512"`
	StartDate        time.Time `gorm:"not null"` // 首次出车提交时写入，此后不再变
	EndDate          time.Time `gorm:"not null"` // 回场前停在 EndDateSentinel
	Active           bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// IsArrived 是否已登记回场。
func (p *Pass) IsArrived() bool {
	if p == nil {
		return false
	}
	return !p.EndDate.IsZero() && !p.EndDate.Equal(EndDateSentinel)
}
