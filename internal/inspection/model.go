package inspection

import "time"

// RecordType 证据类型。
type RecordType string

const (
	TypePhoto     RecordType = "photo"     // 车况照片
	TypeSignature RecordType = "signature" // 手写签名
)

// Leg 出车/回场段。旧系统把段编码在 part 命名后缀里（front / front_entry），
// 这里提升为显式字段，(pass, leg, part, type) 四元组即去重键。
type Leg string

const (
	LegDeparture Leg = "departure"
	LegArrival   Leg = "arrival"
)

// Record 检查记录：一条照片或签名证据。
// 每个 (pass_id, leg, part, type) 四元组最多一条 active 记录，
// 重复提交替换 locator，id 不变；删除是软删，证据文件保留作审计。
type Record struct {
	ID              string     `gorm:"primaryKey;size:36"`
	PassID          string     `gorm:"index;size:36;not null"`
	Leg             Leg        `gorm:"type:varchar(16);not null"`
	Part            string     `gorm:"size:64;not null"` // 槽位名：front / mileage / conductor 等
	Type            RecordType `gorm:"type:varchar(16);not null"`
	Comment         string     `gorm:"size:512"`
	EvidenceLocator string     `gorm:"size:160"`
	Seq             int64      `gorm:"index;not null"` // 插入序，列表按它稳定排序
	Active          bool       `gorm:"not null;default:true"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

// ValidType 校验证据类型取值。
func ValidType(t RecordType) bool {
	return t == TypePhoto || t == TypeSignature
}

// ValidLeg 校验段取值。
func ValidLeg(l Leg) bool {
	return l == LegDeparture || l == LegArrival
}
