package driver

import (
	"strings"
	"time"
)

// Driver 是 drivers 表的 GORM 模型。司机既是委派单里的 DriverID 引用，
// 也是提交出车/回场时登录用的账号。
type Driver struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	PasswordSalt string    `gorm:"size:64;not null"`
	Name         string    `gorm:"size:64"`
	Phone        string    `gorm:"size:32"`
	LicenseNo    string    `gorm:"size:64"` // 驾驶证号
	Roles        string    `gorm:"size:256;not null"` // 逗号分隔，例如 "driver,approver"
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (d Driver) RolesSlice() []string {
	if strings.TrimSpace(d.Roles) == "" {
		return nil
	}
	parts := strings.Split(d.Roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func RolesJoin(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return strings.Join(out, ",")
}
