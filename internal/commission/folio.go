package commission

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const folioPrefix = "PV"

// NewFolio 生成委派单编号：PV-YYYYMMDD-XXXX（日期 + 随机后缀）。
// 随机后缀并发下可能碰撞，调用方靠唯一索引 + 重试保证最终唯一。
func NewFolio(now time.Time) (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(b))
	return fmt.Sprintf("%s-%s-%s", folioPrefix, now.Format("20060102"), suffix), nil
}
