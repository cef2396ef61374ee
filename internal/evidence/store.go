package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/middleware"
	"github.com/google/uuid"
)

// Store 证据存储：写入照片/签名原始字节，返回可回查的 locator。
// locator 独立于数据库自增/生成 id，写文件失败时调用方不得创建或更新检查记录。
type Store interface {
	Put(ctx context.Context, data []byte, suggestedName string) (string, error)
	Resolve(ctx context.Context, locator string) ([]byte, error)
}

// DiskStore 落盘实现。locator = uuid + 清洗后的建议文件名，
// 生成即唯一，不需要先写库拿 id 再回填文件名。
type DiskStore struct {
	root    string
	breaker *middleware.CircuitBreaker
}

// NewDiskStore 创建并确保根目录存在。
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errs.New(errs.KindValidation, "evidence dir is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.KindStorage, "failed to create evidence dir", err)
	}
	return &DiskStore{
		root:    root,
		breaker: middleware.NewCircuitBreaker("evidence-disk", 5, 30*time.Second),
	}, nil
}

func (s *DiskStore) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if s == nil {
		return "", errs.New(errs.KindStorage, "store not initialized")
	}
	if len(data) == 0 {
		return "", errs.Field(errs.KindValidation, "evidence", "evidence bytes are empty")
	}

	locator := uuid.NewString()
	if name := sanitizeName(suggestedName); name != "" {
		locator += "_" + name
	}

	path := filepath.Join(s.root, locator)
	err := s.breaker.Call(ctx, func() error {
		return os.WriteFile(path, data, 0644)
	})
	if err != nil {
		if errors.Is(err, middleware.ErrBreakerOpen) {
			return "", errs.Wrap(errs.KindStorage, "evidence store unavailable", err)
		}
		return "", errs.Wrap(errs.KindStorage, "failed to write evidence file", err)
	}
	return locator, nil
}

func (s *DiskStore) Resolve(ctx context.Context, locator string) ([]byte, error) {
	if s == nil {
		return nil, errs.New(errs.KindStorage, "store not initialized")
	}
	locator = strings.TrimSpace(locator)
	// locator 是我们自己生成的单段文件名，出现路径分隔符即视为非法请求
	if locator == "" || strings.ContainsAny(locator, "/\\") || strings.Contains(locator, "..") {
		return nil, errs.Field(errs.KindValidation, "locator", "malformed evidence locator")
	}

	data, err := os.ReadFile(filepath.Join(s.root, locator))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Newf(errs.KindNotFound, "evidence %s not found", locator)
		}
		return nil, errs.Wrap(errs.KindStorage, "failed to read evidence file", err)
	}
	return data, nil
}

// sanitizeName 只保留文件名中安全的字符，超长截断。
func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if len(out) > 64 {
		out = out[len(out)-64:]
	}
	return out
}
