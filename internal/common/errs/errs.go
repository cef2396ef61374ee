package errs

import (
	"errors"
	"fmt"
)

// Kind 失败分类（传输层据此映射 HTTP 状态码，业务侧据此分支）。
type Kind string

const (
	KindNotFound   Kind = "not_found"  // 委派单/出车单/检查记录不存在
	KindValidation Kind = "validation" // 字段缺失或取值非法（含到达里程小于出发里程）
	KindState      Kind = "state"      // 状态机违规（未出车先登记回场）
	KindStorage    Kind = "storage"    // 证据文件读写失败
	KindConflict   Kind = "conflict"   // 唯一键冲突（folio 碰撞、并发建出车单）
	KindInternal   Kind = "internal"   // 兜底
)

// Error 带分类的业务错误。Field 在校验失败时指出出错字段，其余场景可为空。
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := string(e.Kind)
	if e.Field != "" {
		s += " field=" + e.Field
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New 创建不带底层 cause 的错误。
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf 带格式化消息。
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Field 创建校验类错误并标注出错字段。
func Field(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Msg: msg}
}

// Wrap 包装底层错误（%w 语义，errors.Is/As 可穿透）。
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 提取错误分类；非 *Error 一律视为 internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindInternal
}

// FieldOf 提取出错字段（没有则为空串）。
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Field
	}
	return ""
}

// IsKind 判断错误是否属于指定分类。
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
