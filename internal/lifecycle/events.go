package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventType 领域事件类型。
type EventType string

const (
	EventCommissionCreated  EventType = "commission_created"
	EventCommissionDeleted  EventType = "commission_deleted"
	EventCommissionRestored EventType = "commission_restored"
	EventPassDeparted       EventType = "pass_departed"
	EventPassArrived        EventType = "pass_arrived"
)

// Event 协调器对外发布的审计事件。审计/日志作为订阅方挂在核心之外，
// 核心流程不感知任何日志落地细节。
type Event struct {
	Type         EventType
	CommissionID string
	Folio        string
	PassID       string
	Actor        string // 提交人（有鉴权时为 JWT subject）
	At           time.Time
}

// Subscriber 事件订阅方。Notify 不允许阻塞核心流程，失败自行消化。
type Subscriber interface {
	Notify(ctx context.Context, e Event)
}

// ZapAuditSubscriber 把事件写结构化审计日志的默认订阅方。
type ZapAuditSubscriber struct {
	log *zap.Logger
}

func NewZapAuditSubscriber(log *zap.Logger) *ZapAuditSubscriber {
	return &ZapAuditSubscriber{log: log}
}

func (s *ZapAuditSubscriber) Notify(ctx context.Context, e Event) {
	if s == nil || s.log == nil {
		return
	}
	s.log.Info("audit event",
		zap.String("type", string(e.Type)),
		zap.String("commission_id", e.CommissionID),
		zap.String("folio", e.Folio),
		zap.String("pass_id", e.PassID),
		zap.String("actor", e.Actor),
		zap.Time("at", e.At),
	)
}
