package notify

import (
	"context"

	"github.com/google/uuid"

	logx "shopbuzz/pkg/logx"
)

// ConsoleSender writes notifications to the log. It is the fallback channel
// for hosts with no real notification surface (the original app degraded the
// same way on web). Permission is always granted.
type ConsoleSender struct {
	log logx.Logger
}

func NewConsoleSender(log logx.Logger) *ConsoleSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ConsoleSender{log: log}
}

func (c *ConsoleSender) RequestPermission(ctx context.Context) (bool, error) {
	_ = ctx
	return true, nil
}

func (c *ConsoleSender) Send(ctx context.Context, n Notification) (string, error) {
	_ = ctx
	id := uuid.NewString()
	c.log.Info("notification",
		logx.String("delivery_id", id),
		logx.String("title", n.Title),
		logx.String("body", n.Body),
		logx.Float64("amount", n.Order.Amount),
		logx.Int("items", n.Order.Items),
	)
	return id, nil
}
