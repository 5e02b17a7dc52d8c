// Package notify delivers messages and result files to requesters.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier sends best-effort deliveries to a user. Implementations log failures and
// return them, but callers treat a failed delivery as non-fatal.
type Notifier interface {
	DeliverText(ctx context.Context, userID int64, text string) error
	DeliverFile(ctx context.Context, userID int64, data []byte, filename, caption string) error
}

// LogNotifier writes deliveries to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) DeliverText(ctx context.Context, userID int64, text string) error {
	n.logger.Info("deliver text", zap.Int64("user_id", userID), zap.String("text", text))
	return nil
}

func (n *LogNotifier) DeliverFile(ctx context.Context, userID int64, data []byte, filename, caption string) error {
	n.logger.Info("deliver file",
		zap.Int64("user_id", userID),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.String("caption", caption),
	)
	return nil
}
