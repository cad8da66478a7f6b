package tools

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/bridge"
	"github.com/matheus3301/wppmcp/internal/metrics"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/validate"
)

// Result is the envelope every tool answers with. Exactly one of Data and
// Error is set.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// addTool registers fn under name. Failures of fn become an unsuccessful
// Result; they are never returned to the SDK as protocol errors.
func addTool[In, Out any](s *Server, name, description string, fn func(context.Context, In) (Out, error)) {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: name, Description: description}, wrapTool(s, name, fn))
	s.names = append(s.names, name)
}

func wrapTool[In, Out any](s *Server, name string, fn func(context.Context, In) (Out, error)) mcp.ToolHandlerFor[In, Result[Out]] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args In) (*mcp.CallToolResult, Result[Out], error) {
		return nil, invoke(ctx, s.log, name, fn, args), nil
	}
}

// invoke runs one tool call with metrics and logging.
func invoke[In, Out any](ctx context.Context, log *zap.Logger, name string, fn func(context.Context, In) (Out, error), args In) (res Result[Out]) {
	start := time.Now()
	log = log.With(zap.String("tool", name), zap.String("call_id", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", zap.Any("panic", r), zap.Stack("stack"))
			res = Result[Out]{Error: "internal error"}
		}
		outcome := "ok"
		if !res.Success {
			outcome = "error"
		}
		metrics.ToolCallsTotal.WithLabelValues(name, outcome).Inc()
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	out, err := fn(ctx, args)
	if err != nil {
		logFailure(log, err, time.Since(start))
		return Result[Out]{Error: err.Error()}
	}
	log.Debug("tool call", zap.Duration("duration", time.Since(start)))
	return Result[Out]{Success: true, Data: out}
}

func logFailure(log *zap.Logger, err error, d time.Duration) {
	var ve *validate.Error
	var be *bridge.Error
	switch {
	case errors.As(err, &ve):
		log.Info("tool rejected arguments", zap.Duration("duration", d), zap.Error(err))
	case errors.As(err, &be):
		log.Warn("bridge action failed", zap.Duration("duration", d),
			zap.String("kind", string(be.Kind)), zap.Int("status", be.Status), zap.Error(err))
	case errors.Is(err, store.ErrMessageNotFound):
		log.Info("message not found", zap.Duration("duration", d), zap.Error(err))
	default:
		log.Error("tool failed", zap.Duration("duration", d), zap.Error(err))
	}
}
