package transport

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"go.uber.org/zap"
)

// NewLoggingInterceptor logs every unary call with its duration. Failures
// are logged at warn level with their connect code.
func NewLoggingInterceptor(logger *zap.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			fields := []zap.Field{
				zap.String("procedure", req.Spec().Procedure),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				code := connect.CodeOf(err)
				fields = append(fields, zap.String("code", code.String()), zap.Error(err))
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					logger.Error("rpc failed", fields...)
				} else {
					logger.Warn("rpc failed", fields...)
				}
				return res, err
			}
			logger.Debug("rpc handled", fields...)
			return res, nil
		}
	}
}
