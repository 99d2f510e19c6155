package server

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/parleychat/parley/pkg/metrics"
)

// UnaryInterceptor records per-RPC metrics and debug logs for the messaging
// API. Raft RPCs run at heartbeat cadence and are excluded from both.
func UnaryInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, "/messaging.RaftService/") {
			return handler(ctx, req)
		}

		method := methodName(info.FullMethod)
		timer := metrics.NewTimer()

		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		metrics.APIRequestsTotal.WithLabelValues(method, code.String()).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, method)

		evt := logger.Debug().Str("method", method).Str("code", code.String()).Dur("duration", timer.Duration())
		if err != nil {
			evt = evt.Err(err)
		}
		evt.Msg("handled request")

		return resp, err
	}
}

// methodName extracts the bare method from a full gRPC method path.
func methodName(full string) string {
	if idx := strings.LastIndex(full, "/"); idx >= 0 {
		return full[idx+1:]
	}
	return full
}
