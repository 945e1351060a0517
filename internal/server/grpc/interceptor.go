package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/passvault/internal/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := time.Since(start)

	code := status.Code(err).String()
	metrics.RecordRequest("grpc", info.FullMethod, code, elapsed)

	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", "method", info.FullMethod, "code", code, "duration", elapsed.String(), "error", err)
	}

	return resp, err
}
