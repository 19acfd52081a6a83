package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/auth"
	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const viewerKey ctxKey = "viewer"

// ViewerFromContext returns the viewer the session interceptor attached.
func ViewerFromContext(ctx context.Context) (*models.Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(*models.Viewer)
	return v, ok && v != nil
}

// publicMethods need no session.
var publicMethods = map[string]bool{
	wire.FullMethod(wire.MethodPing): true,
}

// authenticate checks the session token and the email gate, returning a
// context carrying the viewer.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.SessionTokenHeaderName); len(values) > 0 {
			token = values[0]
		}
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	v, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	if !v.EmailVerified {
		return nil, wire.ToStatus(common.ErrEmailNotVerified)
	}
	if s.allowedDomain != "" && !common.HasEmailDomain(v.Email, s.allowedDomain) {
		return nil, wire.ToStatus(common.ErrEmailDomainNotAllowed)
	}

	return context.WithValue(ctx, viewerKey, v), nil
}

func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// viewerStream overrides Context so handlers see the authenticated viewer.
type viewerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *viewerStream) Context() context.Context {
	return w.ctx
}

func (s *GRPCServer) sessionStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &viewerStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start).String())
	return resp, err
}
