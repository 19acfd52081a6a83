// Package grpc exposes the Keepsake services over gRPC. The service is
// declared by hand (see desc.go) and speaks protobuf well-known types.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/server/services"
	"google.golang.org/grpc"
)

type IdentityService interface {
	Ensure(ctx context.Context, v models.Viewer) (*models.Identity, error)
	Resolve(ctx context.Context, token string) (*models.Identity, error)
	UpdateProfile(ctx context.Context, v models.Viewer, displayName, email string) (*models.Identity, error)
}

type EntryService interface {
	Append(ctx context.Context, author models.Viewer, inviteToken string, draft models.Entry) (*models.Entry, error)
	Watch(ctx context.Context, recipientID string, send func([]models.Entry) error) error
}

type ArchiveService interface {
	Export(ctx context.Context, v models.Viewer) (*services.Archive, error)
}

type GRPCServer struct {
	address       string
	identities    IdentityService
	entries       EntryService
	archives      ArchiveService
	logger        logging.Logger
	jwtSecret     []byte
	allowedDomain string
}

func NewGRPCServer(a string, l logging.Logger, ids IdentityService, es EntryService, as ArchiveService, secretKey, allowedDomain string) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		identities:    ids,
		entries:       es,
		archives:      as,
		jwtSecret:     []byte(secretKey),
		allowedDomain: allowedDomain,
	}
}

// NewServer returns a grpc.Server with the interceptors installed and the
// Keepsake service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.sessionInterceptor),
		grpc.ChainStreamInterceptor(s.sessionStreamInterceptor),
	)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
