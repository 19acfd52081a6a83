package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultRequestTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	mu             sync.RWMutex
	sessionToken   string
	requestTimeout time.Duration
	dialOpts       []grpc.DialOption
}

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.SessionTokenHeaderName)
	if token != "" {
		md.Set(common.SessionTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) sessionTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withSessionToken(ctx, s.SessionToken()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) sessionTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withSessionToken(ctx, s.SessionToken()), desc, cc, method, opts...)
}

// NewKeepsakeClient connects to endpointURL and authenticates every call with
// sessionToken. A zero requestTimeout means the default of ten seconds.
func NewKeepsakeClient(endpointURL, sessionToken string, requestTimeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	c := &GRPCClient{endpointURL: endpointURL, sessionToken: sessionToken, requestTimeout: requestTimeout, dialOpts: opts}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// SetSessionToken switches the identity used by later calls. Open
// subscriptions keep the token they were opened with.
func (s *GRPCClient) SetSessionToken(token string) {
	s.mu.Lock()
	s.sessionToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.sessionTokenInterceptor),
		grpc.WithStreamInterceptor(s.sessionTokenStreamInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// invoke runs one unary call under the request timeout.
func (s *GRPCClient) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if err := s.conn.Invoke(ctx, wire.FullMethod(method), in, out); err != nil {
		return wire.FromStatus(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	out := new(wrapperspb.StringValue)
	if err := s.invoke(ctx, wire.MethodPing, &emptypb.Empty{}, out); err != nil {
		return err
	}
	if out.GetValue() != "OK" {
		return common.ErrStoreUnavailable
	}
	return nil
}

func (s *GRPCClient) EnsureIdentity(ctx context.Context) (*models.Identity, error) {
	out := new(structpb.Struct)
	if err := s.invoke(ctx, wire.MethodEnsureIdentity, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return wire.IdentityFromProto(out)
}

func (s *GRPCClient) ResolveInvite(ctx context.Context, token string) (*models.Identity, error) {
	out := new(structpb.Struct)
	if err := s.invoke(ctx, wire.MethodResolveInvite, wrapperspb.String(token), out); err != nil {
		return nil, err
	}
	return wire.IdentityFromProto(out)
}

func (s *GRPCClient) AppendEntry(ctx context.Context, req wire.AppendRequest) (*models.Entry, error) {
	out := new(structpb.Struct)
	if err := s.invoke(ctx, wire.MethodAppendEntry, wire.AppendRequestToProto(req), out); err != nil {
		return nil, err
	}
	e, err := wire.EntryFromProto(out)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, displayName, email string) (*models.Identity, error) {
	out := new(structpb.Struct)
	req := wire.ProfileRequestToProto(wire.ProfileRequest{DisplayName: displayName, Email: email})
	if err := s.invoke(ctx, wire.MethodUpdateProfile, req, out); err != nil {
		return nil, err
	}
	return wire.IdentityFromProto(out)
}

func (s *GRPCClient) ExportArchive(ctx context.Context) (wire.Archive, error) {
	out := new(structpb.Struct)
	if err := s.invoke(ctx, wire.MethodExportArchive, &emptypb.Empty{}, out); err != nil {
		return wire.Archive{}, err
	}
	return wire.ArchiveFromProto(out)
}

// Subscribe opens a live feed of recipientID's book. The request timeout
// does not apply; the feed lives until Cancel, ctx ends or it fails.
func (s *GRPCClient) Subscribe(ctx context.Context, recipientID string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	desc := wire.SubscribeStreamDesc
	stream, err := s.conn.NewStream(ctx, &desc, wire.FullMethod(wire.MethodSubscribeEntries))
	if err != nil {
		cancel()
		return nil, wire.FromStatus(err)
	}
	if err := stream.SendMsg(wrapperspb.String(recipientID)); err != nil {
		cancel()
		return nil, wire.FromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return nil, wire.FromStatus(err)
	}

	return newSubscription(ctx, cancel, stream), nil
}
