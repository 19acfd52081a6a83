package grpc

import (
	"context"

	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) viewer(ctx context.Context) (models.Viewer, error) {
	v, ok := ViewerFromContext(ctx)
	if !ok {
		return models.Viewer{}, status.Error(codes.Unauthenticated, "no session")
	}
	return *v, nil
}

// fail logs err and converts it for the wire.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := wire.ToStatus(err)
	if status.Code(st) == codes.Internal || status.Code(st) == codes.Unavailable {
		s.logger.Error(ctx, method+" failed", "error", err)
	} else {
		s.logger.Debug(ctx, method+" refused", "error", err)
	}
	return st
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}

func (s *GRPCServer) EnsureIdentity(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	v, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.Ensure(ctx, v)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodEnsureIdentity, err)
	}
	return wire.IdentityToProto(identity), nil
}

func (s *GRPCServer) ResolveInvite(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	identity, err := s.identities.Resolve(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, wire.MethodResolveInvite, err)
	}
	return wire.IdentityToProto(identity), nil
}

func (s *GRPCServer) AppendEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}

	r := wire.AppendRequestFromProto(req)
	entry, err := s.entries.Append(ctx, v, r.InviteToken, models.Entry{
		Content:    r.Content,
		AuthorName: r.AuthorName,
		Emojis:     r.Emojis,
	})
	if err != nil {
		return nil, s.fail(ctx, wire.MethodAppendEntry, err)
	}

	s.logger.Info(ctx, "entry appended", "entry_id", entry.ID, "author_id", v.ID)
	return wire.EntryToProto(entry), nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}

	p := wire.ProfileRequestFromProto(req)
	identity, err := s.identities.UpdateProfile(ctx, v, p.DisplayName, p.Email)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodUpdateProfile, err)
	}
	return wire.IdentityToProto(identity), nil
}

func (s *GRPCServer) ExportArchive(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	v, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.archives.Export(ctx, v)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodExportArchive, err)
	}
	return wire.ArchiveToProto(wire.Archive{URL: a.URL, ExpiresAt: a.ExpiresAt}), nil
}

// SubscribeEntries streams the viewer's own book. An empty recipient id means
// the viewer's; any other id is refused.
func (s *GRPCServer) SubscribeEntries(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.ListValue]) error {
	ctx := stream.Context()
	v, err := s.viewer(ctx)
	if err != nil {
		return err
	}

	recipientID := req.GetValue()
	if recipientID == "" {
		recipientID = v.ID
	}
	if recipientID != v.ID {
		return status.Error(codes.PermissionDenied, "a book can only be watched by its owner")
	}

	s.logger.Info(ctx, "subscription opened", "recipient_id", recipientID)
	err = s.entries.Watch(ctx, recipientID, func(entries []models.Entry) error {
		return stream.Send(wire.SnapshotToProto(entries))
	})
	if ctx.Err() != nil {
		s.logger.Info(ctx, "subscription closed", "recipient_id", recipientID)
		return nil
	}
	return s.fail(ctx, wire.MethodSubscribeEntries, err)
}
