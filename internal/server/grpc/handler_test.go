package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/server/services"
	"github.com/dmitrijs2005/keepsake/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestPing_NoSession(t *testing.T) {
	conn := startBufServer(t, newTestServer(nil, nil, nil, ""))

	out := new(wrapperspb.StringValue)
	err := conn.Invoke(context.Background(), wire.FullMethod(wire.MethodPing), &emptypb.Empty{}, out)
	require.NoError(t, err)
	assert.Equal(t, "OK", out.GetValue())
}

func TestEnsureIdentity(t *testing.T) {
	ids := &fakeIdentities{identity: &models.Identity{ID: "u1", Email: verified.Email, InviteToken: "abc123", Persisted: true}}
	conn := startBufServer(t, newTestServer(ids, nil, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, wire.FullMethod(wire.MethodEnsureIdentity), &emptypb.Empty{}, out))

	got, err := wire.IdentityFromProto(out)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.InviteToken)
	require.Len(t, ids.ensured, 1)
	assert.Equal(t, verified, ids.ensured[0])
}

func TestEnsureIdentity_StoreDown(t *testing.T) {
	ids := &fakeIdentities{err: common.ErrStoreUnavailable}
	conn := startBufServer(t, newTestServer(ids, nil, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	err := conn.Invoke(ctx, wire.FullMethod(wire.MethodEnsureIdentity), &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrStoreUnavailable)
}

func TestResolveInvite(t *testing.T) {
	ids := &fakeIdentities{identity: &models.Identity{ID: "r1", DisplayName: "Rana", InviteToken: "abc123"}}
	conn := startBufServer(t, newTestServer(ids, nil, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, wire.FullMethod(wire.MethodResolveInvite), wrapperspb.String("abc123"), out))
	got, err := wire.IdentityFromProto(out)
	require.NoError(t, err)
	assert.Equal(t, "Rana", got.DisplayName)

	err = conn.Invoke(ctx, wire.FullMethod(wire.MethodResolveInvite), wrapperspb.String("zzz"), new(structpb.Struct))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAppendEntry(t *testing.T) {
	es := &fakeEntries{}
	conn := startBufServer(t, newTestServer(nil, es, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	req := wire.AppendRequestToProto(wire.AppendRequest{
		InviteToken: "abc123",
		Content:     "Happy graduation!!",
		Emojis:      []string{"🎉", "🎓", "❤️"},
	})
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, wire.FullMethod(wire.MethodAppendEntry), req, out))

	got, err := wire.EntryFromProto(out)
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "u1", got.AuthorID)
	assert.Equal(t, []string{"abc123"}, es.tokens)
	assert.Equal(t, []string{"🎉", "🎓", "❤️"}, es.appended[0].Emojis)
}

func TestAppendEntry_Invalid(t *testing.T) {
	es := &fakeEntries{}
	conn := startBufServer(t, newTestServer(nil, es, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	req := wire.AppendRequestToProto(wire.AppendRequest{InviteToken: "abc123", Content: "short", Emojis: []string{"🎉"}})
	err := conn.Invoke(ctx, wire.FullMethod(wire.MethodAppendEntry), req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, es.appended)
}

func TestAppendEntry_NoSession(t *testing.T) {
	conn := startBufServer(t, newTestServer(nil, nil, nil, ""))

	req := wire.AppendRequestToProto(wire.AppendRequest{InviteToken: "abc123", Content: "Happy graduation!!", Emojis: []string{"a", "b", "c"}})
	err := conn.Invoke(context.Background(), wire.FullMethod(wire.MethodAppendEntry), req, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestUpdateProfile(t *testing.T) {
	ids := &fakeIdentities{identity: &models.Identity{ID: "u1", DisplayName: "Ayşe", InviteToken: "abc123"}}
	conn := startBufServer(t, newTestServer(ids, nil, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	out := new(structpb.Struct)
	req := wire.ProfileRequestToProto(wire.ProfileRequest{DisplayName: "Ayşe Y."})
	require.NoError(t, conn.Invoke(ctx, wire.FullMethod(wire.MethodUpdateProfile), req, out))
	got, err := wire.IdentityFromProto(out)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Y.", got.DisplayName)
	assert.Equal(t, "abc123", got.InviteToken)
}

func TestExportArchive(t *testing.T) {
	expires := time.Date(2025, 6, 21, 0, 15, 0, 0, time.UTC)
	as := &fakeArchives{archive: &services.Archive{URL: "https://s3/x", ExpiresAt: expires}}
	conn := startBufServer(t, newTestServer(nil, nil, as, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, wire.FullMethod(wire.MethodExportArchive), &emptypb.Empty{}, out))
	got, err := wire.ArchiveFromProto(out)
	require.NoError(t, err)
	assert.Equal(t, "https://s3/x", got.URL)
	assert.True(t, got.ExpiresAt.Equal(expires))
}

func TestExportArchive_Locked(t *testing.T) {
	conn := startBufServer(t, newTestServer(nil, nil, &fakeArchives{err: common.ErrRevealLocked}, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	err := conn.Invoke(ctx, wire.FullMethod(wire.MethodExportArchive), &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrRevealLocked)
}

func openSubscription(t *testing.T, ctx context.Context, conn *grpc.ClientConn, recipientID string) grpc.ClientStream {
	t.Helper()
	desc := wire.SubscribeStreamDesc
	stream, err := conn.NewStream(ctx, &desc, wire.FullMethod(wire.MethodSubscribeEntries))
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(wrapperspb.String(recipientID)))
	require.NoError(t, stream.CloseSend())
	return stream
}

func TestSubscribeEntries_StreamsSnapshots(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	es := &fakeEntries{
		watched: make(chan string, 1),
		snapshots: [][]models.Entry{
			{},
			{{ID: "e1", Content: "Happy graduation!!", RecipientID: "u1", CreatedAt: at}},
		},
	}
	conn := startBufServer(t, newTestServer(nil, es, nil, ""))
	ctx, cancel := context.WithCancel(withSession(context.Background(), sessionToken(t, verified)))
	defer cancel()

	stream := openSubscription(t, ctx, conn, "")

	first := new(structpb.ListValue)
	require.NoError(t, stream.RecvMsg(first))
	assert.Empty(t, first.GetValues())

	second := new(structpb.ListValue)
	require.NoError(t, stream.RecvMsg(second))
	entries, err := wire.SnapshotFromProto(second)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
	assert.True(t, entries[0].CreatedAt.Equal(at))

	assert.Equal(t, "u1", <-es.watched, "empty recipient id means the viewer's own book")
}

func TestSubscribeEntries_OtherBookRefused(t *testing.T) {
	es := &fakeEntries{watched: make(chan string, 1)}
	conn := startBufServer(t, newTestServer(nil, es, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	stream := openSubscription(t, ctx, conn, "someone-else")
	err := stream.RecvMsg(new(structpb.ListValue))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Empty(t, es.watched)
}

func TestSubscribeEntries_StoreError(t *testing.T) {
	es := &fakeEntries{watchErr: common.ErrStoreUnavailable}
	conn := startBufServer(t, newTestServer(nil, es, nil, ""))
	ctx := withSession(context.Background(), sessionToken(t, verified))

	stream := openSubscription(t, ctx, conn, "u1")
	err := stream.RecvMsg(new(structpb.ListValue))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestSubscribeEntries_NoSession(t *testing.T) {
	conn := startBufServer(t, newTestServer(nil, nil, nil, ""))

	stream := openSubscription(t, context.Background(), conn, "u1")
	err := stream.RecvMsg(new(structpb.ListValue))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
