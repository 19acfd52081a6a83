package wire

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/keepsake.v1.Keepsake/AppendEntry", FullMethod(MethodAppendEntry))
}

func TestIdentityFromProto_SetsPersisted(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := &models.Identity{ID: "u1", Email: "a@b.c", InviteToken: "tok", CreatedAt: created, UpdatedAt: created}

	got, err := IdentityFromProto(IdentityToProto(in))
	require.NoError(t, err)
	assert.True(t, got.Persisted)
	assert.Equal(t, "tok", got.InviteToken)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestIdentityFromProto_MissingID(t *testing.T) {
	_, err := IdentityFromProto(&structpb.Struct{})
	assert.Error(t, err)
}

func TestSnapshotFromProto(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC)
	entries := []models.Entry{
		{ID: "e1", Content: "hello there friend", AuthorEmail: "x@y.z", Emojis: []string{"🎉", "🎂", "🥳"}, CreatedAt: at},
		{ID: "e2", Content: "second entry here", CreatedAt: at.Add(-time.Minute)},
	}

	got, err := SnapshotFromProto(SnapshotToProto(entries))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"🎉", "🎂", "🥳"}, got[0].Emojis)
	assert.True(t, got[0].CreatedAt.Equal(at))
	assert.Nil(t, got[1].Emojis)
}

func TestSnapshotFromProto_EmptyIsNotNil(t *testing.T) {
	got, err := SnapshotFromProto(&structpb.ListValue{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSnapshotFromProto_RejectsNonStruct(t *testing.T) {
	l := &structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("x")}}
	_, err := SnapshotFromProto(l)
	assert.Error(t, err)
}

func TestEntryFromProto_BadTime(t *testing.T) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{FieldCreatedAt: structpb.NewStringValue("yesterday")}}
	_, err := EntryFromProto(s)
	assert.ErrorContains(t, err, FieldCreatedAt)
}

func TestAppendRequest(t *testing.T) {
	in := AppendRequest{InviteToken: "t", AuthorName: "Ann", Content: "c", Emojis: []string{"a", "b", "c"}}
	assert.Equal(t, in, AppendRequestFromProto(AppendRequestToProto(in)))
}
