package wire

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names shared by both ends.
const (
	FieldID             = "id"
	FieldEmail          = "email"
	FieldDisplayName    = "displayName"
	FieldInviteToken    = "inviteToken"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
	FieldContent        = "content"
	FieldAuthorID       = "authorId"
	FieldAuthorEmail    = "authorEmail"
	FieldAuthorName     = "authorName"
	FieldRecipientID    = "recipientId"
	FieldRecipientEmail = "recipientEmail"
	FieldEmojis         = "emojis"
	FieldURL            = "url"
	FieldExpiresAt      = "expiresAt"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[name].GetStringValue()
}

func timeField(s *structpb.Struct, name string) (time.Time, error) {
	t, err := parseTime(stringField(s, name))
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", name, err)
	}
	return t, nil
}

// IdentityToProto encodes a persisted identity record.
func IdentityToProto(i *models.Identity) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:          structpb.NewStringValue(i.ID),
		FieldEmail:       structpb.NewStringValue(i.Email),
		FieldDisplayName: structpb.NewStringValue(i.DisplayName),
		FieldInviteToken: structpb.NewStringValue(i.InviteToken),
		FieldCreatedAt:   structpb.NewStringValue(formatTime(i.CreatedAt)),
		FieldUpdatedAt:   structpb.NewStringValue(formatTime(i.UpdatedAt)),
	}}
}

// IdentityFromProto decodes an identity record. Anything that arrives over
// the wire came from the store, so Persisted is set.
func IdentityFromProto(s *structpb.Struct) (*models.Identity, error) {
	createdAt, err := timeField(s, FieldCreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := timeField(s, FieldUpdatedAt)
	if err != nil {
		return nil, err
	}
	id := &models.Identity{
		ID:          stringField(s, FieldID),
		Email:       stringField(s, FieldEmail),
		DisplayName: stringField(s, FieldDisplayName),
		InviteToken: stringField(s, FieldInviteToken),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Persisted:   true,
	}
	if id.ID == "" {
		return nil, fmt.Errorf("identity without id")
	}
	return id, nil
}

func emojisToProto(emojis []string) *structpb.Value {
	values := make([]*structpb.Value, 0, len(emojis))
	for _, e := range emojis {
		values = append(values, structpb.NewStringValue(e))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func emojisFromProto(s *structpb.Struct) []string {
	list := s.GetFields()[FieldEmojis].GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// EntryToProto encodes a stored entry.
func EntryToProto(e *models.Entry) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:             structpb.NewStringValue(e.ID),
		FieldContent:        structpb.NewStringValue(e.Content),
		FieldAuthorID:       structpb.NewStringValue(e.AuthorID),
		FieldAuthorEmail:    structpb.NewStringValue(e.AuthorEmail),
		FieldAuthorName:     structpb.NewStringValue(e.AuthorName),
		FieldRecipientID:    structpb.NewStringValue(e.RecipientID),
		FieldRecipientEmail: structpb.NewStringValue(e.RecipientEmail),
		FieldEmojis:         emojisToProto(e.Emojis),
		FieldCreatedAt:      structpb.NewStringValue(formatTime(e.CreatedAt)),
	}}
}

// EntryFromProto decodes a stored entry.
func EntryFromProto(s *structpb.Struct) (models.Entry, error) {
	createdAt, err := timeField(s, FieldCreatedAt)
	if err != nil {
		return models.Entry{}, err
	}
	return models.Entry{
		ID:             stringField(s, FieldID),
		Content:        stringField(s, FieldContent),
		AuthorID:       stringField(s, FieldAuthorID),
		AuthorEmail:    stringField(s, FieldAuthorEmail),
		AuthorName:     stringField(s, FieldAuthorName),
		RecipientID:    stringField(s, FieldRecipientID),
		RecipientEmail: stringField(s, FieldRecipientEmail),
		Emojis:         emojisFromProto(s),
		CreatedAt:      createdAt,
	}, nil
}

// SnapshotToProto encodes one full feed delivery.
func SnapshotToProto(entries []models.Entry) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(entries))
	for i := range entries {
		values = append(values, structpb.NewStructValue(EntryToProto(&entries[i])))
	}
	return &structpb.ListValue{Values: values}
}

// SnapshotFromProto decodes one full feed delivery. The result is never nil.
func SnapshotFromProto(l *structpb.ListValue) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("snapshot item %d is not an entry", i)
		}
		e, err := EntryFromProto(s)
		if err != nil {
			return nil, fmt.Errorf("snapshot item %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// AppendRequest is what an author sends: the invite token that names the
// recipient plus the author-controlled fields.
type AppendRequest struct {
	InviteToken string
	AuthorName  string
	Content     string
	Emojis      []string
}

func AppendRequestToProto(r AppendRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldInviteToken: structpb.NewStringValue(r.InviteToken),
		FieldAuthorName:  structpb.NewStringValue(r.AuthorName),
		FieldContent:     structpb.NewStringValue(r.Content),
		FieldEmojis:      emojisToProto(r.Emojis),
	}}
}

func AppendRequestFromProto(s *structpb.Struct) AppendRequest {
	return AppendRequest{
		InviteToken: stringField(s, FieldInviteToken),
		AuthorName:  stringField(s, FieldAuthorName),
		Content:     stringField(s, FieldContent),
		Emojis:      emojisFromProto(s),
	}
}

// ProfileRequest changes the viewer's display name and, optionally, email.
type ProfileRequest struct {
	DisplayName string
	Email       string
}

func ProfileRequestToProto(r ProfileRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldDisplayName: structpb.NewStringValue(r.DisplayName),
		FieldEmail:       structpb.NewStringValue(r.Email),
	}}
}

func ProfileRequestFromProto(s *structpb.Struct) ProfileRequest {
	return ProfileRequest{
		DisplayName: stringField(s, FieldDisplayName),
		Email:       stringField(s, FieldEmail),
	}
}

// Archive is the answer to an export request.
type Archive struct {
	URL       string
	ExpiresAt time.Time
}

func ArchiveToProto(a Archive) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldURL:       structpb.NewStringValue(a.URL),
		FieldExpiresAt: structpb.NewStringValue(formatTime(a.ExpiresAt)),
	}}
}

func ArchiveFromProto(s *structpb.Struct) (Archive, error) {
	expiresAt, err := timeField(s, FieldExpiresAt)
	if err != nil {
		return Archive{}, err
	}
	return Archive{URL: stringField(s, FieldURL), ExpiresAt: expiresAt}, nil
}
