package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type badKindRecord struct {
	Name string `form:"name"`
}

func (*badKindRecord) EntityType() string { return "bad" }

type unknownKindRecord struct {
	Name string `form:"name,kind=colour"`
}

func (*unknownKindRecord) EntityType() string { return "unknown" }

func TestSchemaOf_Book(t *testing.T) {
	s, err := SchemaOf(NewBook())
	require.NoError(t, err)

	names := make([]string, 0, s.Total())
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	want := []string{"title", "description", "images", "file", "accessLink", "price", "category", "language"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}

	file, ok := s.Field("file")
	require.True(t, ok)
	assert.Equal(t, KindFile, file.Kind)
	assert.Equal(t, "source", file.OneOf)
	assert.Len(t, s.Group("source"), 2)
}

func TestSchemaOf_HorseUnsetAndCache(t *testing.T) {
	first := MustSchemaOf(NewHorse())
	second := MustSchemaOf(&Horse{})
	assert.Same(t, first, second)

	level, ok := first.Field("profileLevel")
	require.True(t, ok)
	assert.Equal(t, "basic", level.Unset)
	assert.Equal(t, 13, first.Total())
}

func TestSchemaOf_RejectsUndeclaredKinds(t *testing.T) {
	_, err := SchemaOf(&badKindRecord{})
	assert.ErrorIs(t, err, ErrMissingKind)

	_, err = SchemaOf(&unknownKindRecord{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSetField(t *testing.T) {
	b := NewBook()

	require.NoError(t, SetField(b, "title", json.RawMessage(`"Arabian Bloodlines"`)))
	require.NoError(t, SetField(b, "price", json.RawMessage(`12.5`)))
	assert.Equal(t, "Arabian Bloodlines", b.Title)
	assert.Equal(t, "12.5", b.Price)

	require.NoError(t, SetField(b, "price", json.RawMessage(`"not-a-number"`)))
	assert.Equal(t, "not-a-number", b.Price)

	assert.ErrorIs(t, SetField(b, "isbn", json.RawMessage(`"x"`)), ErrUnknownField)
	assert.Error(t, SetField(b, "file", json.RawMessage(`"inline"`)))
}

func TestAttachUploadAndClear(t *testing.T) {
	b := NewBook()
	img := &Upload{Filename: "cover.jpg", ContentType: "image/jpeg", Data: []byte{1}}

	require.NoError(t, AttachUpload(b, "images", img))
	require.NoError(t, AttachUpload(b, "images", img))
	require.NoError(t, AttachUpload(b, "file", &Upload{Filename: "book.pdf"}))
	assert.Len(t, b.Images, 2)
	assert.NotNil(t, b.File)

	require.NoError(t, SetField(b, "file", json.RawMessage(`null`)))
	assert.Nil(t, b.File)

	assert.Error(t, AttachUpload(b, "title", img))
}

func TestReset_RestoresDefaults(t *testing.T) {
	h := NewHorse()
	h.Name = "Najm"
	h.ProfileLevel = "gold"
	h.Activities = append(h.Activities, Activity{Activity: "endurance", Level: "national"})

	Reset(h)

	assert.Empty(t, h.Name)
	assert.Equal(t, "basic", h.ProfileLevel)
	assert.Empty(t, h.Activities)
}

func TestLookupEntity(t *testing.T) {
	assert.Equal(t, []string{"book", "horse"}, EntityTypes())

	horse, ok := LookupEntity(EntityHorse)
	require.True(t, ok)
	assert.True(t, horse.Tiered())
	assert.Equal(t, "owner", horse.OwnerField)

	book, _ := LookupEntity(EntityBook)
	assert.False(t, book.Tiered())
	assert.Equal(t, "author", book.OwnerField)
}

func TestUpload_MarshalOmitsContent(t *testing.T) {
	out, err := json.Marshal(&Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("abc")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"a.png","contentType":"image/png","size":3}`, string(out))
}

func TestResetField(t *testing.T) {
	h := NewHorse()
	h.Name = "Najm"
	h.ProfileLevel = "silver"

	require.NoError(t, ResetField(h, "profileLevel"))
	assert.Equal(t, "basic", h.ProfileLevel)
	assert.Equal(t, "Najm", h.Name)

	assert.ErrorIs(t, ResetField(h, "rider"), ErrUnknownField)
}
