package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathBuilder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func() *PathBuilder
		want    string
		wantErr bool
	}{
		{
			name:  "collection",
			build: func() *PathBuilder { return NewPathBuilder().Collection("profiles") },
			want:  "profiles",
		},
		{
			name: "nested document",
			build: func() *PathBuilder {
				return NewPathBuilder().Collection("profiles").Document("u1").Collection("curricula").Document("c1")
			},
			want: "profiles/u1/curricula/c1",
		},
		{
			name:    "empty",
			build:   NewPathBuilder,
			wantErr: true,
		},
		{
			name:    "document first",
			build:   func() *PathBuilder { return NewPathBuilder().Document("u1") },
			wantErr: true,
		},
		{
			name:    "two collections",
			build:   func() *PathBuilder { return NewPathBuilder().Collection("a").Collection("b") },
			wantErr: true,
		},
		{
			name:    "blank segment",
			build:   func() *PathBuilder { return NewPathBuilder().Collection("profiles").Document(" ") },
			wantErr: true,
		},
		{
			name:    "slash in segment",
			build:   func() *PathBuilder { return NewPathBuilder().Collection("profiles").Document("a/b") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build().Build()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	p, err := ParsePath("profiles/u1/curricula")
	require.NoError(t, err)
	assert.True(t, p.IsCollection())
	assert.Equal(t, "curricula", p.Collection())
	assert.Empty(t, p.ID())
	owner, ok := p.Owner()
	assert.True(t, ok)
	assert.Equal(t, "u1", owner)

	p, err = ParsePath("profiles/u1/curricula/c1")
	require.NoError(t, err)
	assert.True(t, p.IsDocument())
	assert.Equal(t, "curricula", p.Collection())
	assert.Equal(t, "c1", p.ID())

	for _, bad := range []string{"", "/profiles", "profiles//x", "profiles/u1/"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestParent(t *testing.T) {
	t.Parallel()

	parent, err := Parent("profiles/u1/curricula/c1")
	require.NoError(t, err)
	assert.Equal(t, "profiles/u1/curricula", parent)

	_, err = Parent("profiles/u1/curricula")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestHierarchyHelpers(t *testing.T) {
	t.Parallel()

	uid, cid, mid, lid, sid := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	want, err := NewPathBuilder().
		Collection(CollectionProfiles).Document(uid.String()).
		Collection(CollectionCurricula).Document(cid.String()).
		Collection(CollectionModules).Document(mid.String()).
		Collection(CollectionLessons).Document(lid.String()).
		Collection(CollectionSections).Document(sid.String()).
		Build()
	require.NoError(t, err)
	assert.Equal(t, want, SectionPath(uid, cid, mid, lid, sid))

	parent, err := Parent(SectionPath(uid, cid, mid, lid, sid))
	require.NoError(t, err)
	assert.Equal(t, SectionsPath(uid, cid, mid, lid), parent)
	assert.True(t, IsWithin(LessonPath(uid, cid, mid, lid), CurriculumPath(uid, cid)))
	assert.False(t, IsWithin(CurriculumPath(uid, cid)+"x", CurriculumPath(uid, cid)))
}

func TestParseContentRef(t *testing.T) {
	t.Parallel()

	uid, cid, mid, lid := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	ref, err := ParseContentRef(LessonPath(uid, cid, mid, lid))
	require.NoError(t, err)
	assert.Equal(t, CollectionLessons, ref.Kind())
	assert.Equal(t, lid, ref.LessonID)
	assert.Equal(t, LessonPath(uid, cid, mid, lid), ref.Path())

	ref, err = ParseContentRef(CurriculumPath(uid, cid))
	require.NoError(t, err)
	assert.Equal(t, CollectionCurricula, ref.Kind())

	bad := []string{
		ProfilePath(uid),
		CurriculaPath(uid),
		"profiles/" + uid.String() + "/notes/" + cid.String(),
		"profiles/" + uid.String() + "/curricula/not-a-uuid",
	}
	for _, p := range bad {
		_, err := ParseContentRef(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}
