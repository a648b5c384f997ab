package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRemover struct {
	deleted []string
}

func (f *fakeRemover) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeRemover) Configured() bool { return true }

func TestHelpVideoCatalog(t *testing.T) {
	db := newTestDB(t)
	hv := NewHelpVideos(db, testLogger(), nil)
	ctx := context.Background()

	second, err := hv.Create(ctx, CreateHelpVideoInput{
		Title:        "Retirer ses gains",
		VideoURL:     "https://cdn.example.com/retraits.mp4",
		DisplayOrder: 2,
	})
	require.NoError(t, err)
	first, err := hv.Create(ctx, CreateHelpVideoInput{
		Title:        "Commencer",
		VideoURL:     "https://cdn.example.com/demarrage.mp4",
		DisplayOrder: 1,
	})
	require.NoError(t, err)

	active, err := hv.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
}

func TestHelpVideoToggleHidesFromCatalog(t *testing.T) {
	db := newTestDB(t)
	hv := NewHelpVideos(db, testLogger(), nil)
	ctx := context.Background()

	created, err := hv.Create(ctx, CreateHelpVideoInput{Title: "Parrainage", VideoURL: "https://cdn.example.com/parrainage.mp4"})
	require.NoError(t, err)

	require.NoError(t, hv.Toggle(ctx, created.ID))
	active, err := hv.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, hv.Toggle(ctx, created.ID))
	active, err = hv.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	assert.ErrorIs(t, hv.Toggle(ctx, created.ID+100), gorm.ErrRecordNotFound)
}

func TestHelpVideoDeleteRemovesCloudMedia(t *testing.T) {
	db := newTestDB(t)
	remover := &fakeRemover{}
	hv := NewHelpVideos(db, testLogger(), remover)
	ctx := context.Background()

	created, err := hv.Create(ctx, CreateHelpVideoInput{
		Title:         "Soumettre une preuve",
		VideoURL:      "https://cdn.example.com/preuve.mp4",
		CloudPublicID: "help/2026-08/abc",
	})
	require.NoError(t, err)

	require.NoError(t, hv.Delete(ctx, created.ID))
	assert.Equal(t, []string{"help/2026-08/abc"}, remover.deleted)

	all, err := hv.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = hv.ByID(ctx, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTestimonialToggle(t *testing.T) {
	db := newTestDB(t)
	tms := NewTestimonials(db, testLogger())
	ctx := context.Background()

	created, err := tms.Create(ctx, "J'ai gagné 5 000 FCFA cette semaine !")
	require.NoError(t, err)

	require.NoError(t, tms.Toggle(ctx, created.ID))
	active, err := tms.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, tms.Toggle(ctx, created.ID))
	active, err = tms.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	assert.ErrorIs(t, tms.Toggle(ctx, created.ID+100), gorm.ErrRecordNotFound)
}
