package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/poinmhs/backend/internal/application/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore(t *testing.T) {
	s := NewMemoryBlobStore()
	ctx := context.Background()

	t.Run("store then read returns the same bytes", func(t *testing.T) {
		data := []byte{0x89, 'P', 'N', 'G'}
		id, err := s.Store(ctx, filestore.FolderPhotos, data, "image/png")
		require.NoError(t, err)
		data[0] = 0

		rc, ct, err := s.Read(ctx, id)
		require.NoError(t, err)
		got, _ := io.ReadAll(rc)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got)
		assert.Equal(t, "image/png", ct)
		assert.True(t, s.Exists(id))
	})

	t.Run("unknown ids are not found", func(t *testing.T) {
		_, _, err := s.Read(ctx, "photos/missing.png")
		assert.ErrorIs(t, err, filestore.ErrObjectNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "photos/missing.png"), filestore.ErrObjectNotFound)
	})

	t.Run("delete removes the object", func(t *testing.T) {
		id, err := s.Store(ctx, filestore.FolderEvidence, []byte("x"), "application/pdf")
		require.NoError(t, err)
		before := s.Len()

		require.NoError(t, s.Delete(ctx, id))
		assert.Equal(t, before-1, s.Len())
		assert.False(t, s.Exists(id))
	})

	t.Run("injected failures are returned", func(t *testing.T) {
		boom := errors.New("boom")
		f := NewMemoryBlobStore()
		f.FailStore = boom
		f.FailDelete = boom

		_, err := f.Store(ctx, "x", []byte("x"), "image/png")
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, f.Delete(ctx, "x"), boom)
	})

	t.Run("cancelled context stops store", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Store(cctx, "x", []byte("x"), "image/png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
