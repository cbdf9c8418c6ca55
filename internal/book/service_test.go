package book

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)

	repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
		assert.Equal(t, "user-1", b.CreatedBy)
		assert.Empty(t, b.ID)
		b.ID = "book-1"
		return nil
	})

	b, err := svc.Create(ctx, "user-1", Book{ID: "client-chosen", Title: "Dune", CreatedBy: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "book-1", b.ID)
	assert.Equal(t, "user-1", b.CreatedBy)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	title := "Dune Messiah"
	owned := Book{ID: "book-1", Title: "Dune", CreatedBy: "user-1"}

	t.Run("owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "book-1").Return(owned, nil)
		repo.EXPECT().Update(ctx, "book-1", Update{Title: &title}).Return(Book{ID: "book-1", Title: title, CreatedBy: "user-1"}, nil)

		b, err := svc.Update(ctx, "user-1", "book-1", Update{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, b.Title)
	})

	t.Run("not owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "book-1").Return(owned, nil)

		_, err := svc.Update(ctx, "user-2", "book-1", Update{Title: &title})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "book-1").Return(owned, nil)

		b, err := svc.Update(ctx, "user-1", "book-1", Update{})
		require.NoError(t, err)
		assert.Equal(t, owned, b)
	})

	t.Run("missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "nope").Return(Book{}, ErrNotFound)

		_, err := svc.Update(ctx, "user-1", "nope", Update{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	owned := Book{ID: "book-1", CreatedBy: "user-1"}

	t.Run("owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "book-1").Return(owned, nil)
		repo.EXPECT().Delete(ctx, "book-1").Return(nil)

		require.NoError(t, svc.Delete(ctx, "user-1", "book-1"))
	})

	t.Run("not owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		svc := NewService(repo)

		repo.EXPECT().GetByID(ctx, "book-1").Return(owned, nil)

		assert.ErrorIs(t, svc.Delete(ctx, "user-2", "book-1"), ErrForbidden)
	})
}
