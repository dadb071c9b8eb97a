package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavon-shop/internal/model"
)

type fakeCommentStore struct {
	comments map[string]model.Comment
	nextID   int
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: map[string]model.Comment{}}
}

func (f *fakeCommentStore) Create(_ context.Context, c model.Comment) (model.Comment, error) {
	f.nextID++
	c.ID = "c" + strconv.Itoa(f.nextID)
	c.CreatedAt = time.Now().UTC()
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakeCommentStore) FindByID(_ context.Context, id string) (model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return model.Comment{}, model.ErrCommentNotFound
	}
	return c, nil
}

func (f *fakeCommentStore) ListByProduct(_ context.Context, productID string, _ int, _ int) ([]model.Comment, int, error) {
	var out []model.Comment
	for _, c := range f.comments {
		if c.ProductID == productID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (f *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return model.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func newTestCommentService() (*CommentService, *fakeCommentStore) {
	store := newFakeCommentStore()
	products := &fakeProductGetter{products: map[string]model.Product{
		"lipstick": {ID: "lipstick", Name: "Velvet Lipstick", Price: 25},
	}}
	return NewCommentService(store, products, 12, 100), store
}

func TestCommentService_Create(t *testing.T) {
	t.Parallel()

	author := model.AuthUser{ID: "u1", Name: "Mira"}

	t.Run("stores author snapshot", func(t *testing.T) {
		svc, _ := newTestCommentService()

		comment, err := svc.Create(context.Background(), "lipstick", author, model.CommentRequest{Rating: 5, Body: "lovely"})
		require.NoError(t, err)
		assert.Equal(t, "u1", comment.UserID)
		assert.Equal(t, "Mira", comment.AuthorName)
		assert.Equal(t, 5, comment.Rating)
	})

	t.Run("rating bounds", func(t *testing.T) {
		svc, _ := newTestCommentService()

		for _, rating := range []int{0, 6, -1} {
			_, err := svc.Create(context.Background(), "lipstick", author, model.CommentRequest{Rating: rating, Body: "x"})
			require.Error(t, err, "rating %d", rating)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		svc, _ := newTestCommentService()

		_, err := svc.Create(context.Background(), "lipstick", author, model.CommentRequest{Rating: 3, Body: "   "})
		require.Error(t, err)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newTestCommentService()

		_, err := svc.Create(context.Background(), "ghost", author, model.CommentRequest{Rating: 3, Body: "x"})
		require.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestCommentService_Delete(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T) (*CommentService, model.Comment) {
		t.Helper()

		svc, _ := newTestCommentService()
		comment, err := svc.Create(context.Background(), "lipstick", model.AuthUser{ID: "author", Name: "A"}, model.CommentRequest{Rating: 4, Body: "nice"})
		require.NoError(t, err)
		return svc, comment
	}

	t.Run("author can delete", func(t *testing.T) {
		svc, comment := seed(t)

		err := svc.Delete(context.Background(), comment.ID, model.AuthClaims{UserID: "author", Role: model.RoleUser})
		require.NoError(t, err)
	})

	t.Run("admin can delete", func(t *testing.T) {
		svc, comment := seed(t)

		err := svc.Delete(context.Background(), comment.ID, model.AuthClaims{UserID: "someone-else", Role: model.RoleAdmin})
		require.NoError(t, err)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		svc, comment := seed(t)

		err := svc.Delete(context.Background(), comment.ID, model.AuthClaims{UserID: "stranger", Role: model.RoleUser})
		require.ErrorIs(t, err, model.ErrForbidden)
	})
}
