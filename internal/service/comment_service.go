package service

import (
	"context"
	"strings"

	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

type commentStore interface {
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	FindByID(ctx context.Context, id string) (model.Comment, error)
	ListByProduct(ctx context.Context, productID string, page int, limit int) ([]model.Comment, int, error)
	Delete(ctx context.Context, id string) error
}

type CommentService struct {
	comments     commentStore
	products     productGetter
	limitDefault int
	limitMax     int
}

func NewCommentService(comments commentStore, products productGetter, limitDefault int, limitMax int) *CommentService {
	return &CommentService{
		comments:     comments,
		products:     products,
		limitDefault: limitDefault,
		limitMax:     limitMax,
	}
}

func (s *CommentService) Create(ctx context.Context, productID string, author model.AuthUser, req model.CommentRequest) (model.Comment, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return model.Comment{}, apierror.BadRequest("rating must be between 1 and 5", "")
	}
	if strings.TrimSpace(req.Body) == "" {
		return model.Comment{}, apierror.BadRequest("comment body is required", "")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return model.Comment{}, err
	}

	return s.comments.Create(ctx, model.Comment{
		ProductID:  productID,
		UserID:     author.ID,
		AuthorName: author.Name,
		Rating:     req.Rating,
		Body:       strings.TrimSpace(req.Body),
	})
}

func (s *CommentService) ListByProduct(ctx context.Context, productID string, page int, limit int) ([]model.Comment, *model.Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.limitDefault
	}
	if limit > s.limitMax {
		limit = s.limitMax
	}

	comments, total, err := s.comments.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, nil, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return comments, &model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}, nil
}

// Delete is allowed for the comment's author and for admins.
func (s *CommentService) Delete(ctx context.Context, id string, actor model.AuthClaims) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if comment.UserID != actor.UserID && actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}

	return s.comments.Delete(ctx, id)
}
