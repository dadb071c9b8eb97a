package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mavon-shop/internal/model"
)

const commentsCollection = "comments"

type CommentRepository struct {
	col *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{col: db.Collection(commentsCollection)}
}

// EnsureIndexes creates the listing index; safe to re-run.
func (r *CommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("product_created_desc"),
	})
	if err != nil {
		return fmt.Errorf("ensure comment indexes: %w", err)
	}
	return nil
}

type commentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ProductID  string             `bson:"product_id"`
	UserID     string             `bson:"user_id"`
	AuthorName string             `bson:"author_name"`
	Rating     int                `bson:"rating"`
	Body       string             `bson:"body"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d commentDoc) toModel() model.Comment {
	return model.Comment{
		ID:         d.ID.Hex(),
		ProductID:  d.ProductID,
		UserID:     d.UserID,
		AuthorName: d.AuthorName,
		Rating:     d.Rating,
		Body:       d.Body,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *CommentRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	// Mongo DateTime keeps millisecond precision.
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := commentDoc{
		ProductID:  c.ProductID,
		UserID:     c.UserID,
		AuthorName: c.AuthorName,
		Rating:     c.Rating,
		Body:       c.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return model.Comment{}, fmt.Errorf("insert comment: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.Comment{}, fmt.Errorf("insert comment: unexpected inserted id type")
	}
	doc.ID = oid
	return doc.toModel(), nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (model.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Comment{}, model.ErrCommentNotFound
	}

	var doc commentDoc
	err = r.col.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Comment{}, model.ErrCommentNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return doc.toModel(), nil
}

func (r *CommentRepository) ListByProduct(ctx context.Context, productID string, page int, limit int) ([]model.Comment, int, error) {
	filter := bson.D{{Key: "product_id", Value: productID}}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]model.Comment, 0)
	for cursor.Next(ctx) {
		var doc commentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode comment: %w", err)
		}
		comments = append(comments, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	return comments, int(total), nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrCommentNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}
