package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PostRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		collection: db.Collection("posts"),
	}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to create post")
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Internal(fmt.Errorf("unexpected id type %T", result.InsertedID), "failed to cast inserted ID")
	}
	post.ID = id
	return post, nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, notFoundOr(err, MsgPostNotFound, "failed to get post")
	}
	return &post, nil
}
