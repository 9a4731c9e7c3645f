package services

import (
	"context"
	"io"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/sanitizer"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostService struct {
	repo     repository.PostStore
	userRepo repository.UserStore
	blobs    BlobStore
}

func NewPostService(repo repository.PostStore, userRepo repository.UserStore, blobs BlobStore) *PostService {
	return &PostService{
		repo:     repo,
		userRepo: userRepo,
		blobs:    blobs,
	}
}

// CreatePost stores the media, records the post and appends it to the owner's posts.
func (s *PostService) CreatePost(ctx context.Context, userID primitive.ObjectID, caption, mediaName string, media io.Reader) (*models.Post, error) {
	caption = sanitizer.Text(caption)
	if caption == "" {
		return nil, apperrors.Validation(`"caption" is required`)
	}
	if err := checkLength("caption", caption); err != nil {
		return nil, err
	}
	if media == nil {
		return nil, apperrors.Validation("Photo required")
	}

	url, err := s.blobs.Save(ctx, mediaName, media)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.CreatePost(ctx, &models.Post{
		UserID:  userID,
		Caption: caption,
		Media:   url,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": userID.Hex(),
			"media":  url,
			"status": "orphaned",
		}).WithError(err).Error("Post not stored; uploaded media left behind")
		return nil, err
	}
	if err := s.userRepo.AppendPost(ctx, userID, post.ID); err != nil {
		logrus.WithFields(logrus.Fields{
			"postID": post.ID.Hex(),
			"userID": userID.Hex(),
			"status": "orphaned",
		}).WithError(err).Error("Post stored but not listed on its owner")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"postID": post.ID.Hex(),
		"userID": userID.Hex(),
	}).Info("Post created")
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.repo.GetPostByID(ctx, id)
}
