package services

import (
	"context"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/sanitizer"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlobStore accepts an uploaded image and returns the URL it can be fetched from.
type BlobStore interface {
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
}

// SignupInput is the validated body of a signup request.
type SignupInput struct {
	FirstName string `json:"fName" validate:"required,min=1"`
	LastName  string `json:"lName" validate:"required,min=1"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo  repository.UserStore
	blobs BlobStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo repository.UserStore, blobs BlobStore) *UserService {
	return &UserService{
		repo:  repo,
		blobs: blobs,
	}
}

// RegisterUser creates an account after hashing the password.
func (s *UserService) RegisterUser(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	firstName, lastName := sanitizer.Name(in.FirstName), sanitizer.Name(in.LastName)
	if firstName == "" {
		return nil, apperrors.Validation(`"fName" is not allowed to be empty`)
	}
	if lastName == "" {
		return nil, apperrors.Validation(`"lName" is not allowed to be empty`)
	}
	logrus.WithField("email", email).Info("Registering new user")

	// Check if the email is already registered; the unique index catches a racing insert.
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		logrus.WithField("email", email).Warn("Email already in use")
		return nil, apperrors.Conflict(repository.MsgUserExists)
	}
	if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		HashedPassword: string(hashedPwd),
		ProfilePicture: models.DefaultProfilePicture,
	}
	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("User registration failed")
		return nil, err
	}

	logrus.WithField("userID", created.ID.Hex()).Info("User registered successfully")
	return created, nil
}

// AuthenticateUser verifies the email and password. Unknown email and wrong password
// produce the same error.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logrus.WithField("email", email).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			logrus.WithField("email", email).Warn("User not found")
			return nil, apperrors.Validation("Invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, apperrors.Validation("Invalid credentials")
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// GetPublicProfile returns the limited view other users may see.
func (s *UserService) GetPublicProfile(ctx context.Context, id primitive.ObjectID) (*models.PublicProfile, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// SearchUsers finds at most repository.SearchLimit users other than the requester.
func (s *UserService) SearchUsers(ctx context.Context, requesterID primitive.ObjectID, query string) ([]models.PublicUser, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("Query required")
	}

	users, err := s.repo.SearchUsers(ctx, query, requesterID, repository.SearchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]models.PublicUser, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public(true))
	}
	return results, nil
}

// ProfileInput is a partial profile edit. Picture is optional; when set it is stored
// through the BlobStore and becomes the new avatar.
type ProfileInput struct {
	Bio             *string
	PictureName     string
	PictureContents io.Reader
}

// UpdateProfile applies a partial update; unspecified fields are untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	var update models.ProfileUpdate
	if in.Bio != nil {
		bio := sanitizer.Text(*in.Bio)
		if err := checkLength("bio", bio); err != nil {
			return nil, err
		}
		update.Bio = &bio
	}

	// Fail before storing the upload if the account does not exist.
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return nil, err
	}

	if in.PictureContents != nil {
		url, err := s.blobs.Save(ctx, in.PictureName, in.PictureContents)
		if err != nil {
			return nil, err
		}
		update.ProfilePicture = &url
	}

	user, err := s.repo.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}
	logrus.WithField("userID", id.Hex()).Info("Profile updated")
	return user, nil
}
