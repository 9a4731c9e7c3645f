package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection   *mongo.Collection
	transactions bool
}

// NewUserRepository creates a new instance of UserRepository.
// When transactions is true, friend edges are written inside a multi-document transaction,
// which requires a replica set.
func NewUserRepository(db *mongo.Database, transactions bool) *UserRepository {
	return &UserRepository{
		collection:   db.Collection("users"),
		transactions: transactions,
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.Posts == nil {
		user.Posts = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logrus.WithField("email", user.Email).Warn("Duplicate email on insert")
			return nil, apperrors.Wrap(err, apperrors.KindConflict, MsgUserExists)
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, apperrors.Internal(err, "failed to insert user")
	}

	// Convert the inserted ID to primitive.ObjectID and assign it.
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, apperrors.Internal(fmt.Errorf("unexpected id type %T", result.InsertedID), "failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"email": email,
			"error": err,
		}).Debug("Failed to find user by email")
		return nil, notFoundOr(err, MsgUserNotFound, "failed to find user by email")
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Debug("Failed to find user by ID")
		return nil, notFoundOr(err, MsgUserNotFound, "failed to find user by id")
	}
	return &user, nil
}

// GetUsersByIDs fetches user details for a list of ObjectIDs.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Internal(err, "failed to fetch users by IDs")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Internal(err, "failed to decode users")
	}
	return users, nil
}

func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "friends": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to fetch users")
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, apperrors.Internal(err, "failed to decode user")
		}
		users = append(users, &user)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Internal(err, "failed to iterate users")
	}
	return users, nil
}

// SearchUsers matches query case-insensitively against first name, last name and email.
func (r *UserRepository) SearchUsers(ctx context.Context, query string, excludeID primitive.ObjectID, limit int) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"$or": []bson.M{
			{"email": pattern},
			{"first_name": pattern},
			{"last_name": pattern},
		},
		"_id": bson.M{"$ne": excludeID},
	}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{"first_name": 1, "last_name": 1, "email": 1, "profile_picture": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to search users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Internal(err, "failed to decode users")
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of update and returns the stored user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.ProfilePicture != nil {
		set["profile_picture"] = *update.ProfilePicture
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Warn("Failed to update profile")
		return nil, notFoundOr(err, MsgUserNotFound, "failed to update user")
	}

	logrus.WithField("userID", id.Hex()).Info("Profile updated successfully")
	return &user, nil
}

func (r *UserRepository) AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"posts": postID}},
	)
	if err != nil {
		return apperrors.Internal(err, "failed to append post")
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound(MsgUserNotFound)
	}
	return nil
}

// AddFriend adds friendID to userID's friend set. $addToSet keeps it idempotent.
func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"friends": friendID}},
	)
	if err != nil {
		return apperrors.Internal(err, fmt.Sprintf("failed to add friend to user %s", userID.Hex()))
	}
	return nil
}

// PullFriend removes friendID from userID's friend set.
func (r *UserRepository) PullFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": friendID}},
	)
	if err != nil {
		return apperrors.Internal(err, fmt.Sprintf("failed to remove friend from user %s", userID.Hex()))
	}
	return nil
}

// AddFriendEdge makes a and b friends of each other.
func (r *UserRepository) AddFriendEdge(ctx context.Context, a, b primitive.ObjectID) error {
	return r.writeEdge(ctx, "add", a, b, r.AddFriend)
}

// RemoveFriendEdge removes each user from the other's friend list.
func (r *UserRepository) RemoveFriendEdge(ctx context.Context, a, b primitive.ObjectID) error {
	return r.writeEdge(ctx, "remove", a, b, r.PullFriend)
}

func (r *UserRepository) writeEdge(ctx context.Context, op string, a, b primitive.ObjectID, write SideWrite) error {
	if r.transactions {
		return r.writeEdgeTx(ctx, op, a, b, write)
	}
	return WriteEdgeSides(ctx, op, a, b, write)
}

func (r *UserRepository) writeEdgeTx(ctx context.Context, op string, a, b primitive.ObjectID, write SideWrite) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return apperrors.Internal(err, "failed to start session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := write(sc, a, b); err != nil {
			return nil, err
		}
		return nil, write(sc, b, a)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"op":    op,
			"userA": a.Hex(),
			"userB": b.Hex(),
		}).WithError(err).Error("Friend edge transaction failed")
		if apperrors.KindOf(err) != apperrors.KindInternal {
			return err
		}
		return apperrors.Internal(err, "failed to update friend edge")
	}
	return nil
}
