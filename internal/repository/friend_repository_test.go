package repository

import (
	"context"
	"testing"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func testCtx() context.Context { return context.Background() }

const requestsNS = mtest.TestDb + ".friend_requests"

func TestCreateRequest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	sender, receiver := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("inserted as pending", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		req, err := NewFriendRepository(mt.DB).CreateRequest(testCtx(), &models.FriendRequest{SenderID: sender, ReceiverID: receiver})
		require.NoError(mt, err)
		assert.False(mt, req.ID.IsZero())
		assert.Equal(mt, models.RequestPending, req.Status)
	})

	mt.Run("duplicate pending is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.friend_requests index: uniq_pending_request",
		}))

		_, err := NewFriendRepository(mt.DB).CreateRequest(testCtx(), &models.FriendRequest{SenderID: sender, ReceiverID: receiver})
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Equal(mt, MsgRequestSent, apperrors.PublicMessage(err))
	})

	mt.Run("other write errors are internal", func(mt *mtest.T) {
		mt.AddMockResponses(writeFail)

		_, err := NewFriendRepository(mt.DB).CreateRequest(testCtx(), &models.FriendRequest{SenderID: sender, ReceiverID: receiver})
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindInternal, apperrors.KindOf(err))
		assert.Equal(mt, "Server error", apperrors.PublicMessage(err))
	})
}

func TestMarkAccepted(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()
	notMatched := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})

	mt.Run("pending request accepted", func(mt *mtest.T) {
		mt.AddMockResponses(updated)

		require.NoError(mt, NewFriendRepository(mt.DB).MarkAccepted(testCtx(), id))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		status, ok := started.Command.Lookup("updates", "0", "q", "status").StringValueOK()
		require.True(mt, ok)
		assert.Equal(mt, models.RequestPending, status, "only pending requests match")
	})

	mt.Run("already accepted is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(notMatched, mtest.CreateCursorResponse(0, requestsNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "sender_id", Value: primitive.NewObjectID()},
			{Key: "receiver_id", Value: primitive.NewObjectID()},
			{Key: "status", Value: models.RequestAccepted},
		}))

		err := NewFriendRepository(mt.DB).MarkAccepted(testCtx(), id)
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Equal(mt, MsgAlreadyAccepted, apperrors.PublicMessage(err))
	})

	mt.Run("missing request is not found", func(mt *mtest.T) {
		mt.AddMockResponses(notMatched, mtest.CreateCursorResponse(0, requestsNS, mtest.FirstBatch))

		err := NewFriendRepository(mt.DB).MarkAccepted(testCtx(), id)
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindNotFound, apperrors.KindOf(err))
		assert.Equal(mt, MsgRequestNotFound, apperrors.PublicMessage(err))
	})
}
