package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SideWrite updates one user's friend set.
type SideWrite func(ctx context.Context, userID, friendID primitive.ObjectID) error

// WriteEdgeSides applies write to a then to b without a transaction.
// Updates are idempotent; the second side gets one retry. If it still fails the
// edge is left one-sided, logged with status "inconsistent", and the error returned.
func WriteEdgeSides(ctx context.Context, op string, a, b primitive.ObjectID, write SideWrite) error {
	if err := write(ctx, a, b); err != nil {
		return err
	}
	err := write(ctx, b, a)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"op":    op,
			"userA": a.Hex(),
			"userB": b.Hex(),
		}).WithError(err).Warn("Friend edge second side failed, retrying")
		err = write(ctx, b, a)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"op":     op,
			"userA":  a.Hex(),
			"userB":  b.Hex(),
			"error":  err,
			"status": "inconsistent",
		}).Error("Friend edge written on one side only; left for reconciliation")
		return err
	}
	return nil
}
