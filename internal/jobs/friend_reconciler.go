package jobs

import (
	"context"
	"fmt"

	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReconcileReport counts the repairs made by one sweep.
type ReconcileReport struct {
	Restored int
	Pruned   int
}

// FriendReconciler repairs friend sets left asymmetric by a partially failed accept or remove.
type FriendReconciler struct {
	Users    repository.UserStore
	Requests repository.FriendStore
}

// NewFriendReconciler creates a new instance of FriendReconciler
func NewFriendReconciler(users repository.UserStore, requests repository.FriendStore) *FriendReconciler {
	return &FriendReconciler{
		Users:    users,
		Requests: requests,
	}
}

type pair struct {
	a, b primitive.ObjectID
}

func pairOf(x, y primitive.ObjectID) pair {
	if x.Hex() > y.Hex() {
		x, y = y, x
	}
	return pair{a: x, b: y}
}

// Run makes one pass over all users. An accepted request between two existing users
// restores any missing side of their edge. An edge that points at a missing user, at
// its owner, or at someone who does not point back and has no accepted request with
// the owner is removed.
func (r *FriendReconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	users, err := r.Users.GetAllUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch users: %w", err)
	}
	accepted, err := r.Requests.GetAcceptedRequests(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch accepted requests: %w", err)
	}

	friends := make(map[primitive.ObjectID]map[primitive.ObjectID]bool, len(users))
	for _, u := range users {
		set := make(map[primitive.ObjectID]bool, len(u.Friends))
		for _, f := range u.Friends {
			set[f] = true
		}
		friends[u.ID] = set
	}

	linked := make(map[pair]bool, len(accepted))
	for _, req := range accepted {
		if req.SenderID == req.ReceiverID {
			continue
		}
		linked[pairOf(req.SenderID, req.ReceiverID)] = true

		senderFriends, senderOK := friends[req.SenderID]
		receiverFriends, receiverOK := friends[req.ReceiverID]
		if !senderOK || !receiverOK {
			continue
		}
		if !senderFriends[req.ReceiverID] {
			if err := r.restore(ctx, req.SenderID, req.ReceiverID); err != nil {
				return report, err
			}
			senderFriends[req.ReceiverID] = true
			report.Restored++
		}
		if !receiverFriends[req.SenderID] {
			if err := r.restore(ctx, req.ReceiverID, req.SenderID); err != nil {
				return report, err
			}
			receiverFriends[req.SenderID] = true
			report.Restored++
		}
	}

	for _, u := range users {
		for _, f := range u.Friends {
			other, exists := friends[f]
			keep := exists && f != u.ID && (other[u.ID] || linked[pairOf(u.ID, f)])
			if keep {
				continue
			}
			if err := r.Users.PullFriend(ctx, u.ID, f); err != nil {
				return report, fmt.Errorf("failed to prune friend edge: %w", err)
			}
			delete(friends[u.ID], f)
			metrics.EdgeRepaired("pruned")
			report.Pruned++
			logrus.WithFields(logrus.Fields{
				"userID":   u.ID.Hex(),
				"friendID": f.Hex(),
			}).Warn("Pruned dangling friend edge")
		}
	}

	logrus.WithFields(logrus.Fields{
		"users":    len(users),
		"restored": report.Restored,
		"pruned":   report.Pruned,
	}).Info("Friend edge reconciliation completed")
	return report, nil
}

func (r *FriendReconciler) restore(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if err := r.Users.AddFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("failed to restore friend edge: %w", err)
	}
	metrics.EdgeRepaired("restored")
	logrus.WithFields(logrus.Fields{
		"userID":   userID.Hex(),
		"friendID": friendID.Hex(),
	}).Warn("Restored missing friend edge")
	return nil
}
