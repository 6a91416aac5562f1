package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/solvetogather/solvetogather-go/models"
)

// MongoStore needs a replica set (or Atlas) deployment: the status moves run
// inside multi-document transactions.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes the workflows rely on. user_transaction_id is the
// dedupe key for payment submissions.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollPayments: {
			{Keys: bson.D{{Key: "user_transaction_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CollUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollTransactions: {
			{Keys: bson.D{{Key: "community_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "donor_id", Value: 1}}},
		},
		CollDonations: {
			{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "campaign_id", Value: 1}}},
		},
		CollPaymentMethods: {
			{Keys: bson.D{{Key: "community_id", Value: 1}, {Key: "method", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, coll string, filter bson.M, out interface{}) error {
	err := s.col(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, CollUsers, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var c models.Campaign
	if err := s.findOne(ctx, CollCampaigns, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) IsCommunityLeader(ctx context.Context, communityID, userID primitive.ObjectID) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Role == models.RoleSuperUser {
		return true, nil
	}
	n, err := s.col(CollCommunities).CountDocuments(ctx, bson.M{"_id": communityID, "leader_ids": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---------------- PAYMENTS ----------------

func (s *MongoStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.col(CollPayments).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *MongoStore) GetPayment(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	var p models.Payment
	if err := s.findOne(ctx, CollPayments, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) FindPaymentByUserTransactionID(ctx context.Context, key string) (*models.Payment, error) {
	var p models.Payment
	if err := s.findOne(ctx, CollPayments, bson.M{"user_transaction_id": key}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// movePending applies update to the document only while its status is pending.
func (s *MongoStore) movePending(ctx context.Context, coll string, id primitive.ObjectID, update bson.M, out interface{}) error {
	err := s.col(coll).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": "pending"},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(out)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	n, cerr := s.col(coll).CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return cerr
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotPending
}

func (s *MongoStore) incrementRaised(ctx context.Context, campaignID primitive.ObjectID, by float64, at time.Time) error {
	res, err := s.col(CollCampaigns).UpdateOne(ctx,
		bson.M{"_id": campaignID},
		bson.M{"$inc": bson.M{"raised": by}, "$set": bson.M{"updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("campaign %s: %w", campaignID.Hex(), ErrNotFound)
	}
	return nil
}

func (s *MongoStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)
	return sess.WithTransaction(ctx, fn)
}

func (s *MongoStore) CompletePayment(ctx context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Payment, error) {
	res, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var p models.Payment
		err := s.movePending(sc, CollPayments, id, bson.M{
			"status":         models.PaymentCompleted,
			"transaction_id": transactionID,
			"completed_at":   at,
			"updated_at":     at,
		}, &p)
		if err != nil {
			return nil, err
		}
		if err := s.incrementRaised(sc, p.CampaignID, p.Amount, at); err != nil {
			return nil, err
		}
		donation := models.Donation{
			ID:            primitive.NewObjectID(),
			CampaignID:    p.CampaignID,
			CommunityID:   p.CommunityID,
			UserID:        p.UserID,
			PaymentID:     p.ID,
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
			TransactionID: transactionID,
			CreatedAt:     at,
		}
		if _, err := s.col(CollDonations).InsertOne(sc, donation); err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.Payment), nil
}

func (s *MongoStore) FailPayment(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) (*models.Payment, error) {
	var p models.Payment
	err := s.movePending(ctx, CollPayments, id, bson.M{
		"status":         models.PaymentFailed,
		"failure_reason": reason,
		"updated_at":     at,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) ListPaymentsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Payment, error) {
	cursor, err := s.col(CollPayments).Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *MongoStore) ListDonationsByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.Donation, error) {
	cursor, err := s.col(CollDonations).Find(ctx, bson.M{"campaign_id": campaignID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	donations := []models.Donation{}
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// ---------------- TRANSACTIONS ----------------

func (s *MongoStore) CreateTransaction(ctx context.Context, t *models.PendingTransaction) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := s.col(CollTransactions).InsertOne(ctx, t)
	return err
}

func (s *MongoStore) GetTransaction(ctx context.Context, id primitive.ObjectID) (*models.PendingTransaction, error) {
	var t models.PendingTransaction
	if err := s.findOne(ctx, CollTransactions, bson.M{"_id": id}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MongoStore) listTransactions(ctx context.Context, filter bson.M) ([]models.PendingTransaction, error) {
	cursor, err := s.col(CollTransactions).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	txs := []models.PendingTransaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *MongoStore) ListPendingTransactions(ctx context.Context, communityID primitive.ObjectID) ([]models.PendingTransaction, error) {
	return s.listTransactions(ctx, bson.M{"community_id": communityID, "status": models.TransactionPending})
}

func (s *MongoStore) ListTransactionsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.PendingTransaction, error) {
	return s.listTransactions(ctx, bson.M{"donor_id": donorID})
}

func (s *MongoStore) ApproveTransaction(ctx context.Context, id, leaderID primitive.ObjectID, at time.Time) (*models.PendingTransaction, error) {
	res, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var t models.PendingTransaction
		err := s.movePending(sc, CollTransactions, id, bson.M{
			"status":      models.TransactionVerified,
			"reviewed_by": leaderID,
			"reviewed_at": at,
			"updated_at":  at,
		}, &t)
		if err != nil {
			return nil, err
		}
		if err := s.incrementRaised(sc, t.CampaignID, t.TotalAmount, at); err != nil {
			return nil, err
		}
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.PendingTransaction), nil
}

func (s *MongoStore) RejectTransaction(ctx context.Context, id, leaderID primitive.ObjectID, reason string, at time.Time) (*models.PendingTransaction, error) {
	var t models.PendingTransaction
	err := s.movePending(ctx, CollTransactions, id, bson.M{
		"status":           models.TransactionRejected,
		"rejection_reason": reason,
		"reviewed_by":      leaderID,
		"reviewed_at":      at,
		"updated_at":       at,
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MongoStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := s.col(CollNotifications).InsertOne(ctx, n)
	return err
}
