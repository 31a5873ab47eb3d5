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
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// AccountsCollection is the collection holding account documents.
const AccountsCollection = "users"

// MongoOptions configures ConnectMongo.
type MongoOptions struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// ConnectMongo opens a client, verifies it with a ping and returns a store
// over the accounts collection. Callers own the returned client.
func ConnectMongo(ctx context.Context, opts MongoOptions) (*MongoStore, *mongo.Client, error) {
	if opts.URI == "" {
		return nil, nil, errors.New("mongodb uri is required")
	}
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout).SetServerSelectionTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return NewMongoStore(client.Database(opts.Database).Collection(AccountsCollection)), client, nil
}

// MongoStore persists accounts as documents in a single collection with a
// unique index on email.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

type accountDocument struct {
	ID               primitive.ObjectID      `bson:"_id,omitempty"`
	Email            string                  `bson:"email"`
	PasswordHash     string                  `bson:"password"`
	FinancialProfile domain.FinancialProfile `bson:"financialProfile"`
	Settings         *domain.Settings        `bson:"settings,omitempty"`
	CreatedAt        time.Time               `bson:"createdAt"`
	UpdatedAt        time.Time               `bson:"updatedAt"`
}

func (d accountDocument) toDomain() domain.Account {
	settings := domain.DefaultSettings()
	if d.Settings != nil {
		settings = *d.Settings
	}
	return domain.Account{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Profile:      d.FinancialProfile.WithDefaults(),
		Settings:     settings,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique email index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// FindByEmail loads the account document registered under email.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByID loads the account document with the given hex ObjectID.
func (s *MongoStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (domain.Account, error) {
	var doc accountDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// Create inserts account and returns it with its generated ObjectID. A
// duplicate-key error yields domain.ErrEmailTaken.
func (s *MongoStore) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	settings := account.Settings
	doc := accountDocument{
		ID:               primitive.NewObjectID(),
		Email:            account.Email,
		PasswordHash:     account.PasswordHash,
		FinancialProfile: account.Profile,
		Settings:         &settings,
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Account{}, domain.ErrEmailTaken
		}
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces the profile, settings and update timestamp of an account.
func (s *MongoStore) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	update := bson.M{"$set": bson.M{
		"financialProfile": account.Profile,
		"settings":         account.Settings,
		"updatedAt":        account.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("update account %s: %w", account.ID, err)
	}
	return doc.toDomain(), nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
