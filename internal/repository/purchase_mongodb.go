package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gnosislens-api/internal/model"
	"gnosislens-api/pkg/uid"
)

// Collection names.
const (
	CollectionUserPurchases = "user_purchases"
	CollectionMarketPrices  = "market_prices"
)

// MongoDBPurchaseRepository implements PurchaseRepository using MongoDB.
type MongoDBPurchaseRepository struct {
	client    *mongo.Client
	db        *mongo.Database
	purchases *mongo.Collection
	markets   *mongo.Collection
	log       zerolog.Logger
}

var _ PurchaseRepository = (*MongoDBPurchaseRepository)(nil)

// NewMongoDBPurchaseRepository connects to uri and prepares indexes.
func NewMongoDBPurchaseRepository(uri, database string, log zerolog.Logger) (*MongoDBPurchaseRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log = log.With().Str("component", "mongodb_store").Logger()
	db := client.Database(database)
	r := &MongoDBPurchaseRepository{
		client:    client,
		db:        db,
		purchases: db.Collection(CollectionUserPurchases),
		markets:   db.Collection(CollectionMarketPrices),
		log:       log,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes")
	}

	log.Info().Str("database", database).Msg("MongoDB purchase store connected")
	return r, nil
}

func (r *MongoDBPurchaseRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.purchases.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "country", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = r.markets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "country", Value: 1}, {Key: "itemName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// SavePurchase implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) SavePurchase(ctx context.Context, p *model.PurchaseRecord) (string, error) {
	if p.ID == "" {
		p.ID = uid.NewRecordID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if _, err := r.purchases.InsertOne(ctx, p); err != nil {
		return "", fmt.Errorf("failed to save purchase: %w", err)
	}
	return p.ID, nil
}

// GetPurchaseHistory implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) GetPurchaseHistory(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.findPurchases(ctx, bson.M{"userId": userID}, opts)
}

// ListPurchases implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) ListPurchases(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.findPurchases(ctx, filter, opts)
}

func (r *MongoDBPurchaseRepository) findPurchases(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.PurchaseRecord, error) {
	cursor, err := r.purchases.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer cursor.Close(ctx)

	var out []model.PurchaseRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode purchases: %w", err)
	}
	for i := range out {
		out[i].ApplyScore(out[i].FairnessScore)
	}
	return out, nil
}

// UpsertMarketPrice implements PurchaseRepository with a single
// $set/$inc/$push update.
func (r *MongoDBPurchaseRepository) UpsertMarketPrice(ctx context.Context, country, itemName string, update model.MarketPriceUpdate) error {
	now := time.Now().UTC()
	report := update.Report
	if report.Timestamp.IsZero() {
		report.Timestamp = now
	}
	if report.UserID == "" {
		report.UserID = model.AnonymousUserID
	}

	filter := bson.M{"country": country, "itemName": itemName}
	doc := bson.M{
		"$set": bson.M{
			"country":      country,
			"itemName":     itemName,
			"currency":     update.Currency,
			"fairPriceMin": update.FairPriceMin,
			"fairPriceMax": update.FairPriceMax,
			"lastUpdated":  now,
			"dataSource":   model.MarketDataSource,
		},
		"$inc":  bson.M{"reportCount": 1},
		"$push": bson.M{"priceReports": report},
	}

	if _, err := r.markets.UpdateOne(ctx, filter, doc, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert market price: %w", err)
	}
	return nil
}

// GetMarketPrices implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) GetMarketPrices(ctx context.Context, country, itemName string) ([]model.MarketPriceAggregate, error) {
	filter := bson.M{"country": country}
	if itemName != "" {
		filter["itemName"] = itemName
	}

	cursor, err := r.markets.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "itemName", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query market prices: %w", err)
	}
	defer cursor.Close(ctx)

	var out []model.MarketPriceAggregate
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode market prices: %w", err)
	}
	return out, nil
}

// GetStats implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	purchases, err := r.purchases.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases: %w", err)
	}
	markets, err := r.markets.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count market prices: %w", err)
	}
	users, err := r.purchases.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return map[string]interface{}{
		"type":                "mongodb",
		"database":            r.db.Name(),
		"total_purchases":     purchases,
		"total_market_prices": markets,
		"unique_users":        len(users),
	}, nil
}

// Ping implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close implements PurchaseRepository.
func (r *MongoDBPurchaseRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
