package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

type productDocument struct {
	ID          primitive.ObjectID      `bson:"_id"`
	Owner       string                  `bson:"user"`
	Name        string                  `bson:"name"`
	SKU         string                  `bson:"sku"`
	Category    string                  `bson:"category"`
	Quantity    int                     `bson:"quantity"`
	Price       float64                 `bson:"price"`
	Description string                  `bson:"description"`
	Image       *models.ImageDescriptor `bson:"image,omitempty"`
	CreatedAt   time.Time               `bson:"createdAt"`
	UpdatedAt   time.Time               `bson:"updatedAt"`
}

func (d productDocument) toModel() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Owner:       d.Owner,
		Name:        d.Name,
		SKU:         d.SKU,
		Category:    d.Category,
		Quantity:    d.Quantity,
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type MongoProductRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoProductRepository(database *MongoDB, collection string) *MongoProductRepository {
	return &MongoProductRepository{
		coll: database.Database.Collection(collection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the owner listing index.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// Create inserts product and fills in its id and timestamps
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := r.now()
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Owner:       product.Owner,
		Name:        product.Name,
		SKU:         product.SKU,
		Category:    product.Category,
		Quantity:    product.Quantity,
		Price:       product.Price,
		Description: product.Description,
		Image:       product.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	*product = doc.toModel()
	return nil
}

// ListByOwner returns the owner's products, newest first
func (r *MongoProductRepository) ListByOwner(ctx context.Context, owner string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// GetByID returns a single product. Ids that are not valid ObjectIDs never match.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc productDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p := doc.toModel()
	return &p, nil
}

// Update replaces the mutable fields and returns the stored record
func (r *MongoProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	set := bson.M{
		"name":        update.Name,
		"category":    update.Category,
		"quantity":    update.Quantity,
		"price":       update.Price,
		"description": update.Description,
		"updatedAt":   r.now(),
	}
	if update.Image != nil {
		set["image"] = update.Image
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	p := doc.toModel()
	return &p, nil
}

// Delete removes a product. Deleting a missing product is not an error.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AdjustQuantity adds delta to the stock level, refusing to go below zero
func (r *MongoProductRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAdjustRejected
	}

	filter := bson.M{"_id": oid, "quantity": bson.M{"$gte": -delta}}
	change := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": r.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, change, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAdjustRejected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust product quantity: %w", err)
	}

	p := doc.toModel()
	return &p, nil
}

func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
