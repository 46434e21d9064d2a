// mongodb.go - MongoDB connection and document store for tax records

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// InitMongoDB initializes the MongoDB connection
func InitMongoDB(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(dbName)

	log.Println("✅ Connected to MongoDB successfully!")
	return nil
}

// GetMongoDB returns the MongoDB database instance
func GetMongoDB() *mongo.Database {
	return mongoDB
}

// CloseMongoDB closes MongoDB connection
func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
		log.Println("MongoDB connection closed")
	}
}

// Store wraps the tax reconciliation collections
type Store struct {
	db *mongo.Database
}

// NewStore creates a Store on top of an initialized database handle
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// CreateInvoice inserts an invoice record, stamping id and timestamps
func (s *Store) CreateInvoice(ctx context.Context, inv *Invoice) error {
	stampTimes(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	_, err := s.db.Collection(CollectionInvoices).InsertOne(ctx, inv)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// CreateTaxInvoice inserts a tax invoice record, stamping id and timestamps
func (s *Store) CreateTaxInvoice(ctx context.Context, ti *TaxInvoice) error {
	stampTimes(&ti.ID, &ti.CreatedAt, &ti.UpdatedAt)
	if ti.Details == nil {
		ti.Details = []TaxInvoiceDetail{}
	}
	_, err := s.db.Collection(CollectionTaxInvoices).InsertOne(ctx, ti)
	if err != nil {
		return fmt.Errorf("failed to insert tax invoice: %w", err)
	}
	return nil
}

// UpdateTaxInvoiceDetails replaces the line items of a tax invoice (used by
// the reconciliation matcher to record matches)
func (s *Store) UpdateTaxInvoiceDetails(ctx context.Context, id string, details []TaxInvoiceDetail) error {
	update := bson.M{"$set": bson.M{
		"details":   details,
		"updatedAt": time.Now().UTC(),
	}}
	res, err := s.db.Collection(CollectionTaxInvoices).UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update tax invoice %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("tax invoice not found: %s", id)
	}
	return nil
}

// CreateGLTransaction inserts one general-ledger posting line
func (s *Store) CreateGLTransaction(ctx context.Context, gl *GLTransaction) error {
	stampTimes(&gl.ID, &gl.CreatedAt, &gl.UpdatedAt)
	if gl.GLReconItem == nil {
		gl.GLReconItem = []string{}
	}
	_, err := s.db.Collection(CollectionGLTransactions).InsertOne(ctx, gl)
	if err != nil {
		return fmt.Errorf("failed to insert GL transaction: %w", err)
	}
	return nil
}

// TaxInvoicesByURN returns all tax invoices for a URN; an empty URN returns everything
func (s *Store) TaxInvoicesByURN(ctx context.Context, urn string) ([]TaxInvoice, error) {
	filter := bson.M{}
	if urn != "" {
		filter["urn"] = urn
	}
	cursor, err := s.db.Collection(CollectionTaxInvoices).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var results []TaxInvoice
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// InvoicesByURN returns all invoices for a URN; an empty URN returns everything
func (s *Store) InvoicesByURN(ctx context.Context, urn string) ([]Invoice, error) {
	filter := bson.M{}
	if urn != "" {
		filter["urn"] = urn
	}
	cursor, err := s.db.Collection(CollectionInvoices).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var results []Invoice
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GLTransactionsByURN returns a page of GL transactions and the total count.
// page is 1-based; pageSize <= 0 disables pagination.
func (s *Store) GLTransactionsByURN(ctx context.Context, urn string, page, pageSize int) ([]GLTransaction, int64, error) {
	filter := bson.M{}
	if urn != "" {
		filter["urn"] = urn
	}

	coll := s.db.Collection(CollectionGLTransactions)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count GL transactions: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		findOpts = findOpts.SetSkip(int64((page - 1) * pageSize)).SetLimit(int64(pageSize))
	}

	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query GL transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var results []GLTransaction
	if err = cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// DistinctVendorIDs returns the distinct non-empty vendor ids among a URN's
// GL transactions. These restrict the catalog candidates during matching.
func (s *Store) DistinctVendorIDs(ctx context.Context, urn string) ([]string, error) {
	values, err := s.db.Collection(CollectionGLTransactions).Distinct(ctx, "vendorId", bson.M{"urn": urn})
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor ids for URN %s: %w", urn, err)
	}

	var vendorIDs []string
	for _, v := range values {
		if id, ok := v.(string); ok && id != "" {
			vendorIDs = append(vendorIDs, id)
		}
	}
	return vendorIDs, nil
}

// CountCollection returns the document count of a collection (dashboard stats)
func (s *Store) CountCollection(ctx context.Context, collection string) (int64, error) {
	count, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return count, nil
}

func stampTimes(id *string, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
