package files

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoRecord is the BSON shape of a FileMetadata document.
type mongoRecord struct {
	ID            primitive.ObjectID `bson:"_id"`
	UserID        string             `bson:"user_id"`
	FileName      string             `bson:"file_name"`
	FileType      string             `bson:"file_type,omitempty"`
	FileSize      int64              `bson:"file_size"`
	StorageKey    string             `bson:"storage_key"`
	UploadedAt    time.Time          `bson:"uploaded_at"`
	ExtractedText *string            `bson:"extracted_text,omitempty"`
}

var newestFirst = bson.D{
	{Key: "uploaded_at", Value: -1},
	{Key: "_id", Value: -1},
}

// MongoStore implements MetadataStore on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore binds the store to database.collection on client.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{coll: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the by-name lookup index and the storage key uniqueness index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "file_name", Value: 1},
				{Key: "uploaded_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "storage_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create file_metadata indexes: %w", err)
	}
	return nil
}

// Save inserts a new document under a fresh ObjectID.
func (s *MongoStore) Save(ctx context.Context, meta FileMetadata) (FileMetadata, error) {
	// BSON datetimes carry millisecond precision.
	meta.UploadedAt = meta.UploadedAt.UTC().Truncate(time.Millisecond)
	rec := toMongoRecord(meta)
	rec.ID = primitive.NewObjectID()

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return FileMetadata{}, fmt.Errorf("insert file_metadata: %w", err)
	}
	return fromMongoRecord(rec), nil
}

// FindByID fetches a document by its hex ObjectID.
func (s *MongoStore) FindByID(ctx context.Context, id string) (FileMetadata, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return FileMetadata{}, ErrNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, options.FindOne())
}

// FindByUser lists a user's documents newest first.
func (s *MongoStore) FindByUser(ctx context.Context, userID string) ([]FileMetadata, error) {
	cur, err := s.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find file_metadata: %w", err)
	}
	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode file_metadata: %w", err)
	}

	out := make([]FileMetadata, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromMongoRecord(rec))
	}
	return out, nil
}

// FindByUserAndName returns the newest document for the pair.
func (s *MongoStore) FindByUserAndName(ctx context.Context, userID, fileName string) (FileMetadata, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "file_name", Value: fileName},
	}
	return s.findOne(ctx, filter, options.FindOne().SetSort(newestFirst))
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (FileMetadata, error) {
	var rec mongoRecord
	if err := s.coll.FindOne(ctx, filter, opts).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return FileMetadata{}, ErrNotFound
		}
		return FileMetadata{}, fmt.Errorf("find file_metadata: %w", err)
	}
	return fromMongoRecord(rec), nil
}

func toMongoRecord(meta FileMetadata) mongoRecord {
	rec := mongoRecord{
		UserID:        meta.UserID,
		FileName:      meta.FileName,
		FileType:      meta.FileType,
		FileSize:      meta.FileSize,
		StorageKey:    meta.StorageKey,
		UploadedAt:    meta.UploadedAt,
		ExtractedText: cloneText(meta.ExtractedText),
	}
	if oid, err := primitive.ObjectIDFromHex(meta.ID); err == nil {
		rec.ID = oid
	}
	return rec
}

func fromMongoRecord(rec mongoRecord) FileMetadata {
	return FileMetadata{
		ID:            rec.ID.Hex(),
		UserID:        rec.UserID,
		FileName:      rec.FileName,
		FileType:      rec.FileType,
		FileSize:      rec.FileSize,
		StorageKey:    rec.StorageKey,
		UploadedAt:    rec.UploadedAt.UTC(),
		ExtractedText: cloneText(rec.ExtractedText),
	}
}

var _ MetadataStore = (*MongoStore)(nil)
