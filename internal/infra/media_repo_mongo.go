package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mediaCollection = "media"

type MongoMediaRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMongoMediaRepo(db *mongo.Database) *MongoMediaRepo {
	return &MongoMediaRepo{coll: db.Collection(mediaCollection), now: time.Now}
}

var _ ports.MediaRepository = (*MongoMediaRepo)(nil)

func (r *MongoMediaRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "postId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_post_id"),
		},
		{
			Keys:    bson.D{{Key: "isPosted", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("posted_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure media indexes: %w", err)
	}
	return nil
}

func (r *MongoMediaRepo) Insert(ctx context.Context, rec *models.MediaRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert media %s: %w", rec.PostID, ports.ErrDuplicateKey)
		}
		return fmt.Errorf("insert media %s: %w", rec.PostID, err)
	}
	return nil
}

func (r *MongoMediaRepo) ExistsByPostID(ctx context.Context, postID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"postId": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists media %s: %w", postID, err)
	}
	return n > 0, nil
}

func (r *MongoMediaRepo) FindUnpublished(ctx context.Context) (*models.MediaRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	var m models.MediaRecord
	err := r.coll.FindOne(ctx, bson.M{"isPosted": false}, opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find unpublished: %w", err)
	}
	return &m, nil
}

func (r *MongoMediaRepo) FindAllPublished(ctx context.Context) ([]models.MediaRecord, error) {
	cur, err := r.coll.Find(ctx, bson.M{"isPosted": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find published: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.MediaRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode published: %w", err)
	}
	return out, nil
}

func (r *MongoMediaRepo) MarkPublished(ctx context.Context, rec *models.MediaRecord) error {
	now := r.now().UTC()
	// pipeline update keeps the first postedAt
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isPosted", Value: true},
			{Key: "postedAt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$postedAt", now}}}},
		}}},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"postId": rec.PostID}, update)
	if err != nil {
		return fmt.Errorf("mark published %s: %w", rec.PostID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark published %s: no such record", rec.PostID)
	}

	rec.IsPosted = true
	if rec.PostedAt == nil {
		rec.PostedAt = &now
	}
	return nil
}

func (r *MongoMediaRepo) Stats(ctx context.Context) (models.MediaStats, error) {
	var s models.MediaStats
	var err error

	if s.Total, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return s, fmt.Errorf("media stats: %w", err)
	}
	if s.Published, err = r.coll.CountDocuments(ctx, bson.M{"isPosted": true}); err != nil {
		return s, fmt.Errorf("media stats: %w", err)
	}
	s.Unpublished = s.Total - s.Published
	return s, nil
}
