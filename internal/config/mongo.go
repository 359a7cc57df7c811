package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	lessonsCollection := db.Collection("lessons")
	lessonIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "position", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "video_id", Value: 1}},
		},
	}
	_, err := lessonsCollection.Indexes().CreateMany(context.Background(), lessonIndexes)
	if err != nil {
		return err
	}

	// One transcript per lesson is enforced at the schema level
	transcriptsCollection := db.Collection("transcripts")
	transcriptIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "lesson_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = transcriptsCollection.Indexes().CreateMany(context.Background(), transcriptIndexes)
	if err != nil {
		return err
	}

	chunksCollection := db.Collection("lesson_chunks")
	chunkIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "lesson_id", Value: 1}, {Key: "ordinal", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "transcript_id", Value: 1}},
		},
	}
	_, err = chunksCollection.Indexes().CreateMany(context.Background(), chunkIndexes)
	if err != nil {
		return err
	}

	return nil
}
