package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Database() *mongo.Database
	Close() error
}

type service struct {
	db     *mongo.Client
	dbName string
}

var (
	host   = os.Getenv("DB_HOST")
	port   = os.Getenv("DB_PORT")
	dbName = os.Getenv("DB_NAME")
)

func New() Service {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "27017"
		}
		uri = fmt.Sprintf("mongodb://%s:%s", host, port)
	}
	if dbName == "" {
		dbName = "tagly"
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	return &service{
		db:     client,
		dbName: dbName,
	}
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.db
}

func (s *service) Database() *mongo.Database {
	return s.db.Database(s.dbName)
}

func (s *service) Close() error {
	return s.db.Disconnect(context.Background())
}
