package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agrisight/analysis"
)

type App struct {
	cfg   Config
	log   *zap.Logger
	mongo *mongo.Client
	db    *mongo.Database

	users    *mongo.Collection
	readings *mongo.Collection
	alerts   *mongo.Collection
	results  *mongo.Collection

	classifier *analysis.Classifier
	forecaster *analysis.Forecaster

	started time.Time
}

func newApp(ctx context.Context, cfg Config, log *zap.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	registry := analysis.BaselineRegistry{}
	app := &App{
		cfg:        cfg,
		log:        log,
		mongo:      client,
		db:         db,
		users:      db.Collection("users"),
		readings:   db.Collection("readings"),
		alerts:     db.Collection("alerts"),
		results:    db.Collection("results"),
		classifier: analysis.NewClassifier(registry, cfg.PatchWindow),
		forecaster: analysis.NewForecaster(registry, cfg.HistoryWindow),
		started:    time.Now(),
	}

	// Indexes
	if _, err := app.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.readings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "ts", Value: -1}},
	}); err != nil {
		return nil, err
	}
	if _, err := app.alerts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
