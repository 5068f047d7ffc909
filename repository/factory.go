package repository

import (
	"context"
	"errors"
	"log"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/config"
)

func New(ctx context.Context, cfg config.Database) (registrar.Store, error) {
	if cfg.Type == "sqlite" {
		log.Println("creating sqlite store")
		return newSQLiteStore(ctx, cfg.SQLite)
	} else if cfg.Type == "firestore" {
		log.Println("creating firestore store")
		return newFirestoreStore(ctx, cfg.Firestore)
	} else if cfg.Type == "mongo" {
		log.Println("creating mongo store")
		return newMongoStore(ctx, cfg.Mongo)
	} else if cfg.Type == "memory" {
		log.Println("creating in-memory store")
		return NewMemoryStore(), nil
	} else {
		return nil, errors.New("invalid database type")
	}
}
