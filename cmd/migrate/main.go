package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"inviteme/backend/internal/config"
	"inviteme/backend/internal/logger"
	"inviteme/backend/internal/storage/postgres"
)

// main 对配置的数据库执行表结构迁移。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.NewDevelopmentLogger()
	defer log.Sync()

	if cfg.Database.Type == "" || cfg.Database.DSN == "" {
		log.Error("database not configured, set INVITEME_DATABASE_TYPE and INVITEME_DATABASE_DSN")
		os.Exit(1)
	}

	log.Info("running migrations", zap.String("type", cfg.Database.Type))

	var store *postgres.Store
	switch cfg.Database.Type {
	case "postgres":
		store, err = postgres.NewStore(cfg.Database.DSN)
	case "mysql":
		store, err = postgres.NewMySQLStore(cfg.Database.DSN)
	default:
		log.Error("unsupported database type", zap.String("type", cfg.Database.Type))
		os.Exit(1)
	}
	if err != nil {
		log.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("migrations completed successfully")
}
