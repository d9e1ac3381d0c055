package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"inviteme/backend/internal/auth"
	"inviteme/backend/internal/config"
	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/logger"
	"inviteme/backend/internal/storage"
	"inviteme/backend/internal/storage/postgres"
)

// main 创建一个管理后台账号。
func main() {
	email := flag.String("email", "", "admin email address (required)")
	username := flag.String("username", "", "admin username (required)")
	password := flag.String("password", "", "admin password (required, min 8 chars)")
	super := flag.Bool("super", false, "grant super admin role")
	flag.Parse()

	if *email == "" || *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	var store storage.Store
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
		log.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	role := domain.RoleAdmin
	if *super {
		role = domain.RoleSuper
	}

	user, err := auth.NewService(store).CreateAdmin(auth.CreateAdminInput{
		Email:    *email,
		Username: *username,
		Password: *password,
		Role:     role,
	})
	if err != nil {
		log.Error("failed to create admin", zap.Error(err))
		os.Exit(1)
	}

	log.Info("admin user created",
		zap.String("id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
	)
}
