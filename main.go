package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"homesite/config"
	"homesite/config/database"
	"homesite/middleware"
	"homesite/pkg/logger"
	"homesite/router"
	"homesite/socket"

	"github.com/joho/godotenv"
)

func main() {
	issueKey := flag.Bool("issue-anon-key", false, "print a public store key signed with SITE_JWT_SECRET and exit")
	flag.Parse()

	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, os.Stdout)
	defer logger.Log.Sync()

	if envErr != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}

	if *issueKey {
		key, err := middleware.IssueKey([]byte(cfg.JWTSecret), middleware.RoleAnon, 0)
		if err != nil {
			logger.Sugar.Fatalf("Failed to issue key: %v", err)
		}
		fmt.Println(key)
		return
	}

	db := database.Connect(cfg)
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Sugar.Fatalf("Could not migrate database: %v", err)
	}

	hub := socket.NewHub()
	go hub.Run()

	handler := router.Setup(db, hub, []byte(cfg.JWTSecret))

	addr := ":" + cfg.Port
	logger.Sugar.Infof("Backend listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
