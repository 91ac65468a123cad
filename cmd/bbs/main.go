// Command bbs is the visitor client of the homesite blog: a terminal front
// end over the backend's row store and realtime channels.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"homesite/config"
	"homesite/internal/cli"
	"homesite/internal/localstore"
	"homesite/internal/remote"
	"homesite/internal/site"
	"homesite/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.Init(cfg.LogLevel, zapcore.AddSync(logFile))
	defer logger.Log.Sync()

	ctx := context.Background()

	local, err := localstore.Open(ctx, cfg.LocalDB)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not open local storage:", err)
		os.Exit(1)
	}
	defer local.Close()

	rows := remote.NewStoreClient(cfg.StoreURL, cfg.AnonKey, &http.Client{Timeout: 15 * time.Second})
	rt := remote.NewRealtime(cfg.StoreURL, cfg.AnonKey)

	ctrl := site.New(rows, rt, local, cfg.AdminPassword)
	logger.Sugar.Infof("Visitor client started against %s", cfg.StoreURL)

	cli.NewApp(ctrl, os.Stdin, os.Stdout).Run(ctx)
}
