package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/telmaril/userapi/internal/auth"
	"github.com/telmaril/userapi/internal/config"
	"github.com/telmaril/userapi/internal/docs"
	"github.com/telmaril/userapi/internal/router"
	"github.com/telmaril/userapi/internal/user"
	userrepo "github.com/telmaril/userapi/internal/user/repo"
	"github.com/telmaril/userapi/pkg/database"
	"github.com/telmaril/userapi/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use real env)
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting userapi")

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, database.Config{URI: cfg.MongoURI})
	if err != nil {
		sugar.Fatalf("mongo connect: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	repo := userrepo.NewUserRepo(client.Database(cfg.Database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		sugar.Fatalf("ensure indexes: %v", err)
	}

	users := user.NewService(repo, nil)
	codec := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL)

	gate, err := auth.SelectGate(cfg, users, codec, sugar)
	if err != nil {
		sugar.Fatalf("auth gate: %v", err)
	}
	handler := router.New(router.Deps{
		Logger: sugar,
		Users:  user.NewHandler(users, sugar),
		Auth:   auth.NewHandler(users, codec, sugar),
		Docs:   docs.NewHandler(fmt.Sprintf("http://localhost:%d", cfg.Port)),
		Gate:   gate,
		Logout: auth.NewBearerGate(users, codec, cfg.EnforceRevocation, sugar),
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr, "auth_mode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
