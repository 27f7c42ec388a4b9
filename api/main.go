package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/uxbase/moviefavs"
	"github.com/uxbase/moviefavs/catalog"
	"github.com/uxbase/moviefavs/config"
	"github.com/uxbase/moviefavs/firebase"
)

func main() {
	opts := config.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.MongoURI))
	if err != nil {
		log.Fatal("cannot connect to mongo", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("cannot reach mongo", zap.Error(err))
	}

	// The repository owns the client from here; Close releases it once on
	// shutdown.
	users, err := moviefavs.NewMongoCollectionRepository(ctx, client, opts.MongoDatabase, "User")
	if err != nil {
		log.Fatal("cannot init collection store", zap.Error(err))
	}

	account, err := firebase.LoadServiceAccount(opts.FirebaseCredentialsFile)
	if err != nil {
		log.Fatal("cannot load firebase credentials", zap.Error(err))
	}
	projectID := opts.FirebaseProjectID
	if projectID == "" {
		projectID = account.ProjectID
	}
	identity := firebase.NewClient(projectID, firebase.NewServiceAccountTokenSource(account))

	svc := moviefavs.NewService(identity, users, log)

	var cat *catalog.Client
	if opts.TMDBAPIKey != "" {
		cat = catalog.NewClient(opts.TMDBAPIKey)
	} else {
		log.Warn("no TMDB api key configured, catalog routes disabled")
	}

	server := &http.Server{
		Addr:    opts.Addr,
		Handler: moviefavs.NewRouter(svc, cat, log),
	}

	go func() {
		log.Info("server started", zap.String("addr", opts.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := users.Close(shutdownCtx); err != nil {
		log.Error("store close failed", zap.Error(err))
	}
}
