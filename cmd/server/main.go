package main

import (
	"alcyxob/runcoach-app/internal/api"
	"alcyxob/runcoach-app/internal/config"
	"alcyxob/runcoach-app/internal/proposer"
	mongorepo "alcyxob/runcoach-app/internal/repository/mongo"
	redisrepo "alcyxob/runcoach-app/internal/repository/redis"
	"alcyxob/runcoach-app/internal/service"
	"alcyxob/runcoach-app/internal/storage"
	"alcyxob/runcoach-app/internal/strava"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting RunCoach Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection (durable tier) ---
	dbClient, err := mongorepo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongorepo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Cache Connection (cache tier) ---
	redisClient, err := redisrepo.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("ERROR: Failed to close Redis client: %v", err)
		}
	}()
	log.Println("Cache connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongorepo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongorepo.EnsureRatingIndexes(ctx, appDB.Collection("activity_ratings"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Archive Storage ---
	log.Println("Initializing archive storage...")
	archiveStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 archive storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongorepo.NewMongoUserRepository(appDB)
	ratingRepo := mongorepo.NewMongoRatingRepository(appDB)
	durableStore := mongorepo.NewMongoPlanStore(appDB)
	cacheStore := redisrepo.NewPlanCache(redisClient)

	// --- Initialize External Clients ---
	planProposer := proposer.NewLLMProposer(cfg.Proposer)
	activitySource := strava.NewClient(cfg.Strava)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	reconciler := service.NewReconciler(durableStore, cacheStore, cacheStore, cfg.Reconcile.DurableTimeout)
	sessions := service.NewSessionManager(reconciler, cfg.Reconcile.PollInterval)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(reconciler, planProposer, activitySource, ratingRepo)
	archiveService := service.NewArchiveService(durableStore, durableStore, archiveStorage)

	// --- Archive past weeks on startup and daily ---
	archiverCtx, archiverCancel := context.WithCancel(context.Background())
	defer archiverCancel()
	go runArchiver(archiverCtx, archiveService)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, planService, sessions, archiveService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop every polling reconcile session before the stores go away.
	sessions.StopAll()
	archiverCancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// runArchiver exports finished weeks once at startup and then daily.
func runArchiver(ctx context.Context, archiveService service.ArchiveService) {
	archive := func() {
		actx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if _, err := archiveService.ArchivePastWeeks(actx, time.Now()); err != nil {
			log.Printf("WARN: Archiving past weeks failed: %v", err)
		}
	}
	archive()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			archive()
		}
	}
}
