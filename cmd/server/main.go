package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/eligibility-api/internal/api"
	"github.com/ignite/eligibility-api/internal/audit"
	"github.com/ignite/eligibility-api/internal/calculator"
	"github.com/ignite/eligibility-api/internal/config"
	ddbstore "github.com/ignite/eligibility-api/internal/repository/dynamodb"
	"github.com/ignite/eligibility-api/internal/repository/postgres"
	"github.com/ignite/eligibility-api/internal/repository/rediscache"
	"github.com/ignite/eligibility-api/internal/repository/s3store"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Person.AWSRegion),
	}
	if profile := cfg.Person.GetAWSProfile(); profile != "" {
		awsOpts = append(awsOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	persons := ddbstore.NewPersonStore(dynamodb.NewFromConfig(awsCfg), cfg.Person.DynamoDBTable)

	campaigns, cleanup, err := buildCampaignStore(cfg, s3Client)
	if err != nil {
		log.Fatalf("Failed to initialize campaign store: %v", err)
	}
	defer cleanup()

	var auditWriter audit.Writer = audit.LogWriter{}
	if cfg.Audit.S3Bucket != "" {
		auditWriter = audit.NewS3Writer(s3Client, cfg.Audit.S3Bucket, cfg.Audit.S3Prefix)
	}

	handlers := api.NewHandlers(persons, campaigns, calculator.New(), auditWriter)
	server := api.NewServer(cfg.Server, handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
	log.Println("[main] stopped")
}

// buildCampaignStore wires the configured backend, with the optional Redis
// read-through cache in front of it.
func buildCampaignStore(cfg *config.Config, s3Client *s3.Client) (api.CampaignStore, func(), error) {
	var inner api.CampaignStore
	cleanup := func() {}

	switch cfg.Campaign.Backend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Campaign.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("[main] campaign store: postgres")
		inner = postgres.NewCampaignStore(db)
		cleanup = func() { db.Close() }
	default:
		log.Printf("[main] campaign store: s3://%s/%s", cfg.Campaign.S3Bucket, cfg.Campaign.S3Prefix)
		inner = s3store.NewCampaignStore(s3Client, cfg.Campaign.S3Bucket, cfg.Campaign.S3Prefix)
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Printf("[main] campaign config cache: redis %s", cfg.Redis.Addr)
		inner = rediscache.New(inner, rdb, "", cfg.Redis.CacheTTL())
		prev := cleanup
		cleanup = func() { rdb.Close(); prev() }
	}

	return inner, cleanup, nil
}
