package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"file-management-api/internal/extract"
	"file-management-api/internal/files"
	"file-management-api/internal/queue"
	"file-management-api/internal/services/health"
	"file-management-api/internal/shared/config"
	"file-management-api/internal/shared/server"
	"file-management-api/internal/shared/server/middleware"
	"file-management-api/internal/shared/storage/db"
	"file-management-api/internal/shared/storage/docdb"
	"file-management-api/internal/shared/storage/object"
	localstore "file-management-api/internal/shared/storage/object/local"
	miniostore "file-management-api/internal/shared/storage/object/minio"
	s3store "file-management-api/internal/shared/storage/object/s3"
	"file-management-api/internal/shared/telemetry"
)

// App holds the wired dependencies of the API process.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Mongo        *mongo.Client
	Blobs        object.BlobStore
	Metadata     files.MetadataStore
	Events       queue.Client
	Uploader     *files.Uploader
	Retriever    *files.Retriever
	FilesHandler *files.Handler
	Health       *health.Service
}

// Build connects the configured stores and wires services, handlers and router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.MetadataStore) == "" {
		cfg.MetadataStore = "memory"
	}

	app := &App{Config: cfg, Health: health.NewService(0)}

	blobs, err := buildBlobStore(ctx, cfg, app.Health)
	if err != nil {
		return nil, err
	}
	app.Blobs = blobs

	if err := app.buildMetadataStore(ctx); err != nil {
		app.Close(context.Background())
		return nil, err
	}

	if url := strings.TrimSpace(cfg.Events.SQSQueueURL); url != "" {
		client, err := queue.NewSQSClient(ctx, queue.SQSConfig{
			QueueURL: url,
			Region:   cfg.S3.Region,
			Endpoint: cfg.Events.SQSEndpoint,
		})
		if err != nil {
			app.Close(context.Background())
			return nil, err
		}
		app.Events = client
	}

	app.Uploader = &files.Uploader{
		Blobs:     app.Blobs,
		Repo:      app.Metadata,
		Extractor: extract.NewPDFExtractor(),
		Events:    app.Events,
	}
	app.Retriever = &files.Retriever{Blobs: app.Blobs, Repo: app.Metadata}
	app.FilesHandler = files.NewHandler(app.Uploader, app.Retriever, cfg.MaxUploadSizeBytes())

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		FilesHandler: app.FilesHandler,
		Health:       app.Health,
		UploadLimit:  middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"object_store":   cfg.ObjectStoreType,
		"metadata_store": cfg.MetadataStore,
		"env":            cfg.Env,
		"events":         app.Events != nil,
	})
	return app, nil
}

// Close releases database connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

func buildBlobStore(ctx context.Context, cfg config.Config, checks *health.Service) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			KMSKeyID:        cfg.S3.SSEKMSKeyID,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		dir := cfg.LocalStoreDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store dir: %w", err)
		}
		checks.Register("blobs", func(ctx context.Context) error {
			_, err := os.Stat(filepath.Clean(dir))
			return err
		})
		return localstore.New(dir), nil
	}
}

func (a *App) buildMetadataStore(ctx context.Context) error {
	switch a.Config.MetadataStore {
	case "postgres":
		opts := DBOptions(a.Config.DBPool, db.DefaultServerOptions())
		sqlDB, err := db.Connect(ctx, a.Config.DatabaseURL, opts)
		if err != nil {
			return err
		}
		a.DB = sqlDB
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
		a.Metadata = &files.PGStore{DB: sqlDB}
		a.Health.Register("metadata", sqlDB.PingContext)
	case "mongo":
		client, err := docdb.Connect(ctx, a.Config.Mongo.URI, docdb.DefaultOptions())
		if err != nil {
			return err
		}
		a.Mongo = client
		store := files.NewMongoStore(client, a.Config.Mongo.Database, a.Config.Mongo.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.Metadata = store
		a.Health.Register("metadata", func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		})
	default:
		a.Metadata = files.NewMemoryStore()
	}
	return nil
}

// DBOptions layers the configured pool settings over defaults.
func DBOptions(pool config.DBPoolConfig, defaults db.Options) db.Options {
	return db.WithOverrides(defaults, db.Options{
		MaxOpenConns:    pool.MaxOpenConns,
		MaxIdleConns:    pool.MaxIdleConns,
		ConnMaxLifetime: pool.ConnMaxLifetimeDuration(),
		ConnMaxIdleTime: pool.ConnMaxIdleTimeDuration(),
		PingTimeout:     pool.PingTimeoutDuration(),
	})
}
