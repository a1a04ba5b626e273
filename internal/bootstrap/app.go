package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/chat"
	"docchat-backend/internal/chunks"
	"docchat-backend/internal/conversations"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/ingest"
	"docchat-backend/internal/llm"
	openai "docchat-backend/internal/llm/openai"
	"docchat-backend/internal/queue"
	"docchat-backend/internal/quota"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/object"
	localstore "docchat-backend/internal/shared/storage/object/local"
	s3store "docchat-backend/internal/shared/storage/object/s3"
	"docchat-backend/internal/summaries"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo     documents.Repo
	ChunksRepo        chunks.Repo
	ConversationsRepo conversations.Repo
	SummariesRepo     summaries.Repo
	QuotaLedger       *quota.Ledger

	DocumentsService *documents.Service
	ChatService      *chat.Service
	IngestProcessor  *ingest.Processor

	DocumentsHandler *documents.Handler
	ChatHandler      *chat.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DocumentsHandler: app.DocumentsHandler,
		ChatHandler:      app.ChatHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var (
		docRepo   documents.Repo
		chunkRepo chunks.Repo
		turnRepo  conversations.Repo
		sumRepo   summaries.Repo
		ledger    *quota.Ledger
	)

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		chunkRepo = &chunks.PGRepo{DB: app.DB}
		turnRepo = &conversations.PGRepo{DB: app.DB}
		sumRepo = &summaries.PGRepo{DB: app.DB}
		ledger = quota.NewPostgresLedger(quota.NewPGStore(app.DB))
	} else {
		docRepo = documents.NewMemoryRepo()
		chunkRepo = chunks.NewMemoryRepo()
		turnRepo = conversations.NewMemoryRepo()
		sumRepo = summaries.NewMemoryRepo()
		ledger = quota.NewLedger()
	}

	generator, err := buildGenerator(app.Config)
	if err != nil {
		return err
	}

	processor := &ingest.Processor{
		Store:   app.Store,
		Docs:    docRepo,
		Chunks:  chunkRepo,
		Target:  app.Config.ChunkTarget,
		Overlap: app.Config.ChunkOverlap,
	}

	var ingestor documents.Ingestor
	if app.Queue != nil {
		ingestor = &ingest.QueueIngestor{Client: app.Queue}
	} else {
		ingestor = &ingest.InlineIngestor{Proc: processor}
	}

	docSvc := &documents.Service{
		Store:    app.Store,
		Repo:     docRepo,
		Ingestor: ingestor,
	}

	chatSvc := &chat.Service{
		Docs:          docRepo,
		Chunks:        chunkRepo,
		Turns:         turnRepo,
		Summaries:     sumRepo,
		Quota:         ledger,
		Gen:           generator,
		TopK:          app.Config.RetrievalTopK,
		OracleTimeout: time.Duration(app.Config.OracleTimeoutS) * time.Second,
	}

	app.DocumentsRepo = docRepo
	app.ChunksRepo = chunkRepo
	app.ConversationsRepo = turnRepo
	app.SummariesRepo = sumRepo
	app.QuotaLedger = ledger
	app.DocumentsService = docSvc
	app.ChatService = chatSvc
	app.IngestProcessor = processor
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ChatHandler = chat.NewHandler(chatSvc)

	if app.DocumentsHandler == nil || app.ChatHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

func buildGenerator(cfg config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
	case "extractive", "":
		return llm.ExtractiveGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
