package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/applications"
	"intake-backend/internal/cv"
	"intake-backend/internal/email"
	"intake-backend/internal/extract"
	"intake-backend/internal/llm"
	"intake-backend/internal/llm/gemini"
	"intake-backend/internal/notify"
	"intake-backend/internal/queue"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/server"
	"intake-backend/internal/shared/storage/db"
	"intake-backend/internal/shared/storage/object"
	localstore "intake-backend/internal/shared/storage/object/local"
	s3store "intake-backend/internal/shared/storage/object/s3"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/submissions"
)

// App holds the wired dependency graph. Tests reach into it to swap
// fakes before exercising the router.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB        *sql.DB
	Store     object.ObjectStore
	Extractor extract.Extractor
	LLM       llm.Client
	Sink      applications.RecordSink
	Notifier  notify.Notifier
	Sender    email.Sender
	Scheduler email.Scheduler

	SubmissionService *submissions.Service
	SubmissionHandler *submissions.Handler
	FollowUpHandler   *email.Handler
	WebhookHandler    *notify.Handler
}

// Build wires every component from configuration. Optional integrations
// (webhook, email, mirror database) stay nil when unconfigured and the
// pipeline skips them.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	extractor, err := buildExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Extractor = extractor

	app.LLM = buildLLM(ctx, cfg)

	sink, err := buildSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Sink = sink

	var mirror applications.RecordSink
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, database); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		app.DB = database
		mirror = &applications.PGRepo{DB: database}
	}

	if cfg.WebhookURL != "" {
		notifier, err := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookCandidateEmail)
		if err != nil {
			return nil, fmt.Errorf("build webhook notifier: %w", err)
		}
		app.Notifier = notifier
	}

	if cfg.EmailFrom != "" {
		sender, err := email.NewSESSender(ctx, cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			return nil, fmt.Errorf("build email sender: %w", err)
		}
		app.Sender = sender
	}

	scheduler, err := buildScheduler(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Scheduler = scheduler

	status := "testing"
	if cfg.Env == "production" {
		status = "submitted"
	}

	app.SubmissionService = &submissions.Service{
		Store:      app.Store,
		Extractor:  app.Extractor,
		Structurer: &cv.Structurer{LLM: app.LLM},
		Sink:       app.Sink,
		Mirror:     mirror,
		Notifier:   app.Notifier,
		Sender:     app.Sender,
		Scheduler:  app.Scheduler,
		Status:     status,
		Now:        time.Now,
	}

	app.SubmissionHandler = submissions.NewHandler(app.SubmissionService)
	app.FollowUpHandler = email.NewHandler(app.Scheduler)
	app.WebhookHandler = notify.NewHandler()

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		SubmissionHandler: app.SubmissionHandler,
		FollowUpHandler:   app.FollowUpHandler,
		WebhookHandler:    app.WebhookHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"store":     cfg.ObjectStoreType,
		"extractor": cfg.ExtractorType,
		"scheduler": cfg.FollowUpScheduler,
		"mirror":    app.DB != nil,
		"webhook":   app.Notifier != nil,
		"email":     app.Sender != nil,
	})
	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build s3 store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(ctx context.Context, cfg config.Config) (extract.Extractor, error) {
	switch cfg.ExtractorType {
	case "textract":
		ex, err := extract.NewTextract(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build textract extractor: %w", err)
		}
		return ex, nil
	default:
		return extract.InProcess{}, nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) llm.Client {
	if cfg.GeminiAPIKey == "" {
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
			"reason": "GEMINI_API_KEY not set",
		})
		return llm.PlaceholderClient{}
	}
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
			"reason": err.Error(),
		})
		return llm.PlaceholderClient{}
	}
	return client
}

func buildSink(ctx context.Context, cfg config.Config) (applications.RecordSink, error) {
	if cfg.SheetID == "" || cfg.GoogleSACredsFile == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("sheets sink requires GOOGLE_SHEET_ID and GOOGLE_SERVICE_ACCOUNT_KEY")
		}
		telemetry.Warn("bootstrap.memory_sink", map[string]any{
			"reason": "sheets credentials not set",
		})
		return applications.NewMemorySink(), nil
	}
	sink, err := applications.NewSheetsSink(ctx, cfg.GoogleSACredsFile, cfg.SheetID, cfg.SheetRange)
	if err != nil {
		return nil, fmt.Errorf("build sheets sink: %w", err)
	}
	return sink, nil
}

func buildScheduler(ctx context.Context, cfg config.Config) (email.Scheduler, error) {
	switch cfg.FollowUpScheduler {
	case "eventbridge":
		sched, err := email.NewEventBridgeScheduler(ctx, cfg.AWSRegion, cfg.ScheduleGroup, cfg.ScheduleTargetARN, cfg.ScheduleRoleARN)
		if err != nil {
			return nil, fmt.Errorf("build eventbridge scheduler: %w", err)
		}
		return sched, nil
	case "queue":
		if cfg.EmailQueueURL == "" {
			telemetry.Warn("bootstrap.no_scheduler", map[string]any{
				"reason": "EMAIL_QUEUE_URL not set",
			})
			return nil, nil
		}
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.EmailQueueURL)
		if err != nil {
			return nil, fmt.Errorf("build sqs client: %w", err)
		}
		return &email.QueueScheduler{Queue: client}, nil
	default:
		return nil, nil
	}
}
