// agentwatch server - ingests agent execution traces and detects behavioral
// drift against approved baselines, exposing both over HTTP/WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/laxkc/agentwatch/pkg/alert"
	"github.com/laxkc/agentwatch/pkg/api"
	"github.com/laxkc/agentwatch/pkg/baseline"
	"github.com/laxkc/agentwatch/pkg/database"
	"github.com/laxkc/agentwatch/pkg/drift"
	"github.com/laxkc/agentwatch/pkg/events"
	"github.com/laxkc/agentwatch/pkg/eventstore"
	"github.com/laxkc/agentwatch/pkg/profile"
	"github.com/laxkc/agentwatch/pkg/slack"
	"github.com/laxkc/agentwatch/pkg/threshold"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	// Get HTTP bind address from environment (with default)
	httpPort := getEnv("HTTP_PORT", "8080")
	thresholdPath := getEnv("THRESHOLD_CONFIG_PATH", "")

	log.Printf("Starting agentwatch")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	// Load threshold config. An empty path falls back to the defaults
	// specified in pkg/threshold — see the Threshold Config component.
	thresholds, err := threshold.Load(thresholdPath)
	if err != nil {
		log.Fatalf("Failed to load threshold config: %v", err)
	}

	// Initialize database. NewClient opens the pool, pings it, and applies
	// any pending golang-migrate migrations before returning.
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("✓ Connected to PostgreSQL database")
	log.Println("✓ Database schema migrated")

	// Construct the drift-detection core.
	store := eventstore.New(dbClient.Client)
	builder := profile.NewBuilder(store)
	baselines := baseline.NewManager(dbClient.Client)
	driftEngine := drift.NewEngine(dbClient.Client, builder, thresholds)
	log.Println("✓ Drift-detection core constructed")

	// Construct the alert emitter. Each sink is only wired when its
	// destination is configured via environment; an emitter with zero
	// sinks still logs every DriftEvent, per the Alert Emitter spec.
	var sinks []alert.Sink
	if slackSvc := slack.NewService(slack.ServiceConfig{
		Token:        os.Getenv("SLACK_TOKEN"),
		Channel:      os.Getenv("SLACK_CHANNEL"),
		DashboardURL: os.Getenv("DASHBOARD_URL"),
	}); slackSvc != nil {
		sinks = append(sinks, alert.NewSlackSink(slackSvc))
		log.Println("✓ Slack alert sink configured")
	}
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		sinks = append(sinks, alert.NewWebhookSink(webhookURL))
		log.Println("✓ Webhook alert sink configured")
	}
	if pagerURL := os.Getenv("ALERT_PAGER_URL"); pagerURL != "" {
		sinks = append(sinks, alert.NewPagerSink(pagerURL))
		log.Println("✓ Pager alert sink configured")
	}
	alertEmitter := alert.NewEmitter(sinks...)

	// Construct the WebSocket fan-out and its Postgres LISTEN/NOTIFY backing.
	// A failure to start the listener is not fatal — catchup-by-query still
	// works, only live push is degraded — so it is logged, not fatal'd.
	catchupQuerier := events.NewDriftCatchupAdapter(events.NewEntDriftQuerier(dbClient.Client))
	connManager := events.NewConnectionManager(catchupQuerier, 5*time.Second)
	listener := events.NewNotifyListener(dbConfig.DSN(), connManager)
	connManager.SetListener(listener)
	if err := listener.Start(ctx); err != nil {
		slog.Warn("drift notify listener failed to start; live WebSocket push is degraded", "error", err)
	} else {
		defer listener.Stop(ctx)
		log.Println("✓ Drift notify listener started")
	}
	publisher := events.NewDriftPublisher(dbClient.DB())

	// Wire the ingest/query/drift HTTP+WebSocket surface.
	server := api.NewServer(dbClient, store, baselines, driftEngine, connManager, publisher, alertEmitter)
	log.Println("✓ API server constructed")

	log.Printf("HTTP server listening on :%s", httpPort)
	log.Printf("Health check available at: http://localhost:%s/health", httpPort)
	if err := server.Start(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
