package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/joho/godotenv"

	"github.com/example/realtime-chat/modules/api"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/avatars"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Optional .env file; real environments set variables directly.
	_ = godotenv.Load()

	storagePath := getEnv("JETSTREAM_DIR", "/tmp/realtime-chat")
	natsPort := getEnvInt("NATS_PORT", 4222)

	log.Println("=== Realtime Chat ===")
	log.Printf("Storage Path: %s", storagePath)
	log.Printf("NATS Port: %d", natsPort)

	// Create mono application with embedded NATS JetStream
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(storagePath),
		mono.WithNATSPort(natsPort),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Object store bucket for avatar images
	storagePlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        avatars.BucketName,
				Description: "Avatar image storage bucket",
				MaxBytes:    500 * 1024 * 1024,
				Storage:     fsjetstream.FileStorage,
				Compression: true,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create storage plugin: %v", err)
	}
	if err := app.RegisterPlugin(storagePlugin, "storage"); err != nil {
		log.Fatalf("Failed to register storage plugin: %v", err)
	}

	// Create modules
	chatModule := chat.NewModule(app.Logger())
	broadcastModule := broadcast.NewModule()
	authModule := auth.NewModule(app.Logger())
	avatarsModule := avatars.NewModule(app.Logger())
	apiModule := api.NewModule(app.Logger())

	// Inject broadcast hub into API module
	// (The hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	app.Register(chatModule)      // Message store + event emitter
	app.Register(broadcastModule) // WebSocket hub + event consumer
	app.Register(authModule)      // Accounts and tokens
	app.Register(avatarsModule)   // Avatar object store
	app.Register(apiModule)       // HTTP/WebSocket transport

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := getEnv("PORT", "3000")

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  POST   /api/auth/register        - Create an account")
	log.Println("  POST   /api/auth/login           - Log in, returns JWT")
	log.Println("  GET    /api/auth/verify/:token   - Verify email address")
	log.Println("  GET    /api/messages             - Paginated room history")
	log.Println("  PATCH  /api/messages/:id         - Edit own message (auth)")
	log.Println("  DELETE /api/messages/:id         - Delete own message (auth)")
	log.Println("  POST   /api/users/avatar         - Upload avatar (auth)")
	log.Println("  GET    /uploads/avatars/:name    - Serve stored avatar")
	log.Println("  GET    /api/health               - Health check")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:3000/ws?token=<jwt> (token optional)")
	log.Println("  Client events: join, chatMessage, typing")
	log.Println("  Server events: history, message, messageEdited, messageDeleted, typing, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
