package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heybuddy/idgen"
	httpapi "heybuddy/infrastructure/http"
	"heybuddy/infrastructure/websocket"
	"heybuddy/internal"
	"heybuddy/repositories"
	"heybuddy/runtime"
	"heybuddy/runtime/workers"
	"heybuddy/sink"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the server and blocks until SIGINT/SIGTERM.
// Deferred cleanups (message store) run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store
	messages, closeStore, err := openMessageStore(config.MessageStore, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("message store opening failed: %w", err)
	}
	defer closeStore()

	// 3. Core
	rooms := runtime.NewRoomRegistry(log, messages, idgen.NewRoomIDGenerator())
	orchestrator := runtime.NewOrchestrator(
		log, runtime.NewSessionRegistry(), rooms,
		runtime.NewMatchmaker(log, rooms), config.SinkTimeout,
	)
	orchestrator.Observe(sink.NewLogSink(log))

	// 4. HTTP surface
	socket := websocket.NewHandler(log, orchestrator, websocket.Options{
		BufferSize:     config.ConnectionBufferSize,
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		MaxMessageSize: config.MaxMessageSize,
		AllowedOrigins: config.Origins(),
	})
	router := httpapi.NewRouter(log, orchestrator, socket, httpapi.RouterOptions{
		AllowedOrigins: config.Origins(),
		StaticDir:      config.StaticDir,
	})
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers, blocks until ctx is done
	sup := workers.NewSupervisor(log, workers.WithMaxRestarts(config.MaxWorkerRestarts))
	sup.Add(
		workers.NewHTTPServerWorker(log, server, config.ShutdownTimeout),
		workers.NewReporterWorker(log, orchestrator, config.ReportInterval),
	)
	log.Info("Starting HeyBuddy server",
		"address", config.Address(),
		"store", config.MessageStore,
		"origins", config.Origins(),
		"at", time.Now().UTC())
	sup.Run(ctx)
	if err := sup.Err(); err != nil {
		return exitRuntime, err
	}

	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func openMessageStore(store string, log *slog.Logger) (repositories.IMessageRepository, func(), error) {
	switch store {
	case internal.StoreBadger:
		db, err := repositories.OpenInMemoryBadger()
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewBadgerMessageRepository(db, log), func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	default:
		return repositories.NewMemoryMessageRepository(), func() {}, nil
	}
}
