package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/square-key-labs/strawgo-callbridge/src/audio"
	"github.com/square-key-labs/strawgo-callbridge/src/callcontext"
	"github.com/square-key-labs/strawgo-callbridge/src/config"
	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/metrics"
	"github.com/square-key-labs/strawgo-callbridge/src/pipeline"
	"github.com/square-key-labs/strawgo-callbridge/src/services/openai"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the media relay server",
	Long: `Run the HTTP server Twilio talks to:

  - call webhook returning TwiML that connects the call to the media stream
  - media stream websocket relaying audio to and from OpenAI Realtime
  - call context registration
  - Prometheus metrics and a health check

SIGINT/SIGTERM stop accepting calls, end in-flight calls and wait for
their teardown up to server.shutdown_grace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.Configure(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Color:  cfg.Log.Color,
		File: logger.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	log := logger.WithPrefix("Server")

	store, closeStore, err := buildStore(ctx, cfg.ContextStore)
	if err != nil {
		return err
	}
	defer closeStore()

	// Formats were checked by config validation
	inputFormat, _ := audio.ParseFormat(cfg.OpenAI.InputAudioFormat)
	outputFormat, _ := audio.ParseFormat(cfg.OpenAI.OutputAudioFormat)

	dialer := openai.NewRealtimeDialer(openai.RealtimeConfig{
		APIKey:       cfg.OpenAI.APIKey,
		URL:          cfg.OpenAI.RealtimeEndpoint(),
		DialTimeout:  cfg.Relay.DialTimeout,
		WriteTimeout: cfg.Relay.WriteTimeout,
		ReadLimit:    cfg.Relay.ReadLimitBytes,
	})

	tracker := pipeline.NewTracker()
	task := pipeline.NewCallTask(store, dialer, pipeline.CallTaskConfig{
		Session:         openai.SessionDefaults(cfg.OpenAI),
		InputFormat:     inputFormat,
		OutputFormat:    outputFormat,
		InboundMaxFPS:   cfg.Relay.InboundMaxFPS,
		InboundBurstSec: cfg.Relay.InboundBurstSecs,
	}, tracker)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MediaPath, transports.NewMediaStreamServer(
		transports.MediaStreamConfig{
			WriteTimeout: cfg.Relay.WriteTimeout,
			ReadLimit:    cfg.Relay.ReadLimitBytes,
		},
		func(ctx context.Context, callSid string, telephony *transports.WebSocketChannel) {
			// errors are logged and counted by the task
			_ = task.Run(ctx, callSid, telephony)
		},
	))
	mux.Handle(cfg.Server.WebhookPath, transports.NewTwiMLHandler(transports.TwiMLConfig{
		PublicURL: cfg.Server.PublicURL,
		MediaPath: cfg.Server.MediaPath,
		Greeting:  cfg.Server.Greeting,
	}))
	mux.Handle(cfg.Server.ContextPath, transports.NewContextHandler(store))
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "ok",
			"active_calls": tracker.Count(),
		})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s (media %s, webhook %s)", server.Addr, cfg.Server.MediaPath, cfg.Server.WebhookPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down, %d call(s) in flight", tracker.Count())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	// Shutdown does not wait for hijacked websocket connections; the tracker does
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown: %v", err)
	}
	if n := tracker.CancelAll(); n > 0 {
		log.Info("cancelled %d call(s)", n)
	}
	if !tracker.Wait(shutdownCtx) {
		log.Warn("%d call(s) still tearing down after %s", tracker.Count(), cfg.Server.ShutdownGrace)
	}
	log.Info("stopped")
	return nil
}

// buildStore creates the configured context store. The returned function
// releases it.
func buildStore(ctx context.Context, cfg config.ContextStoreConfig) (callcontext.Store, func(), error) {
	log := logger.WithPrefix("ContextStore")

	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("using redis at %s (prefix %s, ttl %s)", cfg.Redis.Addr, cfg.Redis.Prefix, cfg.TTL)
		return callcontext.NewRedisStore(client, cfg.Redis.Prefix, cfg.TTL), func() { client.Close() }, nil

	default:
		store := callcontext.NewMemoryStore(callcontext.WithTTL(cfg.TTL), callcontext.WithShards(cfg.Shards))
		janitorCtx, cancel := context.WithCancel(ctx)
		go store.Run(janitorCtx, cfg.SweepInterval)
		log.Info("using in-memory store (%d shards, ttl %s)", cfg.Shards, cfg.TTL)
		return store, cancel, nil
	}
}
