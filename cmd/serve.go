package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/credentials"
	"github.com/ziadkadry99/topicreader/internal/llm"
	"github.com/ziadkadry99/topicreader/internal/reader"
	"github.com/ziadkadry99/topicreader/internal/render"
	"github.com/ziadkadry99/topicreader/internal/server"
	"github.com/ziadkadry99/topicreader/internal/session"
)

// sweepInterval is how often idle sessions are expired.
const sweepInterval = time.Minute

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the topic reader in the browser",
	Long: `Starts the reader web server. Open the printed address, choose an exported
topic file, and browse, annotate and export it. The same server answers the
AI endpoints /status, /summarize and /chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.ListenPort = servePort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		renderer, err := render.New()
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}

		keys := credentials.NewStore(database)
		svc := newAIService(cfg, database)
		sessions := session.NewManager(cfg.SessionIdle())

		srv := server.New(server.Config{
			Port:     cfg.ListenPort,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.AllowAllOrigins,
		}, database, sessions)

		r := srv.Router()
		reader.New(reader.Config{
			Sessions: sessions,
			Renderer: renderer,
			AI:       svc,
			Keys:     keys,
			Provider: string(cfg.Provider),
			NeedsKey: llm.NeedsKey(string(cfg.Provider)),
			Timeout:  cfg.RequestTimeout(),
		}).RegisterRoutes(r)
		ai.RegisterRoutes(r, svc)
		credentials.RegisterRoutes(r, keys)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sessions.Run(ctx, sweepInterval)
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "topicreader v%s\n", Version)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		if cfg.AIServiceURL != "" {
			fmt.Fprintf(os.Stderr, "  AI: remote service at %s\n", cfg.AIServiceURL)
		} else {
			fmt.Fprintf(os.Stderr, "  AI: %s (%s)\n", cfg.Provider, cfg.Model)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides listen_port)")
	rootCmd.AddCommand(serveCmd)
}
