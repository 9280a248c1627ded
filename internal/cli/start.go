package cli

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ladder-quiz-bot/internal/chat"
	"ladder-quiz-bot/internal/config"
	transport "ladder-quiz-bot/internal/transport/http"
	"ladder-quiz-bot/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand that serves the bot and the websocket endpoint.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Telegram bot and the websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	game, err := newGame(cfg, b)
	if err != nil {
		return err
	}
	dispatcher := chat.NewDispatcher(game)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(dispatcher),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting websocket server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.Token == "" {
		log.Printf("telegram token not configured, bot disabled")
	} else {
		api, err := telegram.Connect(cfg.Telegram.Token, cfg.Telegram.Debug)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		bot := telegram.NewBot(api, dispatcher)
		if err := bot.RegisterCommands(); err != nil {
			log.Printf("register commands: %v", err)
		}
		g.Go(func() error {
			return telegram.Run(ctx, api, bot, cfg.Telegram.Timeout)
		})
	}

	return g.Wait()
}
