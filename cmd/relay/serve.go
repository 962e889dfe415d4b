package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relaykit/discord-mcp-relay/internal/api"
	"github.com/relaykit/discord-mcp-relay/internal/biz"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
	"github.com/relaykit/discord-mcp-relay/internal/data"
	"github.com/relaykit/discord-mcp-relay/internal/infra/discord"
	"github.com/relaykit/discord-mcp-relay/internal/infra/pipedream"
	"github.com/relaykit/discord-mcp-relay/internal/server"
	"github.com/relaykit/discord-mcp-relay/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	log := opts.logger

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize clients
	discordClient, err := discord.NewClient(cfg.Discord.Token, log.Named("discord"))
	if err != nil {
		return err
	}

	var pipedreamClient *pipedream.Client
	if cfg.MCPEnabled() {
		pipedreamClient = pipedream.NewClient(cfg.Pipedream.ToClientConfig())
		log.Info("MCP tool gateway enabled",
			zap.String("app", cfg.Pipedream.AppSlug),
			zap.String("url", cfg.Pipedream.MCPURL),
		)
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(discordClient, pipedreamClient, cfg.ToDataOptions())
	if err != nil {
		return err
	}
	defer repos.Conversation.Close()

	// Initialize usecase layer
	ucs := biz.NewUsecases(biz.Repos{
		Message:      repos.Message,
		Conversation: repos.Conversation,
		Completion:   repos.Completion,
		ToolGateway:  repos.ToolGateway,
	}, cfg.ToFilterPolicy(), cfg.ToConversationConfig(), cfg.ToCommandConfig(), log)

	// Initialize service and server layer
	relaySvc := service.NewRelayService(ucs.Filter, ucs.Command, ucs.Conversation, repos.Message, cfg.ToRelayConfig(), log.Named("relay"))
	srv := server.NewDiscordServer(discordClient, relaySvc, log.Named("server"))

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	log.Info("starting relay",
		zap.String("backend", cfg.OpenAI.Backend),
		zap.String("model", cfg.OpenAI.Model),
		zap.String("scope_mode", cfg.Relay.ScopeMode),
		zap.Strings("allowed_channels", cfg.Relay.AllowedChannels),
	)

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		log.Info("shutting down")
		return srv.Stop()
	})

	if cfg.AdminAddr != "" {
		apiServer := api.NewServer(ucs.Conversation, cfg.AdminAddr, log.Named("api"))
		g.Go(apiServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return apiServer.Stop(shutdownCtx)
		})
	}

	if repos.ToolGateway != nil {
		g.Go(func() error {
			probeTools(gctx, repos.ToolGateway, log)
			return nil
		})
	}

	return g.Wait()
}

// probeTools checks the gateway once at startup. Failures are not fatal,
// the gateway is contacted again by the completion endpoint on every turn.
func probeTools(ctx context.Context, gateway repo.ToolGatewayRepo, log *zap.Logger) {
	tools, err := gateway.ListTools(ctx)
	if err != nil {
		log.Warn("MCP tool gateway probe failed", zap.Error(err))
		return
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	log.Info("MCP tool gateway reachable", zap.Int("tools", len(tools)), zap.Strings("names", names))
}
