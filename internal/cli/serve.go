package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/agentx-labs/agentdir/internal/config"
	"github.com/agentx-labs/agentdir/internal/mcpserver"
	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveTransport string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent directory and function catalog over MCP",
	Long: `Run a Model Context Protocol server exposing list_agents, get_agent,
list_agent_details, create_agent, update_agent and list_functions.

Transports: stdio (default), sse, http (streamable HTTP).`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag(config.KeyServeAddr, cmd.Flags().Lookup("addr"))
	},
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", mcpserver.TransportStdio, "Transport (stdio, sse, http)")
	serveCmd.Flags().String("addr", "", "Listen address for sse and http (default from serve.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	// Surface a misconfigured registry at startup rather than on first call.
	if _, err := registry.ListFunctions(reg); err != nil {
		logger.Error("service registry is misconfigured", zap.Error(err))
		return fmt.Errorf("refusing to serve: %w", err)
	}

	addr := viper.GetString(config.KeyServeAddr)
	logger.Info("starting MCP server",
		zap.String("transport", serveTransport),
		zap.String("store", settings.Store.Driver),
		zap.Int("services", reg.Len()))

	srv := mcpserver.New(store, reg, logger, buildVersion)
	return srv.Serve(ctx, serveTransport, addr)
}
