package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-price-redactor/internal/mcp"
)

// NewMCPCmd creates the mcp command
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the redactor as MCP tools over stdio",
		Long: `MCP exposes the redactor to MCP clients over stdin and stdout. Logs go
to stderr so they do not interfere with the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr(), logText)
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(a.cfg, a.orch, a.engine, a.validator, a.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
