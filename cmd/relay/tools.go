package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relaykit/discord-mcp-relay/internal/conf"
	"github.com/relaykit/discord-mcp-relay/internal/data"
	"github.com/relaykit/discord-mcp-relay/internal/infra/pipedream"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by the MCP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conf.LoadFromEnv()
			if err != nil {
				return err
			}
			if !cfg.MCPEnabled() {
				return errors.New("MCP tool gateway is disabled")
			}

			gateway := data.NewToolGatewayRepo(pipedream.NewClient(cfg.Pipedream.ToClientConfig()))
			tools, err := gateway.ListTools(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, t := range tools {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, firstLine(t.Description))
			}
			return w.Flush()
		},
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
