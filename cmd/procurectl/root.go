package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/client"
	"github.com/ekaya-inc/ekaya-procure/pkg/logging"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	server   string
	logLevel string
	jsonOut  bool
	out      io.Writer
}

func (g *globals) logger() (*zap.Logger, error) {
	return logging.NewLogger("local", g.logLevel)
}

func (g *globals) client() (*client.Client, error) {
	logger, err := g.logger()
	if err != nil {
		return nil, err
	}
	return client.NewClient(g.server, logger), nil
}

func rootCmd(out io.Writer) *cobra.Command {
	g := &globals{out: out}

	defaultServer := os.Getenv("PROCURE_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:5000"
	}

	cmd := &cobra.Command{
		Use:           "procurectl",
		Short:         "Command-line client for the procurement RFP service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&g.server, "server", defaultServer, "API base URL (env PROCURE_URL)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "Print raw JSON instead of tables")

	cmd.AddCommand(
		seedCmd(g),
		vendorsCmd(g),
		rfpsCmd(g),
		proposalsCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(g.out, "procurectl version %s\n", Version)
			},
		},
	)
	return cmd
}
