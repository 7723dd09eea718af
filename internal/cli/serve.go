package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"todoboard/internal/config"
	"todoboard/internal/log"
	"todoboard/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		file   string
		listen string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(file)
			if err != nil {
				return fmt.Errorf("load server config: %w", err)
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			repo, err := server.OpenRepo(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repo.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Info("serving todos", "db", cfg.DBPath)
			return server.New(cfg, repo).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "server config (YAML)")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the config")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path, overrides the config")
	return cmd
}
