package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JesmerAFK/movie-night/internal/config"
)

func newRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "movienight",
		Short:         "Resolve titles across mirror hosts and proxy their streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is fine; the environment may already be set
			_ = godotenv.Load(envFile)
			config.Load()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to a .env file to load before reading the environment")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newResolveCommand())

	return rootCmd
}
