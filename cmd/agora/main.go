package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/internal/seed"
	"github.com/lunagic/agora/internal/server"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	envFile := ""

	loadConfig := func() (agora.AppConfig, error) {
		return agora.LoadConfig(envFile)
	}

	serveCmd := newServeCmd(loadConfig)

	rootCmd := &cobra.Command{
		Use:           "agora",
		Short:         "Agora - blog and social backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file layered under the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCmd(loadConfig))
	rootCmd.AddCommand(newSeedCmd(loadConfig))
	rootCmd.AddCommand(newTypeScriptCmd(loadConfig))

	return rootCmd
}

func newServeCmd(loadConfig func() (agora.AppConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the API, consume events and run background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := server.New(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer func() {
				_ = s.Close()
			}()

			return s.Start(cmd.Context())
		},
	}
}

func newMigrateCmd(loadConfig func() (agora.AppConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			// Building the server migrates
			s, err := server.New(cmd.Context(), config)
			if err != nil {
				return err
			}

			return s.Close()
		},
	}
}

func newSeedCmd(loadConfig func() (agora.AppConfig, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the seed user when it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := server.New(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer func() {
				_ = s.Close()
			}()

			_, err = seed.Run(cmd.Context(), s.Database(), s.App().Logger(), seed.User{
				Name:     config.SeedUserName,
				Email:    config.SeedUserEmail,
				Password: config.SeedUserPassword,
			})

			return err
		},
	}
}

func newTypeScriptCmd(loadConfig func() (agora.AppConfig, error)) *cobra.Command {
	output := ""
	namespace := ""

	cmd := &cobra.Command{
		Use:   "typescript",
		Short: "Write the TypeScript client for every route",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer func() {
				_ = file.Close()
			}()

			s, err := server.New(
				cmd.Context(),
				config,
				agora.WithTypeScriptOutput(namespace, file, server.TypeScriptTypes()),
			)
			if err != nil {
				return err
			}

			if err := s.Close(); err != nil {
				return err
			}

			return file.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "agora.ts", "file to write")
	cmd.Flags().StringVar(&namespace, "namespace", "agora", "namespace of the generated client")

	return cmd
}
