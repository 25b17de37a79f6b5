package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bechamine/autocare/internal/api"
	"github.com/bechamine/autocare/internal/config"
	"github.com/bechamine/autocare/internal/token"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "Session expired, please run `autocare login` again.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app CLI 运行环境，rootCmd 的 PersistentPreRunE 中初始化
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "autocare",
		Short: "AutoCare command line client",
		Long: `AutoCare is a command line client for the AutoCare car maintenance API.

It manages your account, car profiles and maintenance tasks. Tokens are
stored locally and refreshed automatically when they expire.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = initLogger(cfg.Debug)

			store := token.NewStore(cfg.TokenFile, a.logger)
			client, err := api.NewClient(cfg.APIBaseURL, store, a.logger,
				api.WithTimeout(cfg.HTTPTimeout))
			if err != nil {
				return err
			}
			a.client = client
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.AddCommand(
		signupCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		carsCmd(a),
		tasksCmd(a),
		profileCmd(a),
		passwordCmd(a),
	)

	return cmd
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, _ := cfg.Build()
	return logger
}
