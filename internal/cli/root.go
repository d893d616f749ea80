package cli

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/logger"
)

const (
	app = "certcy"
)

var rootCmd = &cobra.Command{
	Use:   app,
	Short: "certcy serves the career recommendation, assessment and roadmap API",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setup builds the logger from the persistent flags and loads the
// environment-driven config.
func setup() (*zap.Logger, *config.Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, envLoaded := config.Load()
	if !envLoaded {
		l.Debug("no .env file found, using process environment")
	}

	return l, cfg
}
