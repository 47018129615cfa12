package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/config"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
)

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "env file to load - default is .env in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	// never print messages
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("novelas failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "novelas failed:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "novelas",
	Short:        "HTTP service running MiniZinc telenovela scheduling models",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "start the HTTP API",
	PersistentPreRunE: initNovelas,
	RunE:              doServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("novelas: version info not available")
			return
		}

		fmt.Printf("novelas: %s\n", info.Main.Version)
		fmt.Printf("go:      %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:  %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:    %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:   %s\n", s.Value)
			}
		}
	},
}

// initNovelas loads configuration and sets up logging.
func initNovelas(cmd *cobra.Command, args []string) error {
	var err error
	if flagVerbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cfg, err = config.Load(viper.New(), flagConfigFilePath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	return nil
}
