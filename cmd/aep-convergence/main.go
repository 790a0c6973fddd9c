package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chrissnell/windaep/internal/app"
	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/log"
	"github.com/chrissnell/windaep/internal/types"
	"github.com/chrissnell/windaep/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "study.yaml", "Path to configuration source:\n\t\t\t  YAML: study.yaml\n\t\t\t  SQLite: study.db")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	envFile := flag.String("env", ".env", "Optional environment file, e.g. holding AEP_TIMESCALEDB_URL")
	sweep := flag.Bool("sweep-offsets", false, "Run the study once for every offset and report the spread of the mean AEP")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("aep-convergence %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := loadEnv(*envFile); err != nil {
		log.Errorf("Failed to load environment file: %v", err)
		os.Exit(1)
	}

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	cfg, err := types.NewStudyConfig(cfgData)
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("Failed to set up study: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *sweep {
		_, err = application.Sweep(ctx)
	} else {
		_, err = application.Run(ctx)
	}
	if err != nil {
		log.Errorf("Study failed: %v", err)
		stop()
		log.Sync()
		os.Exit(1)
	}
}

// loadEnv loads path into the environment. A missing file is only an error
// when it was asked for explicitly.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && path == ".env" {
		return nil
	}
	return err
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}
