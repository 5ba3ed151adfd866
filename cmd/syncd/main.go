// Package main implements the syncd binary: the background daemon that
// keeps the local PostgreSQL store and the remote etcd store converged.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/log"
	"github.com/fairsplit/syncengine/internal/remote"
	"github.com/fairsplit/syncengine/internal/store"
	"github.com/fairsplit/syncengine/internal/sync"
)

// Config holds the application configuration
type Config struct {
	PostgresDSN    string `short:"p" env:"SYNCD_POSTGRES_DSN" long:"postgres-dsn" description:"PostgreSQL connection string"`
	EtcdDSN        string `short:"e" env:"SYNCD_ETCD_DSN" long:"etcd-dsn" description:"etcd connection string"`
	SessionToken   string `env:"SYNCD_SESSION_TOKEN" long:"session-token" description:"Authenticated session token; sync passes are skipped without one"`
	LogLevel       string `short:"l" env:"SYNCD_LOG_LEVEL" long:"log-level" description:"Log level: debug|info|warn|error" default:"info"`
	LogFile        string `env:"SYNCD_LOG_FILE" long:"log-file" description:"Mirror log output into a rotated file"`
	SyncInterval   string `env:"SYNCD_SYNC_INTERVAL" long:"sync-interval" description:"Pause between full sync passes" default:"30s"`
	RequestTimeout string `env:"SYNCD_REQUEST_TIMEOUT" long:"request-timeout" description:"Timeout for each individual remote call" default:"10s"`
	Once           bool   `long:"once" description:"Run a single sync pass and exit"`
	Version        bool   `short:"v" long:"version" description:"Show version information"`
	Help           bool
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ParseCLI parses command-line arguments and returns the configuration
func ParseCLI(args []string) (cmdOpts *Config, err error) {
	cmdOpts = new(Config)
	parser := flags.NewParser(cmdOpts, flags.HelpFlag)
	parser.SubcommandsOptional = true
	nonParsedArgs, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			cmdOpts.Help = true
		}
		if !flags.WroteHelp(err) {
			parser.WriteHelp(os.Stdout)
		}
		return cmdOpts, err
	}
	if len(nonParsedArgs) > 0 { // we don't expect any non-parsed arguments
		return cmdOpts, fmt.Errorf("unknown argument(s): %v", nonParsedArgs)
	}
	return
}

// EngineConfig translates the flag strings into engine tunables.
func (c *Config) EngineConfig() (sync.Config, error) {
	interval, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return sync.Config{}, fmt.Errorf("invalid sync interval: %w", err)
	}
	timeout, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return sync.Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}
	return sync.Config{SyncInterval: interval, RequestTimeout: timeout}, nil
}

// SessionCheck builds the precondition the orchestrator verifies before
// every pass.
func (c *Config) SessionCheck() sync.SessionCheck {
	return func(context.Context) error {
		if c.SessionToken == "" {
			return sync.ErrNoSession
		}
		return nil
	}
}

// ShowVersion prints version information and exits
func ShowVersion() {
	fmt.Printf("syncd version %s\n", version)
	if commit != "none" && commit != "" {
		fmt.Printf("commit: %s\n", commit)
	}
	if date != "unknown" && date != "" {
		fmt.Printf("built: %s\n", date)
	}
}

// SetupLogging configures the logging system with structured output
func SetupLogging(config *Config) error {
	if err := log.Init(config.LogLevel, config.LogFile); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"version": version,
		"commit":  commit,
		"pid":     os.Getpid(),
	}).Info("syncd logging initialized")
	return nil
}

// SetupCloseHandler creates a 'listener' on a new goroutine which will notify the
// program if it receives an interrupt from the OS. We then handle this by calling
// our clean up procedure and exiting the program.
func SetupCloseHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logrus.Debug("SetupCloseHandler received an interrupt from OS. Shutting down...")
		cancel()
	}()
}

// runLoop executes sync passes on a ticker until ctx is cancelled. Passes
// never overlap; a pass still running when the ticker fires simply wins.
func runLoop(ctx context.Context, engine *sync.Engine, interval time.Duration) {
	for {
		if _, err := engine.Sync(ctx); err != nil {
			switch {
			case errors.Is(err, sync.ErrNoSession):
				logrus.Debug("No session, sync pass skipped")
			case ctx.Err() != nil:
				return
			default:
				logrus.WithError(err).Error("Sync pass failed")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func main() {
	// Quick check for version flags before full parsing
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			ShowVersion()
			os.Exit(0)
		}
	}

	config, err := ParseCLI(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	if err := SetupLogging(config); err != nil {
		logrus.WithError(err).Fatal("Failed to setup logging")
	}

	engineCfg, err := config.EngineConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	SetupCloseHandler(cancel)

	pgPool, err := store.NewWithRetry(ctx, config.PostgresDSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to PostgreSQL after retries")
	}
	defer pgPool.Close()

	conn, err := pgPool.Acquire(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to acquire connection for migrations")
	}
	if err := store.ApplyMigrations(ctx, conn.Conn()); err != nil {
		conn.Release()
		logrus.WithError(err).Fatal("Failed to apply migrations")
	}
	conn.Release()

	etcdClient, err := remote.NewEtcdClientWithRetry(ctx, config.EtcdDSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to etcd after retries")
	}
	defer etcdClient.Close()

	engine := sync.NewEngine(pgPool, etcdClient, config.SessionCheck(), engineCfg)

	if config.Once {
		if _, err := engine.Sync(ctx); err != nil {
			logrus.WithError(err).Fatal("Sync pass failed")
		}
	} else {
		runLoop(ctx, engine, engineCfg.SyncInterval)
	}

	logrus.Info("Graceful shutdown completed")
}
