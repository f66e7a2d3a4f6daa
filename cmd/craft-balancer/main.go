package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/config"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/internal/server"
	"github.com/iwvelando/craft-balancer/pkg/constants"
	"github.com/iwvelando/craft-balancer/pkg/output"
	"github.com/iwvelando/craft-balancer/pkg/report"
	"github.com/iwvelando/craft-balancer/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// overridden during build with ldflags
var version = "dev"

func main() {
	// A .env file is optional; CRAFT_* variables may also come from the shell.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, yaml, mermaid")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	target := flag.String("target", "", "balance this item instead of the configured requests")
	raw := flag.String("raw", "", "comma separated raw items for -target")
	count := flag.Int("count", 1, "target count for -target")
	countMax := flag.Int("count-max", 0, "balance every count from -count to -count-max")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of printing results")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	var serverConf *server.Config
	if *serve {
		serverConf, err = server.LoadConfig(*serverConfigLocation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
			os.Exit(1)
		}
		conf.Logging = mergeLogging(conf.Logging, serverConf.Logging)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *target != "" {
		conf.Requests = []config.RequestConfig{cliRequest(*target, *raw, *count, *countMax)}
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	table, err := recipe.LoadTable(conf.Recipes.File)
	if err != nil {
		logger.Fatal("failed to load recipe table",
			zap.String("op", "main"),
			zap.String("file", conf.Recipes.File),
			zap.Error(err),
		)
	}
	logger.Debug("loaded recipe table",
		zap.String("op", "main"),
		zap.String("file", conf.Recipes.File),
		zap.Int("recipes", table.Len()),
	)

	for _, warning := range configWarnings(conf, table) {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	b, err := balancer.New(logger, table, conf.Balancer.Options())
	if err != nil {
		logger.Fatal("failed to create balancer",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		handler := server.NewHandler(logger, b, table, serverConf, version)
		if err := server.Serve(ctx, logger, handler, serverConf); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	results, err := balanceAll(ctx, logger, b, conf.Requests)
	if err != nil {
		logger.Fatal("failed to balance requests",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := output.Write(outputFormat, results); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// cliRequest builds a request from the -target family of flags.
func cliRequest(target, raw string, count, countMax int) config.RequestConfig {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return config.RequestConfig{
		Name:     "cli",
		Target:   target,
		Raw:      items,
		Count:    count,
		CountMax: countMax,
	}
}

// mergeLogging lets the server config override the main logging settings.
func mergeLogging(base, override config.LoggingConfig) config.LoggingConfig {
	if override.Level != "" {
		base.Level = override.Level
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.OutputFile != "" {
		base.OutputFile = override.OutputFile
	}
	return base
}

// configWarnings collects configuration warnings, including items the
// recipe table has never heard of.
func configWarnings(conf *config.Configuration, table *recipe.Table) []string {
	warnings := conf.ValidateConfiguration()
	for i, req := range conf.Requests {
		items := append([]string{req.Target}, req.Raw...)
		warnings = append(warnings, validation.ValidateKnownItems(validation.RequestLabel(i, req.Name), items, table.HasItem)...)
	}
	return warnings
}

// balanceAll runs every request in order. Results of a request that did not
// converge in strict mode are kept and logged; any other error stops the run.
func balanceAll(ctx context.Context, logger *zap.Logger, b *balancer.Balancer, requests []config.RequestConfig) ([]report.Result, error) {
	var all []report.Result
	for i, rc := range requests {
		label := validation.RequestLabel(i, rc.Name)
		results, err := b.OptimizeRange(ctx, rc.Request())
		if err != nil {
			if !errors.Is(err, balancer.ErrNotConverged) || results == nil {
				return nil, fmt.Errorf("%s: %w", label, err)
			}
			logger.Warn("request did not converge",
				zap.String("op", "main.balanceAll"),
				zap.String("request", label),
				zap.Error(err),
			)
		}
		all = append(all, report.FromResults(results)...)
	}
	return all, nil
}
