//go:build lambda

package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/config"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/internal/server"
	"go.uber.org/zap"
)

// The recipe table and balancer are built once per execution environment
// from CRAFT_* variables, e.g. CRAFT_RECIPES_FILE.
func main() {
	conf, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Balancer.Validate(); err != nil {
		logger.Fatal("invalid balancer configuration", zap.String("op", "main"), zap.Error(err))
	}

	table, err := recipe.LoadTable(conf.Recipes.File)
	if err != nil {
		logger.Fatal("failed to load recipe table",
			zap.String("op", "main"),
			zap.String("file", conf.Recipes.File),
			zap.Error(err),
		)
	}

	b, err := balancer.New(logger, table, conf.Balancer.Options())
	if err != nil {
		logger.Fatal("failed to create balancer", zap.String("op", "main"), zap.Error(err))
	}

	lambda.Start(server.LambdaHandler(logger, b, table))
}
