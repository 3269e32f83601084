// Command authgate is a server-rendering gateway in front of a
// django-allauth backend. See internal/gateway for the routes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/authflow"
	"github.com/dmitrymomot/authflow/internal/gateway"
	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/config"
	"github.com/dmitrymomot/authflow/pkg/httpserver"
	"github.com/dmitrymomot/authflow/pkg/logger"
)

type logConfig struct {
	Env   string `env:"LOG_ENV" envDefault:"development"`
	Level string `env:"LOG_LEVEL"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logCfg  logConfig
		httpCfg httpserver.Config
	)
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	authCfg, err := authflow.LoadConfig()
	if err != nil {
		return err
	}

	opts := []logger.Option{
		logger.WithEnvironment(logCfg.Env, "authgate"),
		logger.WithContextExtractors(authfetch.LogExtractor),
	}
	if logCfg.Level != "" {
		opts = append(opts, logger.WithLevelName(logCfg.Level))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "starting authgate",
		"api_base", authCfg.APIBase,
		"addr", httpCfg.Addr,
	)

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, gateway.NewRouter(authCfg, gateway.WithLogger(log)))
}
