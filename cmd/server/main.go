package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/arhyth/bankcore"
	"gopkg.in/yaml.v3"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg bankcore.Config
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening config file")
	}
	if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("error decoding config file")
	}

	pgendpt, err := bankcore.NewPostgresEndpoint(cfg.Database.ConnectionString, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database")
	}

	svc, err := bankcore.NewService(pgendpt, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}

	inFlight := cfg.Limits.InFlight
	if inFlight <= 0 {
		inFlight = 64
	}
	acquireTimeout := time.Duration(cfg.Limits.AcquireTimeoutMS) * time.Millisecond
	if acquireTimeout <= 0 {
		acquireTimeout = time.Second
	}

	var wrapped bankcore.Service = svc
	for _, mw := range []bankcore.Middleware{
		bankcore.NewLoggingMiddleware(&logger),
		bankcore.NewLimitMiddleware(bankcore.NewServiceLimits(inFlight), acquireTimeout),
		bankcore.NewCircuitBreakMiddleware(bankcore.NewServiceBreaker()),
	} {
		wrapped = mw(wrapped)
	}
	hndlr := bankcore.NewHTTPHandler(wrapped, &logger)

	listen := cfg.Listen
	if listen == "" {
		listen = ":3000"
	}
	logger.Info().Str("listen", listen).Msg("server starting")
	if err = http.ListenAndServe(listen, hndlr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
