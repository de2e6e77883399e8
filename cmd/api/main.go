package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/sms-inbox/config"
	"github.com/marcelsud/sms-inbox/gate"
	"github.com/marcelsud/sms-inbox/inbound"
	inboundredis "github.com/marcelsud/sms-inbox/inbound/redis"
	"github.com/marcelsud/sms-inbox/internal/http/chi"
	"github.com/marcelsud/sms-inbox/metrics"
	"github.com/marcelsud/sms-inbox/secrets"
	secretsredis "github.com/marcelsud/sms-inbox/secrets/redis"
	"github.com/marcelsud/sms-inbox/telnyx/signature"
)

const TIMEOUT = 30 * time.Second

/* O main.go é a porta de entrada e saída da aplicação: é aqui que as
 * dependências são iniciadas e amarradas, na direção de cima para baixo
 * (api -> camada de negócio -> camada de armazenamento)
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := httplog.NewLogger("sms-inbox", httplog.Options{
		JSON: true,
	})

	repo, err := inboundredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close()

	secretStore, err := secretsredis.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer secretStore.Close()

	keyCache := secrets.NewKeyCache(
		secretStore,
		cfg.PublicKeySecret,
		time.Duration(cfg.KeyCacheTTL)*time.Second,
	)

	recorder, err := metrics.NewOTelRecorder()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer recorder.Shutdown(context.Background())

	gateCfg := gate.Config{Strict: cfg.GateStrict}
	if cfg.GateRangesFile != "" {
		ranges, err := gate.LoadRanges(cfg.GateRangesFile)
		if err != nil {
			fmt.Println(err)
			return
		}
		gateCfg.Ranges = ranges.Ranges
		gateCfg.Strict = ranges.Strict
	}
	g, err := gate.New(gateCfg, logger)
	if err != nil {
		fmt.Println(err)
		return
	}

	service := inbound.NewService(keyCache, signature.NewVerifier(), repo, repo, recorder, logger)
	fallback := inbound.NewFallback(repo, repo, recorder, logger)
	pipeline := inbound.NewPipeline(g, service, fallback, logger)

	// Optional queued intake alongside the HTTP front door
	if cfg.EventStream != "" {
		consumer := inboundredis.NewConsumer(repo.GetClient(), cfg.EventStream, pipeline, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("stream consumer stopped")
				stop()
			}
		}()
	}

	r := chi.Handlers(ctx, pipeline, fallback, g, recorder.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		os.Exit(1)
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
