// Command dispatcher runs the alert dispatch pipeline: it consumes anomaly
// events, suppresses duplicates, resolves entitlements, fans alerts out
// across channels with retry, and emits audit records.
//
// main wires explicitly constructed dependencies and keeps the process
// lifecycle small: connect on startup, graceful close on shutdown. Business
// logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"anomalyze/internal/audit"
	"anomalyze/internal/channel"
	"anomalyze/internal/dedupe"
	"anomalyze/internal/dispatch"
	"anomalyze/internal/entitlement"
	"anomalyze/internal/platform/config"
	"anomalyze/internal/platform/httpserver"
	"anomalyze/internal/platform/kafka"
	"anomalyze/internal/platform/logger"
	"anomalyze/internal/platform/postgres"
	platformredis "anomalyze/internal/platform/redis"
	transporthttp "anomalyze/internal/transport/http"
	"anomalyze/pkg/platform/retry"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("dispatcher exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pool, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	consumerClient, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer consumerClient.Close()

	producerClient, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer producerClient.Close()

	if err := kafka.EnsureTopics(ctx, consumerClient, cfg.Kafka); err != nil {
		return err
	}

	guard := dedupe.NewGuard(
		dedupe.NewRedisLeaseStore(redisClient.Client),
		dedupe.WithTTL(cfg.DedupTTL),
		dedupe.WithUnavailablePolicy(dedupe.UnavailablePolicy(cfg.OnCacheUnavailable)),
		dedupe.WithLogger(log),
	)

	senders := []channel.Sender{
		channel.NewEmail(channel.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log),
		channel.NewSMS(telephonyConfig(cfg), log),
		channel.NewVoice(telephonyConfig(cfg), log),
		channel.NewWebhook(cfg.WebhookSecret),
	}

	auditor := audit.NewPublisher(producerClient, cfg.Kafka.OutboundTopic, audit.WithLogger(log))

	orchestrator := dispatch.NewOrchestrator(
		guard,
		entitlement.NewPostgresStore(pool),
		senders,
		auditor,
		dispatch.WithRetryPolicy(retry.Policy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialBackoff,
		}),
		dispatch.WithChannelTimeout(cfg.ChannelTimeout),
		dispatch.WithIncidentFallback(dispatch.IncidentFallback(cfg.IncidentFallback)),
		dispatch.WithLogger(log),
	)
	consumer := dispatch.NewConsumer(consumerClient, orchestrator, log)

	checks := map[string]transporthttp.HealthChecker{
		"redis":    redisClient,
		"postgres": transporthttp.HealthCheckFunc(pool.Ping),
		"kafka":    transporthttp.HealthCheckFunc(consumerClient.Ping),
	}
	srv := httpserver.New(cfg.MetricsAddr, transporthttp.NewRouter(checks))

	log.Info("dispatcher starting",
		"brokers", cfg.Kafka.Brokers,
		"inbound_topic", cfg.Kafka.InboundTopic,
		"outbound_topic", cfg.Kafka.OutboundTopic,
		"metrics_addr", cfg.MetricsAddr,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown failed", "error", err)
		}
		// Closing the consumer unblocks PollFetches; flush drains any
		// audit records still in flight.
		consumerClient.Close()
		if err := producerClient.Flush(shutdownCtx); err != nil {
			log.Warn("producer flush failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("dispatcher stopped")
	return nil
}

func telephonyConfig(cfg config.Config) channel.TelephonyConfig {
	return channel.TelephonyConfig{
		APIURL:     cfg.Telephony.APIURL,
		AccountID:  cfg.Telephony.AccountID,
		AuthToken:  cfg.Telephony.AuthToken,
		FromNumber: cfg.Telephony.FromNumber,
	}
}
