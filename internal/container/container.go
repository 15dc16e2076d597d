// Package container builds the application graph once at startup.
package container

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-identity/config"
	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/google"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/messaging"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/metrics"
	pginfra "github.com/oksasatya/go-ddd-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/search"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/security"
	gcsinfra "github.com/oksasatya/go-ddd-identity/internal/infrastructure/storage"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
)

// Container holds everything the HTTP server and the commands share.
// Optional clients are nil when their settings are empty.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Metrics *metrics.Metrics

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	ES     *elasticsearch.Client
	GCS    *storage.Client
	Rabbit *helpers.RabbitPublisher

	Users       repository.UserRepository
	Credentials repository.CredentialRepository
	Tokens      *security.JWTManager
	Sessions    application.SessionStore
	Service     *application.Service

	closers []func()
}

// Build connects every configured backend. On error the partially built
// container is closed before returning.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (c *Container, err error) {
	c = &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(metricsNamespace(cfg.AppName)),
		Tokens: security.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
			cfg.AccessTTL, cfg.RefreshTTL, cfg.JWTIssuer, cfg.JWTAudience),
	}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	deps := application.Deps{
		Passwords:      security.NewBcryptPasswordService(cfg.BcryptCost),
		Tokens:         c.Tokens,
		Observer:       c.Metrics,
		Logger:         logger,
		VerifyEmailURL: cfg.VerifyEmailURL,
	}

	if err = c.buildUsers(ctx, &deps); err != nil {
		return c, err
	}
	if err = c.buildCache(ctx, &deps); err != nil {
		return c, err
	}
	if err = c.buildMessaging(&deps); err != nil {
		return c, err
	}
	c.buildSearch(ctx, &deps)
	if err = c.buildStorage(ctx, &deps); err != nil {
		return c, err
	}
	if cfg.GoogleClientID != "" {
		deps.Provider = google.NewProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	}

	c.Users, c.Credentials, c.Sessions = deps.Users, deps.Credentials, deps.Sessions
	c.Service = application.NewService(deps)
	return c, nil
}

func (c *Container) buildUsers(ctx context.Context, deps *application.Deps) error {
	if c.Config.StorageDriver == "memory" {
		repo := memory.NewUserRepository()
		deps.Users, deps.Credentials = repo, repo
		c.Logger.Warn("STORAGE_DRIVER=memory: users are lost on restart")
		return nil
	}
	pool, err := pginfra.NewPool(ctx, c.Config.PostgresDSN(), c.Config.DBMaxConns, c.Config.DBMinConns, c.Config.DBMaxConnLife)
	if err != nil {
		return err
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)
	repo := pginfra.NewUserRepository(pool)
	deps.Users, deps.Credentials = repo, repo
	return nil
}

func (c *Container) buildCache(ctx context.Context, deps *application.Deps) error {
	if c.Config.RedisAddr == "" {
		deps.Sessions = cache.NewMemorySessionStore()
		deps.Verifications = cache.NewMemoryVerificationStore()
		c.Logger.Warn("REDIS_ADDR not set: sessions are kept in process memory")
		return nil
	}
	rdb := helpers.NewRedisClient(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	c.Redis = rdb
	deps.Sessions = cache.NewSessionStore(rdb)
	deps.Verifications = cache.NewVerificationStore(rdb)
	return nil
}

func (c *Container) buildMessaging(deps *application.Deps) error {
	if c.Config.RabbitMQURL == "" {
		lp := messaging.LogPublisher{Logger: c.Logger}
		deps.Events, deps.Emails = lp, lp
		return nil
	}
	pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQEventsQueue, c.Config.RabbitMQEmailQueue)
	if err != nil {
		return err
	}
	c.Rabbit = pub
	c.closers = append(c.closers, pub.Close)
	p := messaging.NewPublisher(pub, c.Config.RabbitMQEventsQueue, c.Config.RabbitMQEmailQueue, c.Logger)
	p.Counter = c.Metrics
	deps.Events, deps.Emails = p, p
	return nil
}

// buildSearch never fails the startup; without Elasticsearch the search
// endpoint reports that it is not configured.
func (c *Container) buildSearch(ctx context.Context, deps *application.Deps) {
	addrs := c.Config.ESAddrs()
	if len(addrs) == 0 {
		return
	}
	es, err := helpers.NewESClient(helpers.ESConfig{
		Addrs:      addrs,
		Username:   c.Config.ElasticsearchUser,
		Password:   c.Config.ElasticsearchPass,
		MaxRetries: 3,
	})
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
		return
	}
	c.ES = es
	index := search.NewUserIndex(es, c.Config.ESUsersIndex, c.Logger)
	if err := index.EnsureIndex(ctx); err != nil {
		c.Logger.WithError(err).Warn("elasticsearch index check failed")
	}
	deps.Users = search.NewIndexingRepository(deps.Users, index)
	deps.Search = index
}

func (c *Container) buildStorage(ctx context.Context, deps *application.Deps) error {
	if c.Config.GCSBucket == "" {
		return nil
	}
	client, err := helpers.NewGCSClient(ctx, c.Config.GCSCredentialsJSONPath)
	if err != nil {
		return fmt.Errorf("gcs client: %w", err)
	}
	c.GCS = client
	c.closers = append(c.closers, func() { _ = client.Close() })
	deps.Avatars = gcsinfra.NewGCSAvatars(client, c.Config.GCSBucket)
	return nil
}

// MailSender returns Mailgun when it is configured and sending is enabled,
// otherwise a sender that only logs.
func (c *Container) MailSender() mailer.Sender {
	cfg := c.Config
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}
	return mailer.LogSender{Log: func(to, subject string) {
		c.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email not sent: mail sending disabled")
	}}
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func metricsNamespace(appName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, appName)
}
