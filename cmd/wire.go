package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"google.golang.org/api/drive/v3"

	appdist "drive-distribution/application/distribution"
	appnotify "drive-distribution/application/notification"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/config"
	gdrive "drive-distribution/infrastructure/drive"
	"drive-distribution/infrastructure/gmail"
	"drive-distribution/infrastructure/lock"
	"drive-distribution/infrastructure/logging"
	"drive-distribution/infrastructure/postgres"
	"drive-distribution/infrastructure/tracing"
)

// wireOptions selects which outer services a command needs
type wireOptions struct {
	drive bool
	email bool
}

// app holds the collaborators of one command invocation
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	db       *sqlx.DB
	repo     *postgres.Repository
	roster   roster.Roster
	drive    *gdrive.Client
	locker   distribution.Locker
	notifier *appnotify.Service
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer, opts wireOptions) (a *app, err error) {
	logger, err := logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close(ctx)
		}
	}()

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn is required")
	}
	a.db, err = postgres.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.db.Close() })
	a.repo = postgres.NewRepository(a.db)
	a.roster = postgres.NewCachedRoster(postgres.NewRosterStore(a.db), cfg.Database.RosterCacheTTL)

	a.locker, err = a.newLocker(ctx)
	if err != nil {
		return nil, err
	}

	if opts.drive || opts.email {
		if err := a.connectGoogle(ctx, out, opts); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *app) newLocker(ctx context.Context) (distribution.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return lock.NewMemoryLocker(), nil
	}
	client := lock.NewRedisClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", a.cfg.Redis.Addr, err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return lock.NewRedisLocker(client), nil
}

func (a *app) connectGoogle(ctx context.Context, out io.Writer, opts wireOptions) error {
	g := a.cfg.Google
	driveOpts := []gdrive.ClientOption{
		gdrive.WithBatchTimeout(a.cfg.Distribution.BatchTimeout),
		gdrive.WithMaxConcurrency(a.cfg.Distribution.MaxConcurrency),
	}

	if g.ServiceAccount {
		if opts.email {
			return errors.New("run summaries need OAuth credentials; set google.service_account to false")
		}
		client, err := gdrive.NewClient(ctx, g.CredentialsFile, driveOpts...)
		if err != nil {
			return err
		}
		a.drive = client
		return nil
	}

	scopes := []string{drive.DriveScope}
	if opts.email {
		scopes = append(scopes, gmail.SendScope)
	}
	httpClient, err := gdrive.OAuthHTTPClient(ctx, gdrive.OAuthConfig{
		CredentialsFile: g.CredentialsFile,
		TokenFile:       g.TokenFile,
		Scopes:          scopes,
		Output:          out,
	})
	if err != nil {
		return err
	}

	a.drive, err = gdrive.NewClientWithHTTP(ctx, httpClient, driveOpts...)
	if err != nil {
		return err
	}

	if opts.email {
		lookup := config.NewRecipientLookup(a.cfg)
		mailer, err := gmail.NewClientWithHTTP(ctx, httpClient, lookup.Sender())
		if err != nil {
			return err
		}
		a.notifier = appnotify.NewService(mailer, a.cfg.Email.FromName)
	}
	return nil
}

func (a *app) engine(out io.Writer) *appdist.Engine {
	return appdist.NewEngine(a.drive, a.roster, a.repo, a.locker, a.logger, appdist.Options{
		SharePolicy:         a.cfg.SharePolicy(),
		NotificationMessage: a.cfg.Distribution.NotificationMessage,
		LockTTL:             a.cfg.Redis.LockTTL,
	}, out)
}

func (a *app) setupService(out io.Writer) *appdist.SetupService {
	return appdist.NewSetupService(a.drive, a.roster, a.repo, a.logger, a.cfg.Google.SiteFolderName, a.cfg.Google.RootFolderID, out)
}

func (a *app) cleanupService(out io.Writer) *appdist.CleanupService {
	return appdist.NewCleanupService(a.drive, a.repo, a.locker, a.logger, out)
}

// Close releases everything newApp opened, in reverse order
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn(ctx, "failed to close resource", "err", err)
		}
	}
	a.closers = nil
}
