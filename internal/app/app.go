// Package app wires configuration into the running system: the contact
// store backend, the mail transport, the run lease, the report archive and
// lead capture. The CLI and the HTTP trigger both run through it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/leads"
	"github.com/ignite/campus-outreach/internal/outreach"
	"github.com/ignite/campus-outreach/internal/pkg/distlock"
	"github.com/ignite/campus-outreach/internal/pkg/httpretry"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
	"github.com/ignite/campus-outreach/internal/repository/sqlstore"
	"github.com/ignite/campus-outreach/internal/ses"
	"github.com/ignite/campus-outreach/internal/storage"
)

// ErrUnknownStorage is returned for an unsupported storage.type.
var ErrUnknownStorage = errors.New("unknown storage type")

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	Store  contacts.Store   // replaces the configured backend
	Sender outreach.Sender  // replaces SES
	Pacer  outreach.Pacer   // replaces the configured send delay
	Now    func() time.Time // clock for runs and send timestamps
	Logger *logger.Logger
}

// App owns every long-lived client.
type App struct {
	cfg     *config.Config
	store   contacts.Store
	db      *sql.DB
	redis   *redis.Client
	archive *storage.ReportArchive
	leads   *leads.Capturer
	log     *logger.Logger
	pacer   outreach.Pacer
	now     func() time.Time

	senderMu sync.Mutex
	sender   outreach.Sender

	closers []func() error
}

// New connects the configured backends.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg, log: opts.Logger, pacer: opts.Pacer, now: opts.Now, sender: opts.Sender}
	if a.log == nil {
		a.log = logger.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}

	if opts.Store != nil {
		a.store = opts.Store
	} else if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.Redis.URL != "" {
		ropts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(ropts)
		a.closers = append(a.closers, a.redis.Close)
	}

	if cfg.Reports.Bucket != "" {
		archive, err := storage.NewS3ReportArchive(ctx, cfg.Reports.Bucket, storage.AWSOptions{
			Region:  cfg.Reports.Region,
			Profile: cfg.Storage.GetAWSProfile(),
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.archive = archive
	}

	a.leads = a.newCapturer()
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	st := a.cfg.Storage
	switch strings.ToLower(st.Type) {
	case "dynamodb":
		store, err := storage.NewDynamoContactStore(ctx, st.DynamoDBTable, storage.AWSOptions{
			Region:  st.AWSRegion,
			Profile: st.GetAWSProfile(),
		})
		if err != nil {
			return err
		}
		a.store = store.WithLogger(a.log)
	case "postgres":
		repo, err := sqlstore.OpenPostgres(ctx, st.DatabaseURL)
		if err != nil {
			return err
		}
		a.store, a.db = repo, repo.DB()
		a.closers = append(a.closers, repo.Close)
	case "sqlite":
		repo, err := sqlstore.OpenSQLite(ctx, st.SQLitePath)
		if err != nil {
			return err
		}
		a.store = repo
		a.closers = append(a.closers, repo.Close)
	case "memory":
		a.store = contacts.NewMemoryStore()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, st.Type)
	}
	a.log.Info("contact store ready", "type", st.Type)
	return nil
}

func (a *App) newCapturer() *leads.Capturer {
	sc := a.cfg.Search
	pages := httpretry.NewRetryClient(&http.Client{Timeout: sc.Timeout()}, 1, httpretry.WithUserAgent(sc.UserAgent))

	var search leads.SearchProvider
	if sc.GoogleAPIKey != "" && sc.GoogleCX != "" {
		api := httpretry.NewRetryClient(&http.Client{Timeout: sc.Timeout()}, sc.MaxRetries)
		search = leads.NewGoogleSearch(api, sc.BaseURL, sc.GoogleAPIKey, sc.GoogleCX, sc.Timeout())
	} else {
		a.log.Warn("GOOGLE_API_KEY or GOOGLE_CX missing, lead capture limited to feeds")
	}

	return leads.NewCapturer(a.store, a.cfg, search,
		leads.NewHTTPFetcher(pages, sc.UserAgent, sc.Timeout()),
		leads.WithFeeds(leads.NewFeedSearch(&http.Client{Timeout: sc.Timeout()}, sc.UserAgent, sc.Timeout())),
		leads.WithFallbackResults(sc.FallbackResults),
		leads.WithLogger(a.log),
		leads.WithClock(a.now),
	)
}

// senderFor builds the mail transport on first use so commands that never
// send do not need FROM_EMAIL.
func (a *App) senderFor(ctx context.Context) (outreach.Sender, error) {
	a.senderMu.Lock()
	defer a.senderMu.Unlock()
	if a.sender != nil {
		return a.sender, nil
	}
	if a.cfg.SES.DryRun {
		a.sender = ses.NewDryRunSender(a.log)
		return a.sender, nil
	}
	s, err := ses.New(ctx, a.cfg.SES, a.cfg.Email, a.log)
	if err != nil {
		return nil, err
	}
	a.sender = s
	return a.sender, nil
}

func (a *App) lockFor(key string) distlock.DistLock {
	return distlock.NewLock(a.redis, a.db, key, a.cfg.Redis.LockTTL())
}

// Engine builds the outreach engine for a sequence. An empty key selects
// the default sequence.
func (a *App) Engine(ctx context.Context, sequence string) (*outreach.Engine, error) {
	if err := a.cfg.ValidateOutreach(); err != nil {
		return nil, err
	}
	sender, err := a.senderFor(ctx)
	if err != nil {
		return nil, err
	}
	deps := outreach.Deps{
		Store:  a.store,
		Sender: sender,
		Lock:   a.lockFor,
		Pacer:  a.pacer,
		Logger: a.log,
		Now:    a.now,
	}
	if a.archive != nil {
		deps.Archive = a.archive
	}
	return outreach.NewEngine(a.cfg, sequence, deps)
}

// RunOutreach runs the daily pass for one sequence.
func (a *App) RunOutreach(ctx context.Context, sequence string) (domain.RunResult, error) {
	e, err := a.Engine(ctx, sequence)
	if err != nil {
		return domain.RunResult{Kind: domain.RunOutreach, Campaign: sequence, Message: err.Error()}, err
	}
	return e.RunDaily(ctx, a.now())
}

// RunReplies builds and mails the reply stats report.
func (a *App) RunReplies(ctx context.Context, sequence string) (domain.ReplyStats, error) {
	e, err := a.Engine(ctx, sequence)
	if err != nil {
		return domain.ReplyStats{Message: err.Error()}, err
	}
	return e.RunReplyStats(ctx, a.now())
}

// RunCapture runs lead capture for one campaign.
func (a *App) RunCapture(ctx context.Context, campaign string) (domain.CaptureResult, error) {
	return a.leads.Run(ctx, campaign)
}

// CampaignKeys lists the lead capture campaigns.
func (a *App) CampaignKeys() []string { return a.cfg.CampaignKeys() }

// SequenceKeys lists the outreach sequences.
func (a *App) SequenceKeys() []string { return a.cfg.SequenceKeys() }

// Store returns the contact store.
func (a *App) Store() contacts.Store { return a.store }

// DB returns the SQL handle when the store is PostgreSQL.
func (a *App) DB() *sql.DB { return a.db }

// Redis returns the lease client, or nil.
func (a *App) Redis() *redis.Client { return a.redis }

// Archive returns the report archive, or nil.
func (a *App) Archive() *storage.ReportArchive { return a.archive }

// Close releases every client in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
