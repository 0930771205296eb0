// Package app assembles the directory from configuration. Both the server and the CLI
// start from here so they see the same fallback chain and stores.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"visa-directory/internal/common/aws"
	"visa-directory/internal/common/camunda"
	"visa-directory/internal/common/config"
	"visa-directory/internal/common/database"
	commonhttp "visa-directory/internal/common/http"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/observability"
	"visa-directory/internal/directory"
	"visa-directory/internal/directory/category"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/recordsource"
	"visa-directory/internal/directory/reviews"
	httptransport "visa-directory/internal/transport/http"
	filecomplaint "visa-directory/internal/workers/complaints/file-complaint"
	classifybusinesses "visa-directory/internal/workers/directory/classify-businesses"
	resolveprofile "visa-directory/internal/workers/directory/resolve-profile"
	searchdirectory "visa-directory/internal/workers/directory/search-directory"
	synthesizereviews "visa-directory/internal/workers/directory/synthesize-reviews"
	"visa-directory/pkg/registry"
)

// Options tune how hard New tries to reach the optional backends.
type Options struct {
	ServiceName     string
	ConnectAttempts int
	ConnectDelay    time.Duration
	Observability   bool
}

// App owns every client the directory was built with. Optional backends that could not
// be reached are left nil and the features they back are disabled.
type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Observability *observability.Observability
	Registry      *registry.Registry

	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	S3            *aws.S3Client
	SES           *aws.SESClient
	SNS           *aws.SNSClient

	Chain     *recordsource.Chain
	Loader    *recordsource.Loader
	Directory *directory.Directory

	closers []func() error
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// New connects the configured backends and builds the directory facade.
func New(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*App, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = cfg.App.Name
	}
	if opts.ConnectDelay == 0 {
		opts.ConnectDelay = 2 * time.Second
	}

	a := &App{Config: cfg, Logger: log}
	if opts.Observability {
		a.Observability = observability.New(opts.ServiceName)
	} else {
		a.Observability = observability.Noop()
	}

	buckets := category.CloneBuckets(category.DefaultBuckets)
	if path := cfg.Directory.BucketsPath; path != "" {
		reg, err := registry.LoadRegistry(path)
		if err != nil {
			return nil, fmt.Errorf("load registry %s: %w", path, err)
		}
		a.Registry = reg
		if len(reg.Buckets) > 0 {
			buckets = category.CloneBuckets(reg.Buckets)
		}
	}

	a.connectPostgres(ctx, cfg, opts)
	a.connectRedis(ctx, cfg, opts)
	a.connectElasticsearch(ctx, cfg, opts)
	if err := a.connectAWS(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	sources, err := recordsource.FromConfig(cfg.Directory.Sources, recordsource.Dependencies{
		HTTP:          commonhttp.NewClient(config.GetDuration(cfg.Directory.FetchTimeout)),
		S3:            a.objectGetter(),
		Elasticsearch: a.elasticsearchClient(),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build record sources: %w", err)
	}
	a.Chain = recordsource.NewChain(log, sources...)

	loaderOpts := []recordsource.LoaderOption{
		recordsource.WithTTL(cfg.Directory.CacheTTLDuration()),
		// One pass may try every source in turn.
		recordsource.WithLoadTimeout(time.Duration(len(sources)+1) * config.GetDuration(cfg.Directory.FetchTimeout)),
	}
	if a.Redis != nil {
		loaderOpts = append(loaderOpts, recordsource.WithRedis(a.Redis.GetClient(), cfg.Directory.CacheKey))
	}
	a.Loader = recordsource.NewLoader(a.Chain, log, loaderOpts...)

	deps := directory.Dependencies{Observability: a.Observability}
	if a.Postgres != nil {
		deps.ReviewStore = reviews.NewPostgresStore(a.Postgres.GetDB())
		deps.ComplaintStore = complaints.NewPostgresStore(a.Postgres.GetDB())
	}
	if notifier := a.notifier(); notifier != nil {
		deps.ComplaintNotifier = notifier
	}

	a.Directory = directory.New(a.Loader, directory.Options{
		PageSize:        cfg.Directory.PageSize,
		ReviewFloor:     cfg.Directory.ReviewFloor,
		Buckets:         buckets,
		BasePath:        cfg.Directory.BasePath,
		FallbackToFirst: cfg.Directory.FallbackToFirst,
	}, deps, log)

	log.Info("directory assembled", map[string]interface{}{
		"sources":    a.Chain.Len(),
		"buckets":    len(buckets),
		"postgres":   a.Postgres != nil,
		"redis":      a.Redis != nil,
		"complaints": deps.ComplaintStore != nil,
	})
	return a, nil
}

func (a *App) connectPostgres(ctx context.Context, cfg *config.Config, opts Options) {
	if !cfg.Database.Postgres.Enabled() {
		return
	}
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return pg.EnsureSchema(ctx)
	}, opts.ConnectAttempts, opts.ConnectDelay, a.Logger, "PostgreSQL connection")
	if err != nil {
		a.Logger.Warn("postgres unavailable, complaints and stored reviews disabled", map[string]interface{}{"error": err})
		return
	}
	a.Postgres = pg
	a.closers = append(a.closers, pg.Close)
}

func (a *App) connectRedis(ctx context.Context, cfg *config.Config, opts Options) {
	if cfg.Database.Redis.Address == "" {
		return
	}
	var rc *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return err
		}
		return nil
	}, opts.ConnectAttempts, opts.ConnectDelay, a.Logger, "Redis connection")
	if err != nil {
		a.Logger.Warn("redis unavailable, snapshot cached in process only", map[string]interface{}{"error": err})
		return
	}
	a.Redis = rc
	a.closers = append(a.closers, rc.Close)
}

func (a *App) connectElasticsearch(ctx context.Context, cfg *config.Config, opts Options) {
	if cfg.Database.Elasticsearch.GetURL() == "" {
		return
	}
	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, opts.ConnectAttempts, opts.ConnectDelay, a.Logger, "Elasticsearch connection")
	if err != nil {
		// The source still gets a client; the chain rejects it per request until it recovers.
		a.Logger.Warn("elasticsearch unreachable at startup", map[string]interface{}{"error": err})
		if es == nil {
			return
		}
	}
	a.Elasticsearch = es
}

func (a *App) connectAWS(ctx context.Context, cfg *config.Config) error {
	awsCfg := cfg.Integrations.AWS
	if awsCfg.S3.Enabled {
		s3Client, err := aws.NewS3Client(ctx, awsCfg.Region, awsCfg.S3.Endpoint)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		a.S3 = s3Client
	}
	if awsCfg.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, awsCfg.Region)
		if err != nil {
			return fmt.Errorf("ses: %w", err)
		}
		a.SES = sesClient
	}
	if awsCfg.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, awsCfg.Region)
		if err != nil {
			return fmt.Errorf("sns: %w", err)
		}
		a.SNS = snsClient
	}
	return nil
}

// objectGetter keeps a disabled S3 integration a nil interface rather than a typed nil.
func (a *App) objectGetter() recordsource.ObjectGetter {
	if a.S3 == nil {
		return nil
	}
	return a.S3
}

func (a *App) elasticsearchClient() *elasticsearch.Client {
	if a.Elasticsearch == nil {
		return nil
	}
	return a.Elasticsearch.Client
}

func (a *App) notifier() complaints.Notifier {
	var email complaints.EmailSender
	var publisher complaints.Publisher
	if a.SES != nil {
		email = a.SES
	}
	if a.SNS != nil {
		publisher = a.SNS
	}
	if email == nil && publisher == nil {
		return nil
	}
	ses := a.Config.Integrations.AWS.SES
	return complaints.NewAWSNotifier(email, ses.FromEmail, ses.ModerationEmail, publisher, a.Config.Integrations.AWS.SNS.TopicARN)
}

// Checks returns the readiness checks for the backends that are connected.
func (a *App) Checks() map[string]httptransport.ReadinessCheck {
	checks := map[string]httptransport.ReadinessCheck{}
	if a.Postgres != nil {
		checks["postgres"] = a.Postgres.Ping
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	if a.Elasticsearch != nil {
		checks["elasticsearch"] = a.Elasticsearch.Ping
	}
	return checks
}

// Workers lists the job worker registrations enabled in the configuration. Registry
// entries override the configured timeout and concurrency.
func (a *App) Workers() []camunda.Registration {
	cfg := a.Config
	candidates := []struct {
		taskType string
		build    func(timeout time.Duration) camunda.JobHandler
	}{
		{searchdirectory.TaskType, func(timeout time.Duration) camunda.JobHandler {
			return searchdirectory.NewHandler(&searchdirectory.Config{Timeout: timeout}, a.Directory, a.Logger)
		}},
		{resolveprofile.TaskType, func(timeout time.Duration) camunda.JobHandler {
			return resolveprofile.NewHandler(&resolveprofile.Config{Timeout: timeout}, a.Directory, a.Logger)
		}},
		{synthesizereviews.TaskType, func(timeout time.Duration) camunda.JobHandler {
			return synthesizereviews.NewHandler(&synthesizereviews.Config{Timeout: timeout, ReviewFloor: cfg.Directory.ReviewFloor}, a.Logger)
		}},
		{classifybusinesses.TaskType, func(timeout time.Duration) camunda.JobHandler {
			return classifybusinesses.NewHandler(&classifybusinesses.Config{Timeout: timeout}, a.Directory, a.Logger)
		}},
		{filecomplaint.TaskType, func(timeout time.Duration) camunda.JobHandler {
			return filecomplaint.NewHandler(&filecomplaint.Config{Timeout: timeout}, a.Directory, a.Logger)
		}},
	}

	regs := make([]camunda.Registration, 0, len(candidates))
	for _, c := range candidates {
		if !config.IsWorkerEnabled(cfg, c.taskType) {
			a.Logger.Info("worker disabled", map[string]interface{}{"taskType": c.taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, c.taskType)
		timeout := config.GetDuration(wcfg.Timeout)
		maxJobs := wcfg.MaxJobsActive
		if a.Registry != nil {
			if activity, ok := a.Registry.Find(c.taskType); ok {
				if d, err := activity.TimeoutDuration(); err == nil && d > 0 {
					timeout = d
				}
				if activity.MaxJobsActive > 0 {
					maxJobs = activity.MaxJobsActive
				}
			}
		}
		regs = append(regs, camunda.Registration{
			TaskType:      c.taskType,
			MaxJobsActive: maxJobs,
			Timeout:       timeout,
			Handler:       c.build(timeout),
		})
	}
	return regs
}

// Close releases the connected backends and flushes telemetry.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", map[string]interface{}{"error": err})
		}
	}
	a.closers = nil
	a.Observability.Shutdown()
}
