package cmd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/feed"
	"github.com/matheuskafuri/dropwatch/internal/logging"
	"github.com/matheuskafuri/dropwatch/internal/metrics"
	"github.com/matheuskafuri/dropwatch/internal/monitor"
	"github.com/matheuskafuri/dropwatch/internal/notify"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

// env is everything a command needs to run a scan cycle.
type env struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *store.Store
	dbPath    string
	metrics   *metrics.Metrics
	annotator annotate.Annotator
	monitor   *monitor.Monitor
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}

func openStore() (*store.Store, string, error) {
	dbPath := config.DataPath()
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening store: %w", err)
	}
	return db, dbPath, nil
}

// newEnv loads config and wires the store, annotator, notifiers and monitor.
func newEnv() (*env, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, dbPath, err := openStore()
	if err != nil {
		return nil, err
	}

	ann, err := annotate.New(cfg.Annotator, cfg.AnnotatorKey())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating annotator: %w", err)
	}

	m := metrics.New()
	notifiers := notify.FromConfig(cfg)
	if len(notifiers) == 0 {
		log.Info("no notification channels configured")
	}
	alerter := notify.NewManager(cfg.GetMinConfidence(), log.Named("notify"), m, notifiers...)

	mon := monitor.New(monitor.Options{
		Fetcher:      feed.NewRSSFetcher(cfg.MaxAgeDuration()),
		Sources:      cfg.EnabledSources(),
		Store:        db,
		Annotator:    ann,
		Classifier:   classify.New(cfg.Keywords),
		Alerter:      alerter,
		Workers:      cfg.GetWorkers(),
		MaxAge:       cfg.MaxAgeDuration(),
		PreserveCase: cfg.PreserveCase,
		Logger:       log,
		Metrics:      m,
	})

	return &env{
		cfg:       cfg,
		log:       log,
		db:        db,
		dbPath:    dbPath,
		metrics:   m,
		annotator: ann,
		monitor:   mon,
	}, nil
}

func (e *env) Close() error {
	return errors.Join(
		annotate.Close(e.annotator),
		e.db.Close(),
		logging.Sync(e.log),
	)
}
