package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"salesstats/internal/changelog"
	"salesstats/internal/config"
	"salesstats/internal/logger"
	"salesstats/internal/manifest"
	"salesstats/internal/metrics"
	"salesstats/internal/model"
	"salesstats/internal/restore"
	"salesstats/internal/service"
	"salesstats/internal/source"
	"salesstats/internal/state"
)

// app holds everything the subcommands share.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Registry

	store     state.Store
	fileClog  *changelog.FileWriter
	kafkaClog *changelog.KafkaWriter
	clog      changelog.Writer

	publisher manifest.Publisher
	reader    manifest.Reader

	synth *model.Synthesizer
	stats *service.Stats

	closers []func() error
}

func newApp(cfgPath string, console io.Writer) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.File, console)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, metrics: metrics.NewRegistry()}

	if err := a.openStore(); err != nil {
		return nil, err
	}
	if err := a.openChangelog(); err != nil {
		a.Close()
		return nil, err
	}
	a.openManifest()
	if err := a.restore(); err != nil {
		a.Close()
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.synth = model.NewSynthesizer(rand.New(rand.NewSource(seed)), a.store, a.clog)
	a.stats = service.New(a.fetcher(), a.synth, a.metrics, log)
	return a, nil
}

func (a *app) openStore() error {
	sc := a.cfg.State
	switch sc.Backend {
	case "pebble":
		st, err := state.NewPebbleStore(sc.Dir)
		if err != nil {
			return fmt.Errorf("open pebble ledger: %w", err)
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	case "badger":
		st, err := state.NewBadgerStore(sc.Dir)
		if err != nil {
			return fmt.Errorf("open badger ledger: %w", err)
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	default:
		a.store = state.NewInMemoryStore()
	}
	a.log.WithField("backend", sc.Backend).Info("date ledger opened")
	return nil
}

func (a *app) openChangelog() error {
	cc := a.cfg.Changelog
	var writers []changelog.Writer
	if cc.UsesFile() {
		fw, err := changelog.NewFileWriter(cc.Dir, changelog.FileName)
		if err != nil {
			return fmt.Errorf("open changelog: %w", err)
		}
		a.fileClog = fw
		writers = append(writers, fw)
	}
	if cc.UsesKafka() {
		kw := changelog.NewKafkaWriter(cc.KafkaBootstrap, cc.Topic)
		a.kafkaClog = kw
		a.closers = append(a.closers, kw.Close)
		writers = append(writers, kw)
	}
	switch len(writers) {
	case 0:
		return nil
	case 1:
		a.clog = changelog.Counted(writers[0], a.metrics.ChangelogAppended.Inc)
	default:
		a.clog = changelog.Counted(changelog.NewMultiWriter(writers...), a.metrics.ChangelogAppended.Inc)
	}
	return nil
}

func (a *app) openManifest() {
	cc := a.cfg.Changelog
	fsm := manifest.NewFilesystemManifest(a.cfg.State.SnapshotDir)
	a.publisher = fsm
	a.reader = fsm
	if cc.UsesKafka() {
		a.publisher = manifest.MultiPublisher(fsm, manifest.NewKafkaManifest(cc.KafkaBootstrap, cc.ManifestTopic, manifest.DefaultKey))
		if !cc.UsesFile() {
			a.reader = restore.NewKafkaReader(changelog.SplitBrokers(cc.KafkaBootstrap), cc.ManifestTopic, manifest.DefaultKey)
		}
	}
}

// restore rebuilds an in-memory ledger from the latest snapshot and the
// changelog tail. Pebble and Badger ledgers are durable on their own.
func (a *app) restore() error {
	if a.cfg.State.Backend != "memory" {
		return nil
	}
	cc := a.cfg.Changelog
	r := restore.NewRestorer(a.store, a.reader, a.cfg.State.SnapshotDir, a.changelogPath(), a.log)
	if cc.Sink != "kafka" {
		_, err := r.RestoreAndReplay()
		return err
	}

	m, err := a.reader.ReadLatest()
	if err != nil {
		a.log.WithError(err).Info("no manifest, replaying full changelog")
		m = manifest.Manifest{}
	}
	loaded, err := r.RestoreFromSnapshot(m.SnapshotID)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	res := r.ReplayChangelogKafka(changelog.SplitBrokers(cc.KafkaBootstrap), cc.Topic, m.LastChangelogOffset)
	if res.Error != nil {
		return fmt.Errorf("replay changelog: %w", res.Error)
	}
	a.log.WithFields(logrus.Fields{"loaded": loaded, "applied": res.Applied, "skipped": res.Skipped}).Info("date ledger restored")
	return nil
}

func (a *app) changelogPath() string {
	return filepath.Join(a.cfg.Changelog.Dir, changelog.FileName)
}

func (a *app) fetcher() source.Fetcher {
	if a.cfg.Source.Kind == "file" {
		return source.NewFileSource(a.cfg.Source.Path)
	}
	return source.NewHTTPSource(a.cfg.Source.URL, a.cfg.Source.Timeout)
}

// changelogOffset is the position the next snapshot covers up to. Only the
// file changelog has a cheap line count; Kafka-only setups replay from the
// start, which first-wins assignment makes safe.
func (a *app) changelogOffset() (int64, error) {
	if a.fileClog == nil {
		return 0, nil
	}
	return a.fileClog.Lines()
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
