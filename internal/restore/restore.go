package restore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"salesstats/internal/changelog"
	"salesstats/internal/manifest"
	"salesstats/internal/snapshot"
	"salesstats/internal/state"
)

// Restorer rebuilds the date ledger from the latest snapshot plus the changelog tail.
type Restorer struct {
	stateStore      state.Store
	manifestReader  manifest.Reader
	snapshotBaseDir string
	changelogPath   string
	log             logrus.FieldLogger
}

// KafkaReader reads latest manifest record from a compacted Kafka topic.
type KafkaReader struct {
	brokers []string
	topic   string
	key     []byte
	timeout time.Duration
}

func NewKafkaReader(brokers []string, topic string, key string) *KafkaReader {
	return &KafkaReader{brokers: brokers, topic: topic, key: []byte(key), timeout: 10 * time.Second}
}

func (k *KafkaReader) ReadLatest() (manifest.Manifest, error) {
	// Read from the beginning and keep the last record seen for the key; the
	// topic is compacted so this stays small.
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.brokers,
		Topic:     k.topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	var last manifest.Manifest
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return manifest.Manifest{}, fmt.Errorf("read kafka: %w", err)
		}
		if string(m.Key) != string(k.key) {
			continue
		}
		var man manifest.Manifest
		if err := json.Unmarshal(m.Value, &man); err != nil {
			return manifest.Manifest{}, fmt.Errorf("unmarshal kafka manifest: %w", err)
		}
		last = man
	}
	if last.SnapshotID == "" {
		return manifest.Manifest{}, fmt.Errorf("no manifest found for key")
	}
	return last, nil
}

func NewRestorer(st state.Store, mr manifest.Reader, snapshotBaseDir, changelogPath string, log logrus.FieldLogger) *Restorer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Restorer{
		stateStore:      st,
		manifestReader:  mr,
		snapshotBaseDir: snapshotBaseDir,
		changelogPath:   changelogPath,
		log:             log.WithField("component", "restore"),
	}
}

type RestoreResult struct {
	Loaded  int
	Applied int
	Skipped int
	Error   error
}

// RestoreFromSnapshot replaces the store with the given snapshot. A missing
// snapshot is not an error; the ledger simply starts empty.
func (r *Restorer) RestoreFromSnapshot(snapshotID string) (int, error) {
	if snapshotID == "" {
		return 0, nil
	}
	path := filepath.Join(r.snapshotBaseDir, snapshotID, snapshot.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.WithField("path", path).Warn("snapshot not found, skipping")
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	var dump map[string]state.Assignment
	if err := json.Unmarshal(data, &dump); err != nil {
		return 0, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := r.stateStore.LoadAll(dump); err != nil {
		return 0, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	r.log.WithFields(logrus.Fields{"keys": len(dump), "snapshot": snapshotID}).Info("loaded snapshot")
	return len(dump), nil
}

func (r *Restorer) apply(d changelog.Delta) (bool, error) {
	applied, _, err := r.stateStore.Assign(d.Key, state.Assignment{DateUnixNano: d.Date, AssignedAt: d.TS})
	return applied, err
}

// ReplayChangelog applies every delta after fromOffset lines. Keys already
// present in the ledger are counted as skipped.
func (r *Restorer) ReplayChangelog(changelogPath string, fromOffset int64) RestoreResult {
	file, err := os.Open(changelogPath)
	if err != nil {
		return RestoreResult{Error: fmt.Errorf("open changelog: %w", err)}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	applied, skipped := 0, 0
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if int64(lineNum) <= fromOffset {
			continue
		}

		var d changelog.Delta
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			return RestoreResult{Error: fmt.Errorf("unmarshal line %d: %w", lineNum, err)}
		}

		ok, err := r.apply(d)
		if err != nil {
			return RestoreResult{Error: fmt.Errorf("apply line %d: %w", lineNum, err)}
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}

	if err := scanner.Err(); err != nil {
		return RestoreResult{Error: fmt.Errorf("scan changelog: %w", err)}
	}

	return RestoreResult{Applied: applied, Skipped: skipped}
}

// ReplayChangelogKafka consumes deltas from Kafka topic (partition 0) and applies them.
// fromOffset here is interpreted as message index.
func (r *Restorer) ReplayChangelogKafka(brokers []string, topic string, fromOffset int64) RestoreResult {
	rd := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer rd.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	applied, skipped := 0, 0
	idx := int64(0)
	for {
		m, err := rd.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return RestoreResult{Applied: applied, Skipped: skipped, Error: fmt.Errorf("read kafka: %w", err)}
		}
		idx++
		if idx <= fromOffset {
			continue
		}
		var d changelog.Delta
		if err := json.Unmarshal(m.Value, &d); err != nil {
			return RestoreResult{Applied: applied, Skipped: skipped, Error: fmt.Errorf("unmarshal delta: %w", err)}
		}
		ok, err := r.apply(d)
		if err != nil {
			return RestoreResult{Applied: applied, Skipped: skipped, Error: fmt.Errorf("apply: %w", err)}
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}
	return RestoreResult{Applied: applied, Skipped: skipped}
}

// RestoreAndReplay loads the latest snapshot named by the manifest and replays
// the file changelog past the manifest offset. With no manifest yet, the whole
// changelog is replayed; with no changelog either, the ledger starts empty.
func (r *Restorer) RestoreAndReplay() (RestoreResult, error) {
	var res RestoreResult
	m, err := r.manifestReader.ReadLatest()
	if err != nil {
		r.log.WithError(err).Info("no manifest, replaying full changelog")
		m = manifest.Manifest{}
	}

	loaded, err := r.RestoreFromSnapshot(m.SnapshotID)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("restore snapshot: %w", err)
	}

	if _, err := os.Stat(r.changelogPath); errors.Is(err, os.ErrNotExist) {
		return RestoreResult{Loaded: loaded}, nil
	}
	res = r.ReplayChangelog(r.changelogPath, m.LastChangelogOffset)
	res.Loaded = loaded
	if res.Error != nil {
		return res, res.Error
	}
	r.log.WithFields(logrus.Fields{"loaded": res.Loaded, "applied": res.Applied, "skipped": res.Skipped}).Info("date ledger restored")
	return res, nil
}
