package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestPublishAndReadLatest(t *testing.T) {
	old := NowUnix
	defer func() { NowUnix = old }()
	NowUnix = func() int64 { return 1700000000 }

	dir := t.TempDir()
	m := NewFilesystemManifest(dir)
	if err := m.PublishLatest("sid-123", 42); err != nil {
		t.Fatalf("PublishLatest error: %v", err)
	}
	got, err := m.ReadLatest()
	if err != nil {
		t.Fatalf("ReadLatest error: %v", err)
	}
	want := Manifest{SnapshotID: "sid-123", LastChangelogOffset: 42, CreatedAtEpochSecond: 1700000000}
	if got != want {
		t.Fatalf("unexpected manifest: %+v", got)
	}
}

func TestReadLatest_Missing(t *testing.T) {
	if _, err := NewFilesystemManifest(t.TempDir()).ReadLatest(); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaManifest_PublishLatest_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	km := NewKafkaManifestWith(fk, DefaultKey)
	if err := km.PublishLatest("sid-abc", 99); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 msg, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != DefaultKey {
		t.Fatalf("bad key: %s", string(fk.msgs[0].Key))
	}
	var m Manifest
	if err := json.Unmarshal(fk.msgs[0].Value, &m); err != nil || m.SnapshotID != "sid-abc" || m.LastChangelogOffset != 99 {
		t.Fatalf("bad payload: %+v err=%v", m, err)
	}
}

func TestKafkaManifest_PublishLatest_Fail(t *testing.T) {
	fk := &fakeKafkaWriter{fail: true}
	km := NewKafkaManifestWith(fk, DefaultKey)
	if err := km.PublishLatest("sid-abc", 99); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMultiPublisher_PublishesToAll(t *testing.T) {
	a, b := &fakeKafkaWriter{}, &fakeKafkaWriter{}
	mp := MultiPublisher(NewKafkaManifestWith(a, "k"), NewKafkaManifestWith(b, "k"))
	if err := mp.PublishLatest("sid", 1); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Fatalf("fan-out mismatch: %d %d", len(a.msgs), len(b.msgs))
	}
}
