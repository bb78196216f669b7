package changelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/kafka-go"
)

// FileName is the changelog file written inside the changelog directory.
const FileName = "dates.jsonl"

// Delta records one synthesized date assignment.
type Delta struct {
	Key  string `json:"key"`  // order id
	Date int64  `json:"date"` // unix nanos
	TS   int64  `json:"ts"`
}

type Writer interface {
	Append(d Delta) error
}

// MultiWriter fans out writes to multiple underlying writers.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) Append(d Delta) error {
	for _, w := range m.writers {
		if err := w.Append(d); err != nil {
			return err
		}
	}
	return nil
}

// Counted calls onAppend after every successful append to w.
func Counted(w Writer, onAppend func()) Writer {
	return &countedWriter{w: w, onAppend: onAppend}
}

type countedWriter struct {
	w        Writer
	onAppend func()
}

func (c *countedWriter) Append(d Delta) error {
	if err := c.w.Append(d); err != nil {
		return err
	}
	c.onAppend()
	return nil
}

type FileWriter struct {
	path string
}

func NewFileWriter(dir string, filename string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FileWriter{path: filepath.Join(dir, filename)}, nil
}

// Path returns the JSONL file backing the writer.
func (w *FileWriter) Path() string { return w.path }

func (w *FileWriter) Append(d Delta) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(&d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Lines returns the number of deltas written so far. A missing file counts as zero.
func (w *FileWriter) Lines() (int64, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	var n int64
	s := bufio.NewScanner(f)
	for s.Scan() {
		n++
	}
	if err := s.Err(); err != nil {
		return 0, fmt.Errorf("scan: %w", err)
	}
	return n, nil
}

// KafkaWriter publishes deltas to a Kafka topic. Pure-Go client (segmentio/kafka-go).
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// SplitBrokers turns a comma-separated bootstrap list into broker addresses.
func SplitBrokers(bootstrap string) []string {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}

// NewKafkaWriter creates a Kafka writer.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaWriter(bootstrap string, topic string) *KafkaWriter {
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(SplitBrokers(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// Close flushes and closes the underlying kafka.Writer, if any.
func (k *KafkaWriter) Close() error {
	if c, ok := k.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (k *KafkaWriter) Append(d Delta) error {
	b, err := json.Marshal(&d)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(
		context.Background(),
		kafka.Message{Key: []byte(d.Key), Value: b},
	)
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}
