// Command corpusctl publishes extracted sheet records to the record-ingest
// Kafka topic. The extraction pipeline exports one JSON record per line;
// corpusctl groups them by relative path and publishes one FileBatch per
// file, which the search service applies with replace-on-reingest semantics.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/variantdb/sheetsearch/internal/ingest"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/pkg/config"
	"github.com/variantdb/sheetsearch/pkg/kafka"
	"github.com/variantdb/sheetsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inputPath := flag.String("file", "", "JSONL file of extracted records (one record per line)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: corpusctl -file records.jsonl [-config path]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, "text")

	batches, skipped, err := readBatches(*inputPath)
	if err != nil {
		slog.Error("reading records", "file", *inputPath, "error", err)
		os.Exit(1)
	}
	if skipped > 0 {
		slog.Warn("some lines were skipped", "skipped", skipped)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RecordIngest)
	defer producer.Close()

	ctx := context.Background()
	events := make([]kafka.Event, 0, len(batches))
	for _, b := range batches {
		events = append(events, kafka.Event{Key: b.RelativePath, Value: b})
	}
	if err := producer.PublishBatch(ctx, events); err != nil {
		slog.Error("publishing record batches", "error", err)
		os.Exit(1)
	}
	slog.Info("corpus published",
		"files", len(batches),
		"topic", cfg.Kafka.Topics.RecordIngest,
	)
}

// readBatches parses the JSONL export and groups records by relative path.
// Malformed lines and invalid records are skipped, not fatal.
func readBatches(path string) ([]ingest.FileBatch, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	grouped := make(map[string][]record.Record)
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("skipping malformed line", "line", line, "error", err)
			skipped++
			continue
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("skipping invalid record", "line", line, "error", err)
			skipped++
			continue
		}
		grouped[rec.RelativePath] = append(grouped[rec.RelativePath], rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}

	paths := make([]string, 0, len(grouped))
	for p := range grouped {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	batches := make([]ingest.FileBatch, 0, len(paths))
	for _, p := range paths {
		batches = append(batches, ingest.FileBatch{RelativePath: p, Records: grouped[p]})
	}
	return batches, skipped, nil
}
