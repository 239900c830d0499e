package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"gossip-results/results"
)

// BucketRow is one finalized network size as stored in Parquet
type BucketRow struct {
	NetworkSize         int32   `parquet:"name=network_size, type=INT32"`
	NeighbourListSize   int32   `parquet:"name=neighbour_list_size, type=INT32"`
	Trials              int32   `parquet:"name=trials, type=INT32"`
	ConsensusMissRate   float64 `parquet:"name=consensus_miss_rate, type=DOUBLE"`
	ConsensusHitRate    float64 `parquet:"name=consensus_hit_rate, type=DOUBLE"`
	MeanConsensusTimeMs float64 `parquet:"name=mean_consensus_time_ms, type=DOUBLE"`
	MeanGossipTimeMs    float64 `parquet:"name=mean_gossip_time_ms, type=DOUBLE"`
	MeanNodesReached    float64 `parquet:"name=mean_nodes_reached, type=DOUBLE"`
	MeanNodesNotReached float64 `parquet:"name=mean_nodes_not_reached, type=DOUBLE"`
	MeanMessagesSent    float64 `parquet:"name=mean_messages_sent, type=DOUBLE"`
	Source              string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProcessedAt         int64   `parquet:"name=processed_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// NewBucketRow flattens a finalized bucket
func NewBucketRow(b *results.StatBucket, origin string, processedAt time.Time) BucketRow {
	return BucketRow{
		NetworkSize:         int32(b.NetworkSize),
		NeighbourListSize:   int32(b.NeighbourListSize),
		Trials:              int32(b.Trials),
		ConsensusMissRate:   b.ConsensusMissRate,
		ConsensusHitRate:    b.ConsensusHitRate,
		MeanConsensusTimeMs: b.MeanConsensusTime,
		MeanGossipTimeMs:    b.MeanGossipTime,
		MeanNodesReached:    b.MeanNodesReached,
		MeanNodesNotReached: b.MeanNodesNotReached,
		MeanMessagesSent:    b.MeanMessagesSent,
		Source:              origin,
		ProcessedAt:         processedAt.UnixMilli(),
	}
}

// ParquetWriter handles writing finalized buckets to Parquet files
type ParquetWriter struct {
	writer    *writer.ParquetWriter
	file      source.ParquetFile
	filePath  string
	batchSize int
	rows      []BucketRow
}

// NewParquetWriter creates a new Parquet writer in outputDir
func NewParquetWriter(outputDir string, batchSize int) (*ParquetWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	timestamp := time.Now().Format("20060102-150405")
	fileName := fmt.Sprintf("gossip-results-%s.parquet", timestamp)
	filePath := filepath.Join(outputDir, fileName)

	file, err := local.NewLocalFileWriter(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(file, new(BucketRow), 1)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	return &ParquetWriter{
		writer:    pw,
		file:      file,
		filePath:  filePath,
		batchSize: batchSize,
		rows:      make([]BucketRow, 0, batchSize),
	}, nil
}

// WriteRow adds a row to the batch and flushes if the batch is full
func (pw *ParquetWriter) WriteRow(row BucketRow) error {
	pw.rows = append(pw.rows, row)
	if len(pw.rows) >= pw.batchSize {
		return pw.flush()
	}
	return nil
}

// WriteBuckets writes every bucket as one row
func (pw *ParquetWriter) WriteBuckets(buckets []*results.StatBucket, origin string) error {
	now := time.Now()
	for _, b := range buckets {
		if err := pw.WriteRow(NewBucketRow(b, origin, now)); err != nil {
			return err
		}
	}
	return nil
}

// flush writes the current batch to the Parquet file
func (pw *ParquetWriter) flush() error {
	for _, row := range pw.rows {
		if err := pw.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	pw.rows = pw.rows[:0]
	return nil
}

// Close flushes any remaining rows and closes the writer
func (pw *ParquetWriter) Close() error {
	if err := pw.flush(); err != nil {
		pw.file.Close()
		return err
	}

	if err := pw.writer.WriteStop(); err != nil {
		pw.file.Close()
		return fmt.Errorf("failed to stop parquet writer: %w", err)
	}

	if err := pw.file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	return nil
}

// FilePath returns the path of the written file
func (pw *ParquetWriter) FilePath() string {
	return pw.filePath
}
