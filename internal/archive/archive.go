package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/groundsql/groundsql/internal/nl2sql"
	"github.com/groundsql/groundsql/internal/storage"
)

const contentType = "application/vnd.apache.parquet"

// Record is one archived generation run.
type Record struct {
	RunID           string `parquet:"run_id"`
	Question        string `parquet:"question"`
	Strategy        string `parquet:"strategy"`
	SQL             string `parquet:"sql"`
	Success         bool   `parquet:"success"`
	ErrorMessage    string `parquet:"error_message"`
	Attempts        int64  `parquet:"attempts"`
	DurationMs      int64  `parquet:"duration_ms"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
}

func NewRecord(question string, result nl2sql.Result, createdAt time.Time) Record {
	return Record{
		RunID:           uuid.NewString(),
		Question:        question,
		Strategy:        result.Strategy,
		SQL:             result.SQL,
		Success:         result.Success,
		ErrorMessage:    result.ErrorMessage,
		Attempts:        int64(result.Attempts),
		DurationMs:      result.Elapsed.Milliseconds(),
		CreatedAtUnixMs: createdAt.UTC().UnixMilli(),
	}
}

type Archiver struct {
	Store storage.ObjectStore
}

// Write encodes records into a single parquet object and returns its key.
func (a *Archiver) Write(ctx context.Context, records []Record) (storage.ObjectInfo, error) {
	if a.Store == nil {
		return storage.ObjectInfo{}, fmt.Errorf("archive object store is required")
	}
	if len(records) == 0 {
		return storage.ObjectInfo{}, fmt.Errorf("records are required")
	}

	first := records[0]
	key, err := storage.BuildRunArchivePath(time.UnixMilli(first.CreatedAtUnixMs), first.RunID)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	data, err := Encode(records)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := a.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("archive runs: %w", err)
	}
	if info.Key == "" {
		info.Key = key
	}
	return info, nil
}

// Read loads every record stored under key.
func (a *Archiver) Read(ctx context.Context, key string) ([]Record, error) {
	if a.Store == nil {
		return nil, fmt.Errorf("archive object store is required")
	}
	body, err := a.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read archive %q: %w", key, err)
	}
	return Decode(data)
}

func Encode(records []Record) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Record](buf)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) ([]Record, error) {
	reader := parquet.NewGenericReader[Record](bytes.NewReader(data))
	defer func() { _ = reader.Close() }()

	records := make([]Record, reader.NumRows())
	count, err := reader.Read(records)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return records[:count], nil
}
