package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/chainbook/internal/store/postgres"
)

// SettlementSource provides read access to settled payout rows for archival
// purposes. The Postgres SettlementStore satisfies it.
type SettlementSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]postgres.Settlement, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver pages old settlement rows out of the read model into blob
// storage as JSONL documents. Rows are deleted from the primary store only
// after a successful upload.
type Archiver struct {
	writer      *Writer
	settlements SettlementSource
}

// NewArchiver creates an Archiver over the given writer and source.
func NewArchiver(writer *Writer, settlements SettlementSource) *Archiver {
	return &Archiver{writer: writer, settlements: settlements}
}

// ArchiveResult summarises one archive run.
type ArchiveResult struct {
	Path    string
	Rows    int
	Deleted int64
}

// ArchiveBefore archives every settlement older than the cutoff and then
// removes the archived rows. A run with nothing to archive uploads nothing.
func (a *Archiver) ArchiveBefore(ctx context.Context, cutoff time.Time) (ArchiveResult, error) {
	rows, err := a.settlements.ListBefore(ctx, cutoff)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("s3blob: archive list: %w", err)
	}
	if len(rows) == 0 {
		return ArchiveResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return ArchiveResult{}, fmt.Errorf("s3blob: encode settlement %d: %w", row.ID, err)
		}
	}

	path := fmt.Sprintf("settlements/%s.jsonl", cutoff.UTC().Format("2006-01-02T15-04-05"))
	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return ArchiveResult{}, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	deleted, err := a.settlements.DeleteBefore(ctx, cutoff)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("s3blob: archive prune: %w", err)
	}

	return ArchiveResult{Path: path, Rows: len(rows), Deleted: deleted}, nil
}
