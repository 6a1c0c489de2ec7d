package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/qepting91/social-collector/internal/domain"
)

// WriterService drains the record channel into an NDJSON file. Single
// goroutine owns the file handle, so no locking around writes.
type WriterService struct {
	FilePath string
	// SyncEvery forces an fsync after every N records; 0 disables.
	SyncEvery int
	Logger    *slog.Logger

	written int
}

func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan domain.Record) {
	defer wg.Done()
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(w.FilePath), 0o755); err != nil {
		log.Error("Output dir create failed", "err", err)
		return
	}
	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Error("Output open failed", "path", w.FilePath, "err", err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for rec := range input {
		// Write as NDJSON
		if err := enc.Encode(rec); err != nil {
			log.Error("Record write failed", "id", rec.RecordID, "err", err)
			continue
		}
		w.written++
		if w.SyncEvery > 0 && w.written%w.SyncEvery == 0 {
			f.Sync()
		}
	}
	log.Info("Writer finished", "records", w.written, "path", w.FilePath)
}

// Written is the number of records persisted. Read after Start returns.
func (w *WriterService) Written() int { return w.written }
