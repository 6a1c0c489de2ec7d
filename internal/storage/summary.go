package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/qepting91/social-collector/internal/domain"
)

// Summary is the run report written next to the collected data.
type Summary struct {
	RunID          string         `json:"run_id"`
	CollectionDate time.Time      `json:"collection_date"`
	TotalRecords   int            `json:"total_records"`
	ByPlatform     map[string]int `json:"by_platform"`
	ByKind         map[string]int `json:"by_kind"`
	UniqueAuthors  int            `json:"unique_authors"`
	UniqueOrigins  int            `json:"unique_origins"`
	Earliest       *time.Time     `json:"earliest,omitempty"`
	Latest         *time.Time     `json:"latest,omitempty"`
}

// BuildSummary scans the NDJSON output and aggregates the run report.
func BuildSummary(ndjsonPath string) (*Summary, error) {
	f, err := os.Open(ndjsonPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Summary{
		RunID:          uuid.NewString(),
		CollectionDate: time.Now().UTC(),
		ByPlatform:     make(map[string]int),
		ByKind:         make(map[string]int),
	}
	authors := make(map[string]struct{})
	origins := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var rec domain.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		s.TotalRecords++
		s.ByPlatform[string(rec.SourcePlatform)]++
		s.ByKind[string(rec.RecordKind)]++
		authors[rec.AuthorRef] = struct{}{}
		origins[rec.OriginQuery] = struct{}{}
		ts := rec.AuthoredAt
		if s.Earliest == nil || ts.Before(*s.Earliest) {
			s.Earliest = &ts
		}
		if s.Latest == nil || ts.After(*s.Latest) {
			s.Latest = &ts
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s.UniqueAuthors = len(authors)
	s.UniqueOrigins = len(origins)
	return s, nil
}

// WriteSummary persists the report as indented JSON.
func WriteSummary(s *Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
