package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/social-collector/internal/domain"
)

func sampleRecords() []domain.Record {
	t0 := time.Date(2023, 11, 2, 14, 30, 0, 0, time.UTC)
	return []domain.Record{
		{
			SourcePlatform: domain.PlatformReddit,
			RecordID:       "abc",
			RecordKind:     domain.KindPost,
			AuthoredAt:     t0,
			Text:           "Ceasefire talks resume",
			AuthorRef:      "u_1111",
			Engagement:     map[string]int64{"score": 420, "comments": 57},
			OriginQuery:    "worldnews",
		},
		{
			SourcePlatform: domain.PlatformTelegram,
			RecordID:       "GazaNow/104",
			RecordKind:     domain.KindMessage,
			AuthoredAt:     t0.Add(-26 * time.Hour),
			Text:           "Breaking news",
			AuthorRef:      "u_2222",
			Engagement:     map[string]int64{"views": 12500},
			OriginQuery:    "GazaNow",
		},
	}
}

func writeNDJSON(t *testing.T, recs []domain.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.ndjson")

	input := make(chan domain.Record, len(recs))
	for _, r := range recs {
		input <- r
	}
	close(input)

	w := &WriterService{FilePath: path, SyncEvery: 1}
	var wg sync.WaitGroup
	wg.Add(1)
	go w.Start(&wg, input)
	wg.Wait()

	require.Equal(t, len(recs), w.Written())
	return path
}

func TestWriterProducesNDJSON(t *testing.T) {
	recs := sampleRecords()
	path := writeNDJSON(t, recs)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []domain.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 2)
	assert.Equal(t, recs[0].RecordID, got[0].RecordID)
	assert.Equal(t, recs[0].Engagement, got[0].Engagement)
	assert.Equal(t, recs[1].AuthoredAt, got[1].AuthoredAt)
}

func TestWriterAppendsAcrossRuns(t *testing.T) {
	recs := sampleRecords()
	path := writeNDJSON(t, recs[:1])

	input := make(chan domain.Record, 1)
	input <- recs[1]
	close(input)

	w := &WriterService{FilePath: path}
	var wg sync.WaitGroup
	wg.Add(1)
	go w.Start(&wg, input)
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"abc"`)
	assert.Contains(t, string(data), `"GazaNow/104"`)
}

func TestExportCSV(t *testing.T) {
	ndjson := writeNDJSON(t, sampleRecords())
	csvPath := filepath.Join(filepath.Dir(ndjson), "out.csv")

	n, err := ExportCSV(ndjson, csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "reddit", rows[1][0])
	assert.Equal(t, "420", rows[1][7], "score promoted to its own column")
	assert.Equal(t, "0", rows[2][7], "telegram has no score counter")
	assert.Contains(t, rows[2][8], `"views":12500`)
}

func TestBuildSummary(t *testing.T) {
	ndjson := writeNDJSON(t, sampleRecords())

	s, err := BuildSummary(ndjson)
	require.NoError(t, err)

	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 2, s.TotalRecords)
	assert.Equal(t, map[string]int{"reddit": 1, "telegram": 1}, s.ByPlatform)
	assert.Equal(t, map[string]int{"post": 1, "message": 1}, s.ByKind)
	assert.Equal(t, 2, s.UniqueAuthors)
	assert.Equal(t, 2, s.UniqueOrigins)
	require.NotNil(t, s.Earliest)
	require.NotNil(t, s.Latest)
	assert.True(t, s.Earliest.Before(*s.Latest))

	path := filepath.Join(filepath.Dir(ndjson), "summary.json")
	require.NoError(t, WriteSummary(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.TotalRecords, back.TotalRecords)
}
