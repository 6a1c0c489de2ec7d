package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/qepting91/social-collector/internal/domain"
)

var csvHeader = []string{
	"source_platform", "record_id", "record_kind", "authored_at",
	"text", "author_ref", "origin_query", "score", "engagement_json",
}

// ExportCSV reads the NDJSON file and writes a flattened CSV alongside it.
// The open engagement map keeps its full shape in engagement_json; "score"
// is promoted as the most commonly queried counter.
func ExportCSV(ndjsonPath, csvPath string) (int, error) {
	in, err := os.Open(ndjsonPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(csvPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return 0, err
	}

	n := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var rec domain.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		engagement, _ := json.Marshal(rec.Engagement)
		row := []string{
			string(rec.SourcePlatform),
			rec.RecordID,
			string(rec.RecordKind),
			rec.AuthoredAt.Format(time.RFC3339),
			rec.Text,
			rec.AuthorRef,
			rec.OriginQuery,
			strconv.FormatInt(rec.Engagement["score"], 10),
			string(engagement),
		}
		if err := w.Write(row); err != nil {
			return n, err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read %s: %w", ndjsonPath, err)
	}
	w.Flush()
	return n, w.Error()
}
