package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Target is one row of a per-platform target list: an identifier (channel,
// subreddit, keyword query, channel ID) plus an optional record ceiling
// overriding the platform default.
type Target struct {
	Identifier string
	MaxRecords int
}

// Validation patterns per input flavor. Fail-soft: rows that do not match
// are skipped, not fatal.
var (
	subredditRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)
	channelRegex   = regexp.MustCompile(`^[A-Za-z0-9_]{4,32}$`)
)

// LoadSubreddits reads input/subreddits.csv (name,max_records).
func LoadSubreddits(path string) ([]Target, error) {
	return loadTargets(path, subredditRegex)
}

// LoadChannels reads a telegram channel list (name,max_records).
func LoadChannels(path string) ([]Target, error) {
	return loadTargets(path, channelRegex)
}

// LoadQueries reads free-form targets (twitter queries, youtube channel
// IDs); anything non-empty is accepted.
func LoadQueries(path string) ([]Target, error) {
	return loadTargets(path, nil)
}

func loadTargets(path string, valid *regexp.Regexp) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var targets []Target
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 {
			continue // Skip header
		}
		if len(record) == 0 {
			continue
		}

		// Validation (Fail-Soft)
		id := strings.TrimSpace(record[0])
		if id == "" {
			continue
		}
		if valid != nil && !valid.MatchString(id) {
			continue
		}

		max := 0
		if len(record) > 1 {
			max, _ = strconv.Atoi(strings.TrimSpace(record[1]))
		}

		targets = append(targets, Target{Identifier: id, MaxRecords: max})
	}
	return targets, nil
}

// LoadKeywords reads a one-column keyword list, lowercased.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1
	var kws []string
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if line > 0 && len(rec) > 0 {
			if kw := strings.ToLower(strings.TrimSpace(rec[0])); kw != "" {
				kws = append(kws, kw)
			}
		}
		line++
	}
	return kws, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
