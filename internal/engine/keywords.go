package engine

import "strings"

// matchKeywords does a case-insensitive substring match of any keyword
// against the record text. An empty keyword set means no filter.
func matchKeywords(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			hits = append(hits, k)
		}
	}
	return hits
}
