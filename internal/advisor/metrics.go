package advisor

import (
	"strings"

	"chainsight/internal/domain"
)

// ExtractMetrics scans the user message for mentions of tracked on-chain
// metrics. Returns deduplicated catalog keys. Space-separated forms like
// "realized price" match their underscored catalog key.
func ExtractMetrics(text string) []string {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_')
	})

	seen := make(map[string]bool)
	var result []string
	add := func(key string) {
		if _, ok := domain.MetricByKey[key]; ok && !seen[key] {
			seen[key] = true
			result = append(result, key)
		}
	}
	for i, w := range words {
		add(w)
		if i+1 < len(words) {
			add(w + "_" + words[i+1])
		}
	}
	return result
}
