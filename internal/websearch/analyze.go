package websearch

import (
	"sort"
	"strings"
)

const (
	summarySentences = 3
	summaryMaxChars  = 500
	maxKeyPoints     = 5
)

// Analysis is the keyword pass over one fetched page.
type Analysis struct {
	Summary        string
	KeyPoints      []string
	RelevanceScore float64
}

// Analyze scores content against the query with a saturating term-frequency
// heuristic: score = min(1.0, occurrences / (terms * 10)). Key points are the
// top 5 sentences by term occurrence; the summary is the first 3 sentences
// truncated to 500 characters.
func Analyze(content, query string) Analysis {
	if content == "" {
		return Analysis{KeyPoints: []string{}}
	}

	terms := strings.Fields(strings.ToLower(query))
	contentLower := strings.ToLower(content)

	termFrequency := 0
	for _, term := range terms {
		termFrequency += strings.Count(contentLower, term)
	}
	score := 0.0
	if len(terms) > 0 {
		score = float64(termFrequency) / float64(len(terms)*10)
		if score > 1.0 {
			score = 1.0
		}
	}

	sentences := splitSentences(content)

	type scored struct {
		score    int
		sentence string
	}
	var ranked []scored
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		n := 0
		for _, term := range terms {
			n += strings.Count(lower, term)
		}
		if n > 0 {
			ranked = append(ranked, scored{score: n, sentence: sentence})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	keyPoints := make([]string, 0, maxKeyPoints)
	for i := 0; i < len(ranked) && i < maxKeyPoints; i++ {
		keyPoints = append(keyPoints, ranked[i].sentence)
	}

	summary := ""
	if len(sentences) > 0 {
		n := summarySentences
		if len(sentences) < n {
			n = len(sentences)
		}
		summary = strings.Join(sentences[:n], " ")
		// Character limit, not bytes: cutting mid-rune would corrupt
		// multibyte content.
		if runes := []rune(summary); len(runes) > summaryMaxChars {
			summary = string(runes[:summaryMaxChars]) + "..."
		}
	}

	return Analysis{
		Summary:        summary,
		KeyPoints:      keyPoints,
		RelevanceScore: score,
	}
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n') {
				sentence := strings.TrimSpace(text[start : i+1])
				if sentence != "" {
					out = append(out, sentence)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
