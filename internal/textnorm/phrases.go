package textnorm

import (
	"sort"
	"strings"
)

// PhraseExtractor ranks candidate key phrases in a block of text. It is a
// capability interface: callers that cannot afford extraction plug in
// NoopExtractor instead of branching at call sites.
type PhraseExtractor interface {
	Extract(text string, maxN int) ([]string, error)
}

// NoopExtractor always returns an empty phrase list.
type NoopExtractor struct{}

// Extract implements PhraseExtractor.
func (NoopExtractor) Extract(string, int) ([]string, error) {
	return nil, nil
}

// rakeExtractor scores stopword-delimited phrases by word degree over word
// frequency, the RAKE co-occurrence heuristic.
type rakeExtractor struct{}

func (rakeExtractor) Extract(text string, maxN int) ([]string, error) {
	candidates := candidatePhrases(text)
	if len(candidates) == 0 {
		return nil, nil
	}

	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, phrase := range candidates {
		for _, word := range phrase {
			freq[word]++
			degree[word] += len(phrase) - 1
		}
	}

	type scored struct {
		phrase string
		score  float64
	}

	seen := make(map[string]struct{}, len(candidates))
	ranked := make([]scored, 0, len(candidates))
	for _, phrase := range candidates {
		joined := strings.Join(phrase, " ")
		if len(joined) < 3 {
			continue
		}
		if _, dup := seen[joined]; dup {
			continue
		}
		seen[joined] = struct{}{}

		var score float64
		for _, word := range phrase {
			score += float64(degree[word]+freq[word]) / float64(freq[word])
		}
		ranked = append(ranked, scored{phrase: joined, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > maxN {
		ranked = ranked[:maxN]
	}
	phrases := make([]string, len(ranked))
	for i, s := range ranked {
		phrases[i] = s.phrase
	}
	return phrases, nil
}

// candidatePhrases splits text into maximal runs of non-stopword words.
func candidatePhrases(text string) [][]string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)

	var phrases [][]string
	var current []string
	for _, w := range words {
		if _, stop := stopwords[w]; stop || len(w) < 2 {
			if len(current) > 0 {
				phrases = append(phrases, current)
				current = nil
			}
			continue
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		phrases = append(phrases, current)
	}
	return phrases
}

var stopwords = func() map[string]struct{} {
	list := []string{
		"a", "about", "after", "all", "also", "an", "and", "any", "are", "as",
		"at", "be", "because", "been", "before", "but", "by", "can", "could",
		"did", "do", "does", "for", "from", "had", "has", "have", "he", "her",
		"here", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its",
		"just", "me", "more", "most", "my", "no", "not", "of", "on", "only",
		"or", "other", "our", "out", "over", "said", "she", "should", "so",
		"some", "than", "that", "the", "their", "them", "then", "there",
		"these", "they", "this", "to", "up", "us", "was", "we", "were", "what",
		"when", "where", "which", "who", "will", "with", "would", "you", "your",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
