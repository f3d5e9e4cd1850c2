// Package textnorm normalizes free-text note and email bodies: it strips
// markup, produces bounded-length extractive summaries, and extracts ranked
// key phrases. All operations are pure transformations and never fail the
// caller; malformed input degrades to best-effort plain text.
package textnorm

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	sentenceRe   = regexp.MustCompile(`[.!?]+\s+`)
	wordRe       = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]*`)
)

// Normalizer bundles the text transformations used by the sync pipeline.
type Normalizer struct {
	sanitizer *bluemonday.Policy
	extractor PhraseExtractor
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPhraseExtractor overrides the key-phrase extractor. Pass NoopExtractor
// to disable extraction without failing the pipeline.
func WithPhraseExtractor(e PhraseExtractor) Option {
	return func(n *Normalizer) {
		n.extractor = e
	}
}

// New creates a Normalizer with the default RAKE-style phrase extractor.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		sanitizer: bluemonday.StrictPolicy(),
		extractor: rakeExtractor{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// StripMarkup converts HTML to plain text. The structured converter handles
// well-formed markup; anything it rejects goes through a tag-stripping
// sanitizer instead, so the pipeline never fails on malformed input.
func (n *Normalizer) StripMarkup(input string) string {
	if input == "" {
		return ""
	}

	text, err := html2text.FromString(input, html2text.Options{TextOnly: true})
	if err != nil {
		text = html.UnescapeString(n.sanitizer.Sanitize(input))
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Summarize returns an extractive summary of at most maxLen characters.
// Input already within the limit is returned unchanged. Otherwise the first
// sentence is used, combined with the last sentence when both fit, and
// truncated at a word boundary with an ellipsis when even the first sentence
// is too long.
func (n *Normalizer) Summarize(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return truncateAtWord(text, maxLen)
	}

	first := sentences[0]
	if len(first) > maxLen {
		return truncateAtWord(first, maxLen)
	}

	if len(sentences) > 1 {
		last := sentences[len(sentences)-1]
		combined := first + " " + last
		if len(combined) <= maxLen {
			return combined
		}
	}
	return first
}

// KeyPhrases returns up to maxN ranked key phrases. Extractor failure yields
// an empty list rather than an error; a missing phrase never blocks a sync.
func (n *Normalizer) KeyPhrases(text string, maxN int) []string {
	if maxN <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}
	phrases, err := n.extractor.Extract(text, maxN)
	if err != nil {
		return nil
	}
	return phrases
}

func splitSentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// truncateAtWord cuts text to fit maxLen including a trailing ellipsis,
// backing up to the nearest word boundary so no word is split. A single token
// longer than the limit is cut at a rune boundary instead.
func truncateAtWord(text string, maxLen int) string {
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return trimToRuneBoundary(text[:maxLen])
	}
	cut := text[:maxLen-len(ellipsis)]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	} else {
		cut = trimToRuneBoundary(cut)
	}
	return strings.TrimRight(cut, " .,;:") + ellipsis
}

// trimToRuneBoundary strips the trailing bytes of a rune split by a byte cut.
func trimToRuneBoundary(s string) string {
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r == utf8.RuneError && size == 1 {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}
