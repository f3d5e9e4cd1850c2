package textnorm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	n := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text passes through",
			input:    "Candidate confirmed availability for Monday.",
			expected: "Candidate confirmed availability for Monday.",
		},
		{
			name:     "simple html",
			input:    "<p>Spoke with <b>Maria</b> today.</p>",
			expected: "Spoke with Maria today.",
		},
		{
			name:     "entities decoded",
			input:    "Salary &amp; benefits discussed",
			expected: "Salary & benefits discussed",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, n.StripMarkup(tt.input))
		})
	}
}

func TestStripMarkup_MalformedInputNeverEmpty(t *testing.T) {
	t.Parallel()

	n := New()

	// Broken nesting and unterminated tags must still yield the text content.
	out := n.StripMarkup("<div><p>Follow up <b>next week</div></b><span>about documents")
	assert.Contains(t, out, "Follow up")
	assert.Contains(t, out, "documents")
	assert.NotContains(t, out, "<")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	n := New()

	t.Run("short text unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Short note.", n.Summarize("Short note.", 200))
	})

	t.Run("first and last combined when both fit", func(t *testing.T) {
		t.Parallel()
		text := "First sentence here. Middle sentence that should be dropped from the summary entirely. Last sentence stays."
		got := n.Summarize(text, 60)
		assert.Equal(t, "First sentence here Last sentence stays.", got)
	})

	t.Run("long note respects the bound without mid-word cuts", func(t *testing.T) {
		t.Parallel()

		first := "The candidate completed the language assessment with a strong score and asked several detailed questions about the onboarding schedule"
		text := first + ". " +
			"We discussed relocation support and the documents still pending from the background check process which may take a while. " +
			"Her recruiter wants to fast track the training cohort starting in April if the paperwork clears on time for everyone involved. " +
			"Overall a very positive conversation and she remains the strongest profile in this cycle for the bilingual support role overall."
		require.Greater(t, len(text), 400)

		got := n.Summarize(text, 200)
		assert.LessOrEqual(t, len(got), 200)
		assert.True(t, strings.HasPrefix(got, "The candidate completed the language assessment"))
		// every chunk of the summary is a whole word from the source
		for _, w := range strings.Fields(strings.TrimSuffix(got, "...")) {
			assert.Contains(t, text, w)
		}
	})

	t.Run("oversized first sentence truncated with ellipsis", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("wordy ", 60) + "end."
		got := n.Summarize(text, 50)
		assert.LessOrEqual(t, len(got), 50)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.True(t, strings.HasSuffix(strings.TrimSuffix(got, "..."), "wordy"), "truncation split a word: %q", got)
	})

	t.Run("single long multibyte token cut at a rune boundary", func(t *testing.T) {
		t.Parallel()
		// no spaces, so the word-boundary fallback cuts by bytes
		text := strings.Repeat("séparé", 40)
		got := n.Summarize(text, 50)
		assert.LessOrEqual(t, len(got), 50)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.True(t, utf8.ValidString(got), "summary contains a split rune: %q", got)
	})
}

func TestKeyPhrases(t *testing.T) {
	t.Parallel()

	n := New()

	text := "Discussed the training schedule and pending documents. The training schedule depends on the background check. Background check results are expected soon."
	phrases := n.KeyPhrases(text, 3)

	require.NotEmpty(t, phrases)
	assert.LessOrEqual(t, len(phrases), 3)
	assert.Contains(t, phrases, "training schedule")

	// no duplicates
	seen := map[string]bool{}
	for _, p := range phrases {
		assert.False(t, seen[p], "duplicate phrase %q", p)
		seen[p] = true
	}
}

func TestKeyPhrases_NoopExtractor(t *testing.T) {
	t.Parallel()

	n := New(WithPhraseExtractor(NoopExtractor{}))
	assert.Empty(t, n.KeyPhrases("anything at all", 5))
}

func TestKeyPhrases_EmptyInput(t *testing.T) {
	t.Parallel()

	n := New()
	assert.Empty(t, n.KeyPhrases("   ", 5))
	assert.Empty(t, n.KeyPhrases("text", 0))
}
