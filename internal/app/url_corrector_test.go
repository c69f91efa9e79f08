package app

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

func newTestCorrector(t *testing.T, rules []domain.URLRule) *URLCorrector {
	t.Helper()

	corrector, err := NewURLCorrector(rules, zap.NewNop())
	require.NoError(t, err)
	return corrector
}

func correct(t *testing.T, corrector *URLCorrector, raw string) string {
	t.Helper()

	uri, err := url.Parse(raw)
	require.NoError(t, err)
	return corrector.CorrectURL(uri).String()
}

func TestURLCorrector_AppliesFirstMatchingRule(t *testing.T) {
	corrector := newTestCorrector(t, []domain.URLRule{
		{
			Patterns:    []string{`^https://(www\.)?twitter\.com/`, `^https://(www\.)?x\.com/`},
			Replacement: "https://fxtwitter.com/",
		},
		{
			Patterns:    []string{`^https://fxtwitter\.com/`},
			Replacement: "https://should-not-happen.example/",
		},
	})

	got := correct(t, corrector, "https://x.com/user/status/123")

	// the first applicable rule wins; its output is not re-corrected
	assert.Equal(t, "https://fxtwitter.com/user/status/123", got)
}

func TestURLCorrector_NoRuleMatches(t *testing.T) {
	corrector := newTestCorrector(t, []domain.URLRule{
		{Patterns: []string{`^https://twitter\.com/`}, Replacement: "https://fxtwitter.com/"},
	})

	got := correct(t, corrector, "https://example.com/watch?v=abc")

	assert.Equal(t, "https://example.com/watch?v=abc", got)
}

func TestURLCorrector_InvalidReplacementSkipped(t *testing.T) {
	corrector := newTestCorrector(t, []domain.URLRule{
		// strips the scheme, producing a relative URL
		{Patterns: []string{`^https://broken\.example/`}, Replacement: "/nowhere/"},
		{Patterns: []string{`^https://broken\.example/`}, Replacement: "https://fixed.example/"},
	})

	got := correct(t, corrector, "https://broken.example/clip/1")

	assert.Equal(t, "https://fixed.example/clip/1", got)
}

func TestURLCorrector_AllReplacementsInvalid(t *testing.T) {
	corrector := newTestCorrector(t, []domain.URLRule{
		{Patterns: []string{`^https://broken\.example/`}, Replacement: "::not a url::"},
	})

	got := correct(t, corrector, "https://broken.example/clip/1")

	assert.Equal(t, "https://broken.example/clip/1", got)
}

func TestNewURLCorrector_RejectsBadPattern(t *testing.T) {
	_, err := NewURLCorrector([]domain.URLRule{
		{Patterns: []string{`[unclosed`}, Replacement: "https://x/"},
	}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unclosed")
}

func TestURLCorrector_Reload(t *testing.T) {
	corrector := newTestCorrector(t, nil)

	assert.Equal(t, "https://twitter.com/a", correct(t, corrector, "https://twitter.com/a"))

	require.NoError(t, corrector.Reload([]domain.URLRule{
		{Patterns: []string{`^https://twitter\.com/`}, Replacement: "https://fxtwitter.com/"},
	}))

	assert.Equal(t, "https://fxtwitter.com/a", correct(t, corrector, "https://twitter.com/a"))

	// a reload that fails to compile keeps the previous rule set
	require.Error(t, corrector.Reload([]domain.URLRule{
		{Patterns: []string{`(`}, Replacement: "x"},
	}))
	assert.Equal(t, "https://fxtwitter.com/a", correct(t, corrector, "https://twitter.com/a"))
}
