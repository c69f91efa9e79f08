package app

import (
	"fmt"
	"net/url"
	"regexp"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// URLCorrector rewrites incoming URLs according to configured rules,
// e.g. redirecting a site to a mirror that extracts more reliably. The
// compiled rule set is swappable at runtime so config reloads apply to
// in-flight traffic without a restart.
type URLCorrector struct {
	rules  atomic.Pointer[[]compiledRule]
	logger *zap.Logger
}

type compiledRule struct {
	patterns    []*regexp.Regexp
	replacement string
}

// NewURLCorrector compiles the given rules. Rules that fail to compile
// are rejected outright rather than silently dropped.
func NewURLCorrector(rules []domain.URLRule, logger *zap.Logger) (*URLCorrector, error) {
	c := &URLCorrector{logger: logger}
	if err := c.Reload(rules); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload atomically replaces the active rule set.
func (c *URLCorrector) Reload(rules []domain.URLRule) error {
	compiled := make([]compiledRule, 0, len(rules))

	for i, rule := range rules {
		cr := compiledRule{replacement: rule.Replacement}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fmt.Errorf("url rule %d: compiling pattern %q: %w", i, pattern, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}

	c.rules.Store(&compiled)
	return nil
}

// CorrectURL applies the first rule with a pattern that changes the
// URL. A rule whose replacement yields an unparseable or relative URL
// is logged and skipped; when no rule applies, the URL comes back
// untouched.
func (c *URLCorrector) CorrectURL(uri *url.URL) *url.URL {
	rulesPtr := c.rules.Load()
	if rulesPtr == nil {
		return uri
	}

	urlString := uri.String()

	for _, rule := range *rulesPtr {
		corrected := ""
		var matched *regexp.Regexp
		for _, re := range rule.patterns {
			// an unmatched regex simply returns its input
			if result := re.ReplaceAllString(urlString, rule.replacement); result != urlString {
				corrected, matched = result, re
				break
			}
		}
		if matched == nil {
			continue
		}

		result, err := url.Parse(corrected)
		if err == nil && result.IsAbs() {
			return result
		}

		c.logger.Warn("corrected source URL to an invalid URL, ignoring correction",
			zap.String("url", urlString),
			zap.String("corrected", corrected),
			zap.String("pattern", matched.String()),
			zap.String("replacement", rule.replacement))
	}

	return uri
}
