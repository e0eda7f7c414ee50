package runner

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ScrubLevel selects how aggressively output is redacted. Basic covers
// patterns with a low false-positive rate; strict adds phone numbers and
// private IP ranges.
type ScrubLevel string

const (
	ScrubBasic  ScrubLevel = "basic"
	ScrubStrict ScrubLevel = "strict"
)

var (
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	ssnRe        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardRe = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)
	intlPhoneRe  = regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{6,14}\b`)
	usPhoneRe    = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)
	privateIPRe  = regexp.MustCompile(`\b(?:10\.|172\.(?:1[6-9]|2[0-9]|3[01])\.|192\.168\.)\d{1,3}\b`)
)

var sensitiveKeyTerms = []string{"password", "token", "secret", "key", "auth"}

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Scrubber redacts PII from executed-code output before it reaches a log or
// a model.
type Scrubber struct {
	level ScrubLevel
	rules []rule
}

// NewScrubber creates a scrubber for the supplied level.
func NewScrubber(level ScrubLevel) *Scrubber {
	ret := &Scrubber{level: level}
	ret.rules = []rule{
		{emailRe, "[EMAIL]"},
		{ssnRe, "[SSN]"},
		{creditCardRe, "[CREDIT_CARD]"},
	}
	if level == ScrubStrict {
		ret.rules = append(ret.rules,
			rule{intlPhoneRe, "[PHONE]"},
			rule{privateIPRe, "[PRIVATE_IP]"},
			rule{usPhoneRe, "[PHONE]"},
		)
	}
	return ret
}

// ScrubText redacts matching patterns in text.
func (s *Scrubber) ScrubText(text string) string {
	for _, r := range s.rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}

// ScrubMap redacts string values; values under credential-looking keys are
// replaced wholesale.
func (s *Scrubber) ScrubMap(data map[string]any) map[string]any {
	ret := make(map[string]any, len(data))
	for key, value := range data {
		if isSensitiveKey(key) {
			ret[key] = "[REDACTED]"
			continue
		}
		switch actual := value.(type) {
		case string:
			ret[key] = s.ScrubText(actual)
		case map[string]any:
			ret[key] = s.ScrubMap(actual)
		case []any:
			items := make([]any, len(actual))
			for i, item := range actual {
				if text, ok := item.(string); ok {
					items[i] = s.ScrubText(text)
				} else {
					items[i] = item
				}
			}
			ret[key] = items
		default:
			ret[key] = value
		}
	}
	return ret
}

// ScrubJSON redacts a JSON document, falling back to plain-text scrubbing
// when the input does not parse.
func (s *Scrubber) ScrubJSON(data string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return s.ScrubText(data)
	}
	scrubbed, err := json.MarshalIndent(s.ScrubMap(parsed), "", "  ")
	if err != nil {
		return s.ScrubText(data)
	}
	return string(scrubbed)
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveKeyTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
