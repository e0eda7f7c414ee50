package runner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubTextBasic(t *testing.T) {
	scrubber := NewScrubber(ScrubBasic)
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{
			description: "email",
			input:       "contact jan.jansen@example.nl for details",
			expect:      "contact [EMAIL] for details",
		},
		{
			description: "ssn",
			input:       "ssn 123-45-6789 on file",
			expect:      "ssn [SSN] on file",
		},
		{
			description: "credit card",
			input:       "card 4111 1111 1111 1111 charged",
			expect:      "card [CREDIT_CARD] charged",
		},
		{
			description: "clean text untouched",
			input:       "temperature is 18 degrees",
			expect:      "temperature is 18 degrees",
		},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, scrubber.ScrubText(testCase.input), testCase.description)
	}

	// Phones and private IPs survive at the basic level.
	assert.Equal(t, "call +31612345678", scrubber.ScrubText("call +31612345678"))
	assert.Equal(t, "host 192.168.1.10", scrubber.ScrubText("host 192.168.1.10"))
}

func TestScrubTextStrict(t *testing.T) {
	scrubber := NewScrubber(ScrubStrict)
	assert.Equal(t, "call [PHONE]", scrubber.ScrubText("call +31612345678"))
	assert.Equal(t, "dial [PHONE] now", scrubber.ScrubText("dial 555-123-4567 now"))
	assert.Equal(t, "host [PRIVATE_IP].10", scrubber.ScrubText("host 192.168.1.10"))
}

func TestScrubMap(t *testing.T) {
	scrubber := NewScrubber(ScrubBasic)
	scrubbed := scrubber.ScrubMap(map[string]any{
		"api_token": "abc123",
		"Password":  "hunter2",
		"note":      "mail me at a@b.io",
		"count":     3,
		"nested":    map[string]any{"secret_key": "s3cret", "city": "Utrecht"},
		"items":     []any{"x@y.org", 7},
	})
	assert.Equal(t, "[REDACTED]", scrubbed["api_token"])
	assert.Equal(t, "[REDACTED]", scrubbed["Password"])
	assert.Equal(t, "mail me at [EMAIL]", scrubbed["note"])
	assert.Equal(t, 3, scrubbed["count"])
	nested := scrubbed["nested"].(map[string]any)
	assert.Equal(t, "[REDACTED]", nested["secret_key"])
	assert.Equal(t, "Utrecht", nested["city"])
	items := scrubbed["items"].([]any)
	assert.Equal(t, "[EMAIL]", items[0])
	assert.Equal(t, 7, items[1])
}

func TestScrubJSON(t *testing.T) {
	scrubber := NewScrubber(ScrubBasic)
	out := scrubber.ScrubJSON(`{"auth_token":"xyz","contact":"a@b.io"}`)
	var parsed map[string]any
	assert.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "[REDACTED]", parsed["auth_token"])
	assert.Equal(t, "[EMAIL]", parsed["contact"])

	// Non-JSON input falls back to text scrubbing.
	assert.Equal(t, "[EMAIL]", scrubber.ScrubJSON("a@b.io"))
}
