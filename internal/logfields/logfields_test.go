package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Key drift would break log ingestion.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "123", RunID("123")},
		{"Stage", KeyStage, "extract", Stage("extract")},
		{"URL", KeyURL, "https://example.com", URL("https://example.com")},
		{"Source", KeySource, "plugins", Source("plugins")},
		{"Category", KeyCategory, "bases", Category("bases")},
		{"Count", KeyCount, "42", Count(42)},
		{"Minimum", KeyMinimum, "15", Minimum(15)},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Attempt", KeyAttempt, "2", Attempt(2)},
		{"Status", KeyStatus, "404", Status(404)},
		{"Outcome", KeyOutcome, "written", Outcome("written")},
		{"SHA256", KeySHA256, "abc", SHA256("abc")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.attrKey, tc.attr.Key)
			assert.Equal(t, tc.attrVal, tc.attr.Value.String())
		})
	}
}

func TestDurationMS(t *testing.T) {
	a := DurationMS(12.5)
	assert.Equal(t, KeyDurationMS, a.Key)
	assert.InDelta(t, 12.5, a.Value.Float64(), 0)
}
