package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code with testify.
func AssertStatusCode(t *testing.T, label string, want, got int, body []byte) bool {
	t.Helper()
	return assert.Equal(t, want, got, "[%s] HTTP status code mismatch\nbody: %s", label, string(body))
}

// AssertJSONBody deep-compares actual against expected after decoding both,
// so key order and whitespace never matter. Keys in ignore are removed at
// every depth first. An empty expected skips the check.
func AssertJSONBody(t *testing.T, label string, expected, actual []byte, ignore map[string]bool) bool {
	t.Helper()
	if len(expected) == 0 {
		return true
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal), "[%s] expected body is not valid JSON", label)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", label, string(actual)) {
		return false
	}

	return assert.Equal(t, strip(expVal, ignore), strip(actVal, ignore), "[%s] response body mismatch", label)
}

func strip(v any, ignore map[string]bool) any {
	if len(ignore) == 0 {
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			if !ignore[k] {
				out[k] = strip(vv, ignore)
			}
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = strip(vv, ignore)
		}
		return out
	}
	return v
}
