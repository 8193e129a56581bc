package testkit

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body any
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"method": r.Method,
			"body":   body,
			"at":     time.Now().Format(time.RFC3339Nano),
		})
	})
}

func TestRunDir(t *testing.T) {
	RunDir(t, "testdata", echoHandler)
}

func TestScenarioFiles_SkipsBodyFixtures(t *testing.T) {
	files, err := ScenarioFiles("testdata")
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("testdata", "echo.json")}, files)
}

func TestLoadScenario_Defaults(t *testing.T) {
	s, err := LoadScenario("testdata/echo.json")
	require.NoError(t, err)

	assert.Equal(t, "POST", s.Steps[0].RequestMethod)
	assert.Equal(t, "GET", s.Steps[1].RequestMethod)
	assert.Equal(t, "02_GET_/echo", s.Steps[1].Name)
}

func TestValidate(t *testing.T) {
	cases := map[string]Scenario{
		"no name":  {Steps: []Step{{RequestURL: "/", ExpectedCode: 200}}},
		"no steps": {Name: "x"},
		"no url":   {Name: "x", Steps: []Step{{ExpectedCode: 200}}},
		"no code":  {Name: "x", Steps: []Step{{RequestURL: "/"}}},
		"two bodies": {Name: "x", Steps: []Step{{
			RequestURL: "/", ExpectedCode: 200,
			RequestBody: json.RawMessage(`{}`), RequestFileName: "a.json",
		}}},
	}
	for name, s := range cases {
		assert.Error(t, s.validate(), name)
	}
}

func TestStrip(t *testing.T) {
	in := []any{map[string]any{"id": 1.0, "created_at": "x", "nested": map[string]any{"created_at": "y"}}}
	out := strip(in, map[string]bool{"created_at": true})
	assert.Equal(t, []any{map[string]any{"id": 1.0, "nested": map[string]any{}}}, out)
}
