package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// HandlerFactory builds a fresh handler (and its backing state) per scenario.
type HandlerFactory func(t *testing.T) http.Handler

// Run executes one scenario file as a subtest.
func Run(t *testing.T, scenarioPath string, newHandler HandlerFactory) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	t.Run(s.Name, func(t *testing.T) {
		RunScenario(t, newHandler(t), s)
	})
}

// RunDir runs every *.json scenario in dir, each against its own handler.
// Body fixtures (*_req.json, *_res.json) are skipped. Files that fail to
// parse are reported as failures, not fatal.
func RunDir(t *testing.T, dir string, newHandler HandlerFactory) {
	t.Helper()

	entries, err := ScenarioFiles(dir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}

	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}

		t.Run(s.Name, func(t *testing.T) {
			RunScenario(t, newHandler(t), s)
		})
	}
}

// ScenarioFiles lists the scenario files in dir, leaving out the request
// and response fixtures that scenarios reference by name.
func ScenarioFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, path := range matches {
		if isFixture(filepath.Base(path)) {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}

func isFixture(name string) bool {
	return strings.HasSuffix(name, "_req.json") || strings.HasSuffix(name, "_res.json")
}

// RunScenario fires each step in order and stops at the first step whose
// status code is wrong, since later steps depend on it.
func RunScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	for _, st := range s.Steps {
		raw, err := s.requestBody(st)
		if err != nil {
			t.Fatalf("[%s/%s] read request body: %v", s.Name, st.Name, err)
		}

		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}

		req := httptest.NewRequest(st.RequestMethod, st.RequestURL, body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range st.Headers {
			req.Header.Set(k, v)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !AssertStatusCode(t, s.Name+"/"+st.Name, st.ExpectedCode, rec.Code, rec.Body.Bytes()) {
			return
		}

		expected, err := s.expectedBody(st)
		if err != nil {
			t.Errorf("[%s/%s] read expected body: %v", s.Name, st.Name, err)
			continue
		}
		AssertJSONBody(t, s.Name+"/"+st.Name, expected, rec.Body.Bytes(), s.ignored(st))
	}
}
