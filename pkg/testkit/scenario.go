// Package testkit runs JSON scenario files against an http.Handler.
//
// A scenario is an ordered list of steps sharing one handler, so a file can
// walk a resource through its lifecycle:
//
//	{
//	  "name": "buy a bike",
//	  "ignoreKeys": ["created_at"],
//	  "steps": [
//	    {"name": "create", "requestMethod": "POST", "requestUrl": "/api/listings",
//	     "requestBody": {"title": "Bike", "price": "150.00", "seller_name": "Alice", "seller_email": "a@x.com"},
//	     "expectedCode": 201, "expectedBody": {"id": 1, "message": "Listing created successfully"}},
//	    {"name": "buy", "requestMethod": "POST", "requestUrl": "/api/listings/1/buy", "expectedCode": 200}
//	  ]
//	}
//
// Bodies may be inline (requestBody / expectedBody) or in sibling files
// (requestFileName / responseFileName).
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, "testdata", func(t *testing.T) http.Handler { return newKernel(t) })
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scenario is one file: steps run in order against the same handler.
type Scenario struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IgnoreKeys  []string `json:"ignoreKeys"` // dropped from both sides before comparing bodies
	Steps       []Step   `json:"steps"`

	dir string // directory of the scenario file
}

// Step is one request and its expectations.
type Step struct {
	Name string `json:"name"`

	RequestMethod   string            `json:"requestMethod"` // defaults to GET
	RequestURL      string            `json:"requestUrl"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int             `json:"expectedCode"`
	ExpectedBody     json.RawMessage `json:"expectedBody"`
	ResponseFileName string          `json:"responseFileName"`
	IgnoreKeys       []string        `json:"ignoreKeys"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.RequestURL == "" {
			return fmt.Errorf("steps[%d].requestUrl is required", i)
		}
		if st.ExpectedCode == 0 {
			return fmt.Errorf("steps[%d].expectedCode is required", i)
		}
		if len(st.RequestBody) > 0 && st.RequestFileName != "" {
			return fmt.Errorf("steps[%d]: set requestBody or requestFileName, not both", i)
		}
		if len(st.ExpectedBody) > 0 && st.ResponseFileName != "" {
			return fmt.Errorf("steps[%d]: set expectedBody or responseFileName, not both", i)
		}
		st.RequestMethod = strings.ToUpper(st.RequestMethod)
		if st.RequestMethod == "" {
			st.RequestMethod = "GET"
		}
		if st.Name == "" {
			st.Name = fmt.Sprintf("%02d_%s_%s", i+1, st.RequestMethod, st.RequestURL)
		}
	}
	return nil
}

// requestBody returns the raw request bytes, or nil.
func (s *Scenario) requestBody(st Step) ([]byte, error) {
	if len(st.RequestBody) > 0 {
		return st.RequestBody, nil
	}
	if st.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(st.RequestFileName))
}

// expectedBody returns the expected response bytes, or nil to skip the check.
func (s *Scenario) expectedBody(st Step) ([]byte, error) {
	if len(st.ExpectedBody) > 0 {
		return st.ExpectedBody, nil
	}
	if st.ResponseFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(st.ResponseFileName))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// ignored merges scenario-level and step-level ignore keys.
func (s *Scenario) ignored(st Step) map[string]bool {
	out := make(map[string]bool, len(s.IgnoreKeys)+len(st.IgnoreKeys))
	for _, k := range s.IgnoreKeys {
		out[k] = true
	}
	for _, k := range st.IgnoreKeys {
		out[k] = true
	}
	return out
}
