package graphql_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gql "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleptokart/kleptokart/pkg/graphql"
)

func testSchema(t *testing.T) gql.Schema {
	t.Helper()
	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"greet": &gql.Field{
				Type: gql.String,
				Args: gql.FieldConfigArgument{"name": &gql.ArgumentConfig{Type: gql.String}},
				Resolve: func(p gql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					if name == "" {
						return nil, errors.New("name is required")
					}
					return "hello " + name, nil
				},
			},
		},
	})
	s, err := graphql.NewSchema(query, nil)
	require.NoError(t, err)
	return s
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ResolvesWithVariables(t *testing.T) {
	h := graphql.Handler(testSchema(t))

	rec := post(h, `{"query":"query($n: String){ greet(name: $n) }","variables":{"n":"bo"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "hello bo", out.Data["greet"])
}

func TestHandler_ResolverErrorIs200(t *testing.T) {
	rec := post(graphql.Handler(testSchema(t)), `{"query":"{ greet }"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestHandler_MissingQuery(t *testing.T) {
	h := graphql.Handler(testSchema(t))

	assert.Equal(t, http.StatusBadRequest, post(h, `{"variables":{}}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
}
