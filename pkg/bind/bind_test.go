package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleptokart/kleptokart/config"
	"github.com/kleptokart/kleptokart/pkg/bind"
)

type input struct {
	Title string `json:"title"`
}

func TestJSON_Decodes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Bike","extra":1}`))
	var in input
	require.NoError(t, bind.JSON(req, &in))
	assert.Equal(t, "Bike", in.Title)
}

func TestJSON_Malformed(t *testing.T) {
	for _, body := range []string{`{"title":`, `[1,2]`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var in input
		assert.ErrorIs(t, bind.JSON(req, &in), bind.ErrMalformed, "body %q", body)
	}
}

func TestJSON_TooLarge(t *testing.T) {
	config.Load()
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "1048576") })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("x", 64)+`"}`))
	var in input
	assert.ErrorIs(t, bind.JSON(req, &in), bind.ErrTooLarge)
}
