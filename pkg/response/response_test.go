package response_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kleptokart/kleptokart/pkg/response"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Error(rec, http.StatusBadRequest, "Missing required fields")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Message(rec, http.StatusOK, "Purchase successful")

	assert.JSONEq(t, `{"message":"Purchase successful"}`, rec.Body.String())
}

func TestSuccess_EmptySlice(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, []string{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
