package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name string `json:"name"`
}

func (s sampleRequest) Validate() []string {
	if s.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		optional bool
		wantOK   bool
		wantMsg  string
	}{
		{name: "valid", body: `{"name":"x"}`, wantOK: true},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantOK: false, wantMsg: "unknown field"},
		{name: "validation failure", body: `{}`, wantOK: false, wantMsg: "name is required"},
		{name: "empty body required", body: ``, wantOK: false},
		{name: "malformed", body: `{`, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://test/x", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var dest sampleRequest

			ok := DecodeAndValidate(rr, req, &dest)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				require.Equal(t, http.StatusBadRequest, rr.Code)
				var envelope APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, ErrCodeBadRequest, envelope.Error.Code)
				if tt.wantMsg != "" {
					assert.Contains(t, envelope.Error.Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestDecodeOptional_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://test/x", strings.NewReader(""))
	rr := httptest.NewRecorder()
	var dest struct {
		At string `json:"at"`
	}
	assert.True(t, DecodeOptional(rr, req, &dest))
	assert.Equal(t, "", dest.At)
}

func TestWriteJSONSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONSuccess(rr, http.StatusCreated, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"k":"v"},"error":null}`, rr.Body.String())
}
