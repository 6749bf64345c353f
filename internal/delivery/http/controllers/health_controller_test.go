package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventnotifier/internal/delivery/http/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthController(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
	}{
		{"no database", nil, http.StatusOK},
		{"database up", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: assert.AnError}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewHealthController(discardLogger(), tt.db, 419)
			rr := httptest.NewRecorder()
			ctrl.Health(rr, httptest.NewRequest(http.MethodGet, "http://test/health", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				assert.Nil(t, envelope.Error)
				assert.Equal(t, map[string]any{"status": "ok", "zones": float64(419)}, envelope.Data)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, helpers.ErrCodeInternalError, envelope.Error.Code)
			}
		})
	}
}
