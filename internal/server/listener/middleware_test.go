package listener

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestChain_AssignsRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}), logging.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get(common.RequestIDHeaderName)
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, seen)
}

func TestChain_KeepsIncomingRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}), logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.RequestIDHeaderName, " abc-123 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(common.RequestIDHeaderName))
}

func TestChain_LogsEachRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Chain(http.NotFoundHandler(), logging.NewZapLogger(zap.New(core)))

	req := httptest.NewRequest(http.MethodPost, "/matrix/nope", nil)
	req.Header.Set(common.RequestIDHeaderName, "rid")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid", fields["request_id"])
	assert.Equal(t, http.MethodPost, fields["method"])
	assert.Equal(t, "/matrix/nope", fields["path"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
}
