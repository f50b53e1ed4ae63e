package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecCollectors(t *testing.T) {
	m := NewMetrics("test")
	m.MessagesEncoded.WithLabelValues("D").Inc()
	m.MessagesEncoded.WithLabelValues("D").Inc()
	m.DecodeErrors.WithLabelValues("checksum").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesEncoded.WithLabelValues("D")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("checksum")))
}

func TestHandlerExposesBuildInfo(t *testing.T) {
	m := NewMetrics("test")
	m.RegisterBuildInfo("fixcat", "v1", "FIX.4.4")
	m.RegisterBuildInfo("fixcat", "v2", "FIX.4.4") // 重复注册被忽略

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `build_info{begin_string="FIX.4.4",service="fixcat",version="v1"} 1`)
}
