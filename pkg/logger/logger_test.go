package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"palm-rag/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
}

func TestLoggerFieldsAreNotShared(t *testing.T) {
	var buf bytes.Buffer
	Init(logrus.InfoLevel)
	logrus.SetOutput(&buf)

	base := New("RAGService", "", "")
	withReq := base.WithRequest(models.RequestInfo{Method: "POST", Path: "/api/chat"})
	base.Info("plain")
	withReq.Info("with request")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "plain", first["message"])
	assert.Equal(t, "RAGService", first["service_name"])
	assert.NotContains(t, first, "request_info")
	assert.NotContains(t, first, "trace_id")

	assert.Equal(t, "with request", second["message"])
	assert.Contains(t, second, "request_info")
	assert.Contains(t, second, "timestamp")
}
