package logpipe

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		ClientAddr:   net.ParseIP("10.0.0.1"),
		ClientPort:   5555,
		FrontendAddr: net.ParseIP("10.0.0.2"),
		FrontendPort: 80,
		ServerAddr:   net.ParseIP("10.0.0.3"),
		ServerPort:   8080,
		AcceptTime:   time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		Timers:       Timers{TR: 1, Tw: 2, Tc: 3, Tr: 4, Ta: 5, TT: 15, Tq: -1, Ts: -1, Td: -1, Ti: -1, Th: -1},
		UniqueID:     "abc-123",
		BytesRead:    2048,
		BackendName:  "be1",
		ServerName:   "srv1",
		Status:       200,
	}
}

func TestRenderBasicFields(t *testing.T) {
	f, err := CompileFormat("%ci:%cp [%t] %b/%s %ST %B")
	require.NoError(t, err)

	out, err := f.Render(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:5555 [29/Jul/2026:12:00:00.000] be1/srv1 200 2048", out)
}

func TestRenderTimerTentativePrefix(t *testing.T) {
	f, err := CompileFormat("%TT")
	require.NoError(t, err)

	r := sampleRecord()
	r.Timers.Tentative = true
	out, err := f.Render(r)
	require.NoError(t, err)
	assert.Equal(t, "+15", out)
}

func TestRenderTimerUnreachedIsMinusOne(t *testing.T) {
	f, err := CompileFormat("%Tq")
	require.NoError(t, err)
	out, err := f.Render(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, "-1", out)
}

func TestRenderMandatoryEmptyFieldErrors(t *testing.T) {
	f, err := CompileFormat("%{+M}s")
	require.NoError(t, err)
	r := sampleRecord()
	r.ServerName = ""
	_, err = f.Render(r)
	assert.Error(t, err)
}

func TestRenderQuoteOption(t *testing.T) {
	f, err := CompileFormat(`%{+Q}b`)
	require.NoError(t, err)
	out, err := f.Render(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, `"be1"`, out)
}

func TestRenderHexOptionOnPort(t *testing.T) {
	f, err := CompileFormat("%{+X}cp")
	require.NoError(t, err)
	out, err := f.Render(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, "15b3", out)
}

func TestRenderCaptureBraceForm(t *testing.T) {
	f, err := CompileFormat("%hr")
	require.NoError(t, err)
	r := sampleRecord()
	r.Captures.ReqHeaders = []string{"a", "b"}
	out, err := f.Render(r)
	require.NoError(t, err)
	assert.Equal(t, "{a|b}", out)
}

func TestRenderUnknownVariableErrors(t *testing.T) {
	f, err := CompileFormat("%bogus")
	require.NoError(t, err)
	_, err = f.Render(sampleRecord())
	assert.Error(t, err)
}
