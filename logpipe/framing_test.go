package logpipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameRaw(t *testing.T) {
	assert.Equal(t, "hello\n", Frame(FrameRaw, FacilityUser, SeverityInfo, "hello"))
}

func TestFrameShortIncludesPriority(t *testing.T) {
	out := Frame(FrameShort, FacilityUser, SeverityInfo, "hello")
	assert.Equal(t, "<14>hello\n", out)
}

func TestFrameRFC3164IncludesHeader(t *testing.T) {
	out := Frame(FrameRFC3164, FacilityUser, SeverityInfo, "hello")
	assert.True(t, strings.HasPrefix(out, "<14>"))
	assert.True(t, strings.HasSuffix(out, "hello\n"))
	assert.Contains(t, out, "gobalance[")
}

func TestFrameRFC5424IncludesVersionAndHeader(t *testing.T) {
	out := Frame(FrameRFC5424, FacilityUser, SeverityInfo, "hello")
	assert.True(t, strings.HasPrefix(out, "<14>1 "))
	assert.True(t, strings.HasSuffix(out, "hello\n"))
}

func TestParseFrameKind(t *testing.T) {
	k, ok := ParseFrameKind("rfc5424")
	assert.True(t, ok)
	assert.Equal(t, FrameRFC5424, k)

	_, ok = ParseFrameKind("bogus")
	assert.False(t, ok)
}
