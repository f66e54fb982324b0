package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoCommands() map[string]*Command {
	return map[string]*Command{
		"show": {
			Name:     "show",
			MinLevel: LevelUser,
			Run: func(s *Applet, args []string, payload string) (string, error) {
				return "ok", nil
			},
		},
		"set": {
			Name:     "set",
			MinLevel: LevelAdmin,
			Run: func(s *Applet, args []string, payload string) (string, error) {
				if payload != "" {
					return "payload:" + payload, nil
				}
				return "set:" + args[0], nil
			},
		},
	}
}

func TestFeedLineDispatchesKnownCommand(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())
	out, err := a.FeedLine("show")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0])
	assert.Equal(t, StatePrompt, a.State)
}

func TestFeedLineUnknownCommand(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())
	out, err := a.FeedLine("bogus")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Unknown command.", out[0])
}

func TestFeedLineDeniedBelowMinLevel(t *testing.T) {
	a := NewApplet(LevelUser, echoCommands())
	out, err := a.FeedLine("set foo")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Permission denied.", out[0])
}

func TestFeedLineSplitsMultipleCommands(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())
	out, err := a.FeedLine("show; show")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "ok"}, out)
}

func TestFeedLineInlineDowngrade(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())
	out, err := a.FeedLine("user -")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, LevelUser, a.Level)

	out, err = a.FeedLine("set foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Permission denied."}, out)
}

func TestFeedLinePayloadModeAccumulatesUntilBlankLine(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())

	out, err := a.FeedLine("set foo <<")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, a.inPayload)

	out, err = a.FeedLine("line one")
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = a.FeedLine("line two")
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = a.FeedLine("")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "payload:line one\nline two\n", out[0])
	assert.False(t, a.inPayload)
	assert.Equal(t, StatePrompt, a.State)
}

func TestFrameAnnotatesBySeverityAndOutputMode(t *testing.T) {
	a := NewApplet(LevelAdmin, echoCommands())

	a.Output = OutputNone
	assert.Equal(t, "ok", a.frame(SevInfo, "ok"))

	a.Output = OutputNumber
	assert.Equal(t, "[6]: ok", a.frame(SevInfo, "ok"))
	assert.Equal(t, "[3]: bad", a.frame(SevErr, "bad"))

	a.Output = OutputString
	assert.Equal(t, "[info]: ok", a.frame(SevInfo, "ok"))
	assert.Equal(t, "[err]: bad", a.frame(SevErr, "bad"))

	a.Output = OutputJSON
	framed := a.frame(SevInfo, "ok")
	assert.Contains(t, framed, `"severity":"info"`)
	assert.Contains(t, framed, `"message":"ok"`)
}
