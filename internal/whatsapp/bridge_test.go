package whatsapp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOutboundFormat(t *testing.T) {
	body := EncodeOutbound("a1b2c3d4", []TranscriptEntry{
		{Sender: "customer", Text: "my order never arrived"},
		{Sender: "agent", Text: "let me check"},
	})

	assert.True(t, strings.HasPrefix(body, "Session: a1b2c3d4\n"))
	assert.Contains(t, body, "> customer: my order never arrived")
	assert.Contains(t, body, "> agent: let me check")
	assert.Contains(t, body, "---- Reply below this line ----")
}

func TestEncodeOutboundCapsTranscript(t *testing.T) {
	entries := []TranscriptEntry{
		{Sender: "customer", Text: "one"},
		{Sender: "agent", Text: "two"},
		{Sender: "customer", Text: "three"},
		{Sender: "customer", Text: "four"},
	}
	body := EncodeOutbound("a1b2c3d4", entries)

	assert.NotContains(t, body, "> customer: one")
	assert.Contains(t, body, "> agent: two")
	assert.Contains(t, body, "> customer: three")
	assert.Contains(t, body, "> customer: four")
}

func TestEncodeOutboundFlattensNewlines(t *testing.T) {
	body := EncodeOutbound("a1b2c3d4", []TranscriptEntry{
		{Sender: "customer", Text: "line one\nline two"},
	})
	assert.Contains(t, body, "> customer: line one line two")
}

func TestExtractSessionToken(t *testing.T) {
	token, ok := ExtractSessionToken("Session: a1b2c3d4\n\nhello")
	require.True(t, ok)
	assert.Equal(t, "a1b2c3d4", token)

	// Case-insensitive, token normalized to lowercase.
	token, ok = ExtractSessionToken("SESSION: A1B2C3D4")
	require.True(t, ok)
	assert.Equal(t, "a1b2c3d4", token)

	_, ok = ExtractSessionToken("no token here")
	assert.False(t, ok)

	// Too short to be a token.
	_, ok = ExtractSessionToken("Session: a1b2")
	assert.False(t, ok)
}

func TestExtractReplyAfterMarker(t *testing.T) {
	text := "Session: a1b2c3d4\n\n> customer: hi\n\n---- Reply below this line ----\nSure, refund approved\nsecond line"
	assert.Equal(t, "Sure, refund approved\nsecond line", ExtractReply(text))
}

func TestExtractReplyNoMarkerUsesLastLine(t *testing.T) {
	assert.Equal(t, "yes that works", ExtractReply("yes that works"))
	assert.Equal(t, "final answer", ExtractReply("Session: a1b2c3d4\nfinal answer\n\n"))
}

func TestExtractReplyEmpty(t *testing.T) {
	assert.Equal(t, "", ExtractReply(""))
	assert.Equal(t, "", ExtractReply("   \n  \n"))
	// A bare session line or quoted context is not a reply.
	assert.Equal(t, "", ExtractReply("Session: a1b2c3d4"))
	assert.Equal(t, "", ExtractReply("Session: a1b2c3d4\n> customer: hi"))
}

func TestRoundTrip(t *testing.T) {
	body := EncodeOutbound("deadbeef", []TranscriptEntry{{Sender: "customer", Text: "help"}})
	reply := body + "Thanks, on it"

	token, ok := ExtractSessionToken(reply)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", token)
	assert.Equal(t, "Thanks, on it", ExtractReply(reply))
}

func TestChatIDForPhone(t *testing.T) {
	assert.Equal(t, "79161234567@c.us", ChatIDForPhone("+7 (916) 123-45-67"))
	assert.Equal(t, "15551234567@c.us", ChatIDForPhone("15551234567"))
}
