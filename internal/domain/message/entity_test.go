package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusRead, true},
		{StatusDelivered, StatusRead, true},
		{StatusDelivered, StatusSent, false},
		{StatusRead, StatusDelivered, false},
		{StatusRead, StatusSent, false},
		{StatusSent, StatusSent, false},
		{"bogus", StatusRead, false},
		{StatusSent, "bogus", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPreviewPlainText(t *testing.T) {
	m := Message{Content: "hello there", MessageType: "text"}
	assert.Equal(t, "hello there", m.Preview())
}

func TestPreviewTruncatesRuneSafe(t *testing.T) {
	// Multibyte content must not be cut mid-rune.
	m := Message{Content: strings.Repeat("é", 150), MessageType: "text"}
	got := m.Preview()
	assert.Equal(t, 100, len([]rune(got)))
	assert.Equal(t, strings.Repeat("é", 100), got)
}

func TestPreviewAttachmentGlyphs(t *testing.T) {
	cases := []struct {
		msgType string
		content string
		want    string
	}{
		{"image", "", "📷 image"},
		{"video", "", "🎥 video"},
		{"audio", "", "🎵 audio"},
		{"file", "", "📄 file"},
		{"archive", "", "📄 file"}, // unknown types fall back to file
		{"image", "vacation pic", "📷 image: vacation pic"},
	}
	for _, tc := range cases {
		m := Message{Content: tc.content, MessageType: tc.msgType}
		assert.Equal(t, tc.want, m.Preview())
	}
}

func TestTypeForMime(t *testing.T) {
	assert.Equal(t, "image", TypeForMime("image/png"))
	assert.Equal(t, "video", TypeForMime("video/mp4"))
	assert.Equal(t, "audio", TypeForMime("audio/ogg"))
	assert.Equal(t, "file", TypeForMime("application/pdf"))
	assert.Equal(t, "file", TypeForMime(""))
}
