package whatsapp

import (
	"regexp"
	"strings"
)

// Outbound messages relayed to an agent's WhatsApp embed a session token so
// the free-text reply can be correlated back to a conversation. The wire
// format is fixed:
//
//	Session: a1b2c3d4
//
//	> customer: my order never arrived
//	> agent: let me check
//	> customer: any update?
//
//	---- Reply below this line ----
//	<agent types here>
const (
	SessionLabel = "Session:"
	ReplyMarker  = "Reply below this line"

	// transcriptDepth is how many recent messages are quoted for context.
	transcriptDepth = 3
)

var sessionTokenRe = regexp.MustCompile(`(?i)session:\s*([0-9a-f]{8})`)

// TranscriptEntry is one quoted line of conversation context.
type TranscriptEntry struct {
	Sender string
	Text   string
}

// EncodeOutbound builds the relay body for one conversation. Only the last
// transcriptDepth entries are quoted.
func EncodeOutbound(token string, transcript []TranscriptEntry) string {
	if len(transcript) > transcriptDepth {
		transcript = transcript[len(transcript)-transcriptDepth:]
	}

	var b strings.Builder
	b.WriteString(SessionLabel)
	b.WriteString(" ")
	b.WriteString(token)
	b.WriteString("\n\n")
	for _, entry := range transcript {
		b.WriteString("> ")
		b.WriteString(entry.Sender)
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(entry.Text, "\n", " "))
		b.WriteString("\n")
	}
	b.WriteString("\n---- ")
	b.WriteString(ReplyMarker)
	b.WriteString(" ----\n")
	return b.String()
}

// ExtractSessionToken scans inbound text for an embedded session token,
// case-insensitively. The token is returned lowercased.
func ExtractSessionToken(text string) (string, bool) {
	m := sessionTokenRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractReply pulls the agent's free-text reply out of an inbound message.
// Everything after the first line containing the reply marker is the reply.
// Without a marker the whole message is assumed to be a terse reply and the
// last non-empty line is returned. An empty result means there is nothing to
// store.
func ExtractReply(text string) string {
	lines := strings.Split(text, "\n")
	marker := strings.ToLower(ReplyMarker)
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), marker) {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" || strings.HasPrefix(t, ">") || sessionTokenRe.MatchString(strings.ToLower(t)) {
			continue
		}
		return t
	}
	return ""
}
