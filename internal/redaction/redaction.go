// Package redaction strips secrets and oversized binary payloads from text
// before it reaches a log sink. Grounded on sipeed-picoclaw's
// pkg/redaction, trimmed to what this agent's logs actually carry: bearer
// tokens / API keys in model-client error messages, and base64 screenshot
// payloads that would otherwise blow up log files.
package redaction

import (
	"fmt"
	"regexp"
)

const Replacement = "[REDACTED]"

var (
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]{8,}`)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key["':=\s]+)[A-Za-z0-9._~+/=-]{8,}`)
	// base64 image data URLs with 80+ payload chars and raw base64 blobs of
	// 200+ chars are assumed to be screenshot payloads, not meaningful log
	// content.
	dataURLPattern  = regexp.MustCompile(`data:image/[a-zA-Z]+;base64,[A-Za-z0-9+/=]{80,}`)
	base64Pattern   = regexp.MustCompile(`\b[A-Za-z0-9+/]{200,}={0,2}\b`)
)

// Redact scrubs secrets and inline image payloads from a single log message.
func Redact(s string) string {
	s = bearerPattern.ReplaceAllString(s, "${1}"+Replacement)
	s = apiKeyPattern.ReplaceAllString(s, "${1}"+Replacement)
	s = dataURLPattern.ReplaceAllStringFunc(s, func(m string) string {
		return truncatedImageNote(len(m))
	})
	s = base64Pattern.ReplaceAllStringFunc(s, func(m string) string {
		return truncatedImageNote(len(m))
	})
	return s
}

// RedactFields applies Redact to every string-valued field, leaving other
// types untouched.
func RedactFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = Redact(s)
			continue
		}
		out[k] = v
	}
	return out
}

func truncatedImageNote(n int) string {
	return fmt.Sprintf("[%d bytes omitted]", n)
}
