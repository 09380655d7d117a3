package agent

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/phonessh/pilot/internal/modelclient"
)

// Context is the bounded conversation thread sent to the model. Only the
// most recent user turn may carry image content; StripLastImage enforces
// that right after each model call.
type Context struct {
	Messages []modelclient.Message
}

func (c *Context) Append(m modelclient.Message) {
	c.Messages = append(c.Messages, m)
}

// StripLastImage drops any image_url parts from the most recent message,
// collapsing a single remaining text part back to a plain string. Called
// once per step, right after the model has seen the screenshot.
func (c *Context) StripLastImage() {
	if len(c.Messages) == 0 {
		return
	}
	last := &c.Messages[len(c.Messages)-1]
	parts, ok := last.Content.([]modelclient.ContentPart)
	if !ok {
		return
	}
	textOnly := make([]modelclient.ContentPart, 0, len(parts))
	for _, p := range parts {
		if p.Type != "image_url" {
			textOnly = append(textOnly, p)
		}
	}
	switch len(textOnly) {
	case 0:
		last.Content = ""
	case 1:
		last.Content = textOnly[0].Text
	default:
		last.Content = textOnly
	}
}

// screenHash fingerprints a screenshot for unchanged-screen detection. It
// hashes the base64 payload directly rather than decoding the image, since
// byte-for-byte equality is all the loop detector needs.
func screenHash(base64PNG string) string {
	sum := sha1.Sum([]byte(base64PNG))
	return hex.EncodeToString(sum[:])
}
