package modelclient

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// DefaultMaxImageDim bounds the longer side of a screenshot once
// CompressImage is enabled, trading a little model accuracy for a much
// smaller request payload on high-resolution devices.
const DefaultMaxImageDim = 1024

const pngDataURLPrefix = "data:image/png;base64,"

// compressImageParts returns messages with every image_url content part run
// through CompressImage, leaving text parts and plain-string content alone.
func compressImageParts(messages []Message, maxDim uint) ([]Message, error) {
	out := make([]Message, len(messages))
	for i, m := range messages {
		parts, ok := m.Content.([]ContentPart)
		if !ok {
			out[i] = m
			continue
		}
		compressed := make([]ContentPart, len(parts))
		for j, p := range parts {
			if p.Type != "image_url" || !strings.HasPrefix(p.ImageURL, pngDataURLPrefix) {
				compressed[j] = p
				continue
			}
			payload := strings.TrimPrefix(p.ImageURL, pngDataURLPrefix)
			shrunk, err := CompressImage(payload, maxDim)
			if err != nil {
				return nil, err
			}
			p.ImageURL = pngDataURLPrefix + shrunk
			compressed[j] = p
		}
		out[i] = Message{Role: m.Role, Content: compressed}
	}
	return out, nil
}

// CompressImage downsizes a base64-encoded PNG so its longer side is at
// most maxDim pixels, preserving aspect ratio. Images already within
// bounds are returned unchanged.
func CompressImage(base64PNG string, maxDim uint) (string, error) {
	if maxDim == 0 {
		maxDim = DefaultMaxImageDim
	}

	raw, err := base64.StdEncoding.DecodeString(base64PNG)
	if err != nil {
		return "", fmt.Errorf("compress image: decode base64: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("compress image: decode png: %w", err)
	}

	bounds := img.Bounds()
	w, h := uint(bounds.Dx()), uint(bounds.Dy())
	if w <= maxDim && h <= maxDim {
		return base64PNG, nil
	}

	var targetW, targetH uint
	if w >= h {
		targetW = maxDim
	} else {
		targetH = maxDim
	}
	resized := resize.Resize(targetW, targetH, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", fmt.Errorf("compress image: encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
