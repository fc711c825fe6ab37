package agent

import (
	"strings"

	"github.com/valet-ai/valet/internal/llm"
)

// userMessage builds the user turn. A non-empty image becomes part of a
// multi-part message: URLs and data URIs pass through, anything else is
// treated as raw base64 JPEG data and wrapped in a data URI.
func userMessage(text, image string) llm.Message {
	msg := llm.Message{Role: llm.RoleUser, Content: text}
	if image == "" {
		return msg
	}
	msg.Image = imageURL(image)
	return msg
}

func imageURL(image string) string {
	if strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "https://") ||
		strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:image/jpeg;base64," + image
}
