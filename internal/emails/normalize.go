package emails

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"innbox/internal/models"
)

var (
	quoteMarkers = []string{
		"On Sun,", "On Mon,", "On Tue,", "On Wed,", "On Thu,", "On Fri,", "On Sat,",
	}
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractPayloadText walks a message payload tree and concatenates every
// decoded text part. Leaf bodies are base64url encoded; multipart nodes
// carry their text in child parts, in order. Parts that fail to decode are
// skipped rather than failing the whole message.
func ExtractPayloadText(payload *models.MessagePayload) string {
	if payload == nil {
		return ""
	}

	var parts []string
	collectPayloadText(payload, &parts)
	return strings.Join(parts, "\n")
}

func collectPayloadText(payload *models.MessagePayload, parts *[]string) {
	if payload.Body != nil && payload.Body.Data != "" {
		decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(payload.Body.Data)
		if err != nil {
			// Some producers pad; retry before giving up on the part
			decoded, err = base64.URLEncoding.DecodeString(payload.Body.Data)
		}
		if err == nil && len(decoded) > 0 {
			text := string(decoded)
			if strings.Contains(payload.MimeType, "html") {
				text = stripHTML(text)
			}
			if text != "" {
				*parts = append(*parts, text)
			}
		} else if err != nil {
			fmt.Printf("[NORMALIZER] Warning: Failed to decode %s part: %v\n", payload.MimeType, err)
		}
	}

	for i := range payload.Parts {
		collectPayloadText(&payload.Parts[i], parts)
	}
}

// CleanContent reduces a raw body to the text the author actually wrote:
// everything from the first quoted-reply marker on is dropped, then all
// runs of whitespace collapse to single spaces. An empty result means the
// message carried no usable content and should be discarded.
func CleanContent(content string) string {
	for _, marker := range quoteMarkers {
		if idx := strings.Index(content, marker); idx != -1 {
			content = content[:idx]
		}
	}

	content = whitespaceRe.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// stripHTML removes markup from an HTML body (basic implementation)
func stripHTML(html string) string {
	html = removeTagsWithContent(html, "script")
	html = removeTagsWithContent(html, "style")

	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&quot;", "\"")
	html = strings.ReplaceAll(html, "&#39;", "'")
	html = strings.ReplaceAll(html, "<br>", "\n")
	html = strings.ReplaceAll(html, "<br/>", "\n")
	html = strings.ReplaceAll(html, "<br />", "\n")
	html = strings.ReplaceAll(html, "</p>", "\n\n")
	html = strings.ReplaceAll(html, "</div>", "\n")

	var result strings.Builder
	inTag := false
	for _, char := range html {
		if char == '<' {
			inTag = true
			continue
		}
		if char == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(char)
		}
	}

	return strings.TrimSpace(result.String())
}

// removeTagsWithContent removes HTML tags and their content
func removeTagsWithContent(html, tag string) string {
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		start := strings.Index(strings.ToLower(html), strings.ToLower(openTag))
		if start == -1 {
			break
		}

		end := strings.Index(strings.ToLower(html[start:]), strings.ToLower(closeTag))
		if end == -1 {
			break
		}
		end += start + len(closeTag)

		html = html[:start] + html[end:]
	}

	return html
}
