package emails

import (
	"strings"

	"innbox/internal/models"

	"regexp"
)

// addressRe matches either an angle-bracketed address or a bare address
// anywhere in a From header.
var addressRe = regexp.MustCompile(`<([^>]+)>|([^\s<>]+@[^\s<>]+)`)

// Classifier labels messages by sender, splitting the operator's own mail
// from everything external.
type Classifier struct {
	internalDomain string
}

// NewClassifier creates a classifier for the given operator domain
func NewClassifier(internalDomain string) *Classifier {
	return &Classifier{internalDomain: strings.ToLower(internalDomain)}
}

// Classify returns Operator when the From header carries an address on the
// internal domain, External otherwise. Headers with no parseable address
// classify as External: an unattributable message is never trusted as the
// operator's voice.
func (c *Classifier) Classify(fromHeader string) models.SenderClass {
	addr := extractAddress(fromHeader)
	if addr == "" {
		return models.SenderExternal
	}

	at := strings.LastIndex(addr, "@")
	if at == -1 {
		return models.SenderExternal
	}

	domain := strings.ToLower(addr[at+1:])
	if c.internalDomain != "" && domain == c.internalDomain {
		return models.SenderOperator
	}
	return models.SenderExternal
}

func extractAddress(fromHeader string) string {
	match := addressRe.FindStringSubmatch(fromHeader)
	if match == nil {
		return ""
	}
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
