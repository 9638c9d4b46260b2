package respond

import (
	"context"
	"fmt"
	"strings"

	"innbox/internal/models"
)

// Assembler renders retrieved matches into the grounding prompt handed to
// the generation model. The assembled text is the only state that crosses
// that boundary.
type Assembler struct {
	store         ThreadSource
	truncateChars int
}

// NewAssembler creates an assembler reading threads from the given store
func NewAssembler(store ThreadSource, truncateChars int) *Assembler {
	return &Assembler{store: store, truncateChars: truncateChars}
}

// BuildContext renders the query and every matched thread into one prompt.
// Each match expands to its full conversation in chronological order, every
// message labeled by sender class and truncated so one long thread cannot
// crowd out the rest.
func (a *Assembler) BuildContext(ctx context.Context, queryText string, matches []models.Match) (string, error) {
	var b strings.Builder

	b.WriteString("You are drafting a reply on behalf of the host of a guest accommodation business.\n")
	b.WriteString("A guest email is waiting for an answer. Below are past conversations similar to it.\n")
	b.WriteString("Use them to match the host's tone and the facts they state. Do not invent details\n")
	b.WriteString("that no past conversation supports.\n\n")

	b.WriteString("Guest email:\n")
	b.WriteString(queryText)
	b.WriteString("\n")

	for i, match := range matches {
		thread, err := a.store.FindByThread(ctx, match.ThreadID)
		if err != nil {
			return "", fmt.Errorf("failed to load thread %s: %w", match.ThreadID, err)
		}

		b.WriteString(fmt.Sprintf("\nSimilar conversation %d (similarity %.3f):\n", i+1, match.Similarity))
		for _, msg := range thread {
			b.WriteString(fmt.Sprintf("%s: %s\n", msg.SenderClass, a.truncate(msg.BodyText)))
		}
	}

	b.WriteString("\nWrite the host's reply to the guest email. Keep it short, warm and specific.\n")
	b.WriteString("Answer only what the guest asked. Sign off the way the host does in the examples.\n")

	return b.String(), nil
}

func (a *Assembler) truncate(text string) string {
	runes := []rune(text)
	if a.truncateChars > 0 && len(runes) > a.truncateChars {
		return string(runes[:a.truncateChars]) + "..."
	}
	return text
}
