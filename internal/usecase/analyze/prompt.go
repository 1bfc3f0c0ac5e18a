package analyze

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/kwharvest/internal/domain"
)

// Mode selects the analysis performed on a keyword list.
type Mode string

// Analysis modes.
const (
	ModeIntent  Mode = "intent"
	ModeCluster Mode = "cluster"
	ModeExpand  Mode = "expand"
)

// ParseMode validates a mode name. An empty name means intent.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeIntent, nil
	case ModeIntent, ModeCluster, ModeExpand:
		return m, nil
	default:
		return "", fmt.Errorf("mode %q: %w", s, domain.ErrInvalidAnalysisMode)
	}
}

// Prompt builds the model prompt for a mode.
func Prompt(mode Mode, keywords []string) string {
	list := strings.Join(keywords, "\n")
	switch mode {
	case ModeCluster:
		return "Group the following SEO keywords into semantic clusters. " +
			"Return a JSON object where keys are cluster names and values are arrays of keywords.\n\n" +
			"Keywords:\n" + list
	case ModeExpand:
		return "Generate 10 new, high-value long-tail keyword variations based on this list, " +
			"focused on Persian/Farsi markets if applicable. Return a JSON array of strings.\n\n" +
			"List:\n" + list
	default:
		return "Analyze the search intent (Informational, Transactional, Navigational, Commercial) " +
			"for the following keywords. Return a JSON object where keys are keywords and values are intents.\n\n" +
			"Keywords:\n" + list
	}
}
