package session

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/episode"
)

// ContextRestorer seeds a new session with shared variables recovered from
// past episodes. Implementations classify the query, scan the episode index
// and return the variables to inject; the Manager tags each one as restored.
// Restoration is best-effort: an error aborts restoration, never the session.
type ContextRestorer interface {
	Restore(query string, episodes *episode.Index) ([]core.SharedVariable, error)
}

// DefaultRestorationWindow is how many recent episodes the keyword restorer
// scans per matching family.
const DefaultRestorationWindow = 10

// summaryLimit caps the fallback text summary injected when no typed value
// can be parsed.
const summaryLimit = 200

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// restorationFamily maps a keyword family in the query to a tool-usage
// signature in past episodes.
type restorationFamily struct {
	name     string
	keywords []string
	tools    []string
	variable string
}

// KeywordRestorer classifies the query into keyword families (calculation,
// database, search) and, per matching family, scans the most recent episodes
// for a matching tool signature. Calculator results are parsed into a typed
// numeric value; everything else falls back to a truncated text summary.
type KeywordRestorer struct {
	window   int
	families []restorationFamily
}

// NewKeywordRestorer creates a KeywordRestorer scanning
// DefaultRestorationWindow recent episodes per family.
func NewKeywordRestorer(optFns ...func(*KeywordRestorer)) *KeywordRestorer {
	r := &KeywordRestorer{
		window: DefaultRestorationWindow,
		families: []restorationFamily{
			{
				name:     "calculation",
				keywords: []string{"calculate", "calculation", "calculated", "computed", "math", "result", "number"},
				tools:    []string{"calculator"},
				variable: "last_calculation_result",
			},
			{
				name:     "database",
				keywords: []string{"database", "data", "stored", "saved", "retrieved"},
				tools:    []string{"database"},
				variable: "last_database_result",
			},
			{
				name:     "search",
				keywords: []string{"search", "information", "find", "about", "lookup"},
				tools:    []string{"web_search", "wikipedia"},
				variable: "last_search_result",
			},
		},
	}
	for _, fn := range optFns {
		fn(r)
	}
	if r.window <= 0 {
		r.window = DefaultRestorationWindow
	}
	return r
}

// WithWindow overrides the number of recent episodes scanned per family.
func WithWindow(n int) func(*KeywordRestorer) {
	return func(r *KeywordRestorer) { r.window = n }
}

// Restore scans recent episodes for each keyword family the query matches
// and extracts one shared variable per family, most recent episode first.
func (r *KeywordRestorer) Restore(query string, episodes *episode.Index) ([]core.SharedVariable, error) {
	if episodes == nil || episodes.Len() == 0 {
		return nil, nil
	}
	queryLower := strings.ToLower(query)

	recent := episodes.Episodes()
	if len(recent) > r.window {
		recent = recent[:r.window]
	}

	var restored []core.SharedVariable
	for _, family := range r.families {
		if !matchesAny(queryLower, family.keywords) {
			continue
		}
		for _, ep := range recent {
			tool, ok := usedAny(ep, family.tools)
			if !ok || !ep.Success {
				continue
			}
			restored = append(restored, core.SharedVariable{
				Key:        family.variable,
				Value:      r.extractValue(family, ep),
				SourceTool: tool,
				Timestamp:  ep.Timestamp,
			})
			break
		}
	}
	return restored, nil
}

// extractValue pulls a typed value out of the episode response. The
// calculation family parses the last number in the response; on parse failure
// (and for every other family) a truncated text summary is used instead.
func (r *KeywordRestorer) extractValue(family restorationFamily, ep *core.Episode) any {
	if family.name == "calculation" {
		if numbers := numberPattern.FindAllString(ep.Response, -1); len(numbers) > 0 {
			if value, err := strconv.ParseFloat(numbers[len(numbers)-1], 64); err == nil {
				return value
			}
		}
	}
	summary := ep.Response
	if len(summary) > summaryLimit {
		cut := summaryLimit
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}
	return summary
}

func matchesAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func usedAny(ep *core.Episode, tools []string) (string, bool) {
	for _, used := range ep.ToolsUsed {
		for _, tool := range tools {
			if used == tool {
				return tool, true
			}
		}
	}
	return "", false
}

// NoOpRestorer restores nothing. Plug it in to disable session restoration.
type NoOpRestorer struct{}

// Restore always returns no variables.
func (NoOpRestorer) Restore(string, *episode.Index) ([]core.SharedVariable, error) {
	return nil, nil
}
