package task

import "strings"

// HandlerID names a supported operation.
type HandlerID string

const (
	FetchAPI        HandlerID = "fetch_api"
	GitCommit       HandlerID = "git_commit"
	SQLQuery        HandlerID = "sql_query"
	ScrapeSite      HandlerID = "scrape_site"
	CompressImage   HandlerID = "compress_image"
	TranscribeAudio HandlerID = "transcribe_audio"
	ConvertMarkdown HandlerID = "convert_markdown"
	FilterCSV       HandlerID = "filter_csv"
)

// Rule selects Handler when every keyword occurs in the task text.
type Rule struct {
	Keywords []string  `json:"keywords"`
	Handler  HandlerID `json:"handler"`
}

// Matches uses plain substring containment, so "sql" also matches "mysql".
func (r Rule) Matches(text string) bool {
	if len(r.Keywords) == 0 {
		return false
	}
	for _, kw := range r.Keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

// DefaultRules returns the rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"fetch", "api"}, Handler: FetchAPI},
		{Keywords: []string{"clone", "git"}, Handler: GitCommit},
		{Keywords: []string{"sql", "query"}, Handler: SQLQuery},
		{Keywords: []string{"scrape", "website"}, Handler: ScrapeSite},
		{Keywords: []string{"compress", "image"}, Handler: CompressImage},
		{Keywords: []string{"transcribe", "audio"}, Handler: TranscribeAudio},
		{Keywords: []string{"convert markdown"}, Handler: ConvertMarkdown},
		{Keywords: []string{"filter", "csv"}, Handler: FilterCSV},
	}
}

// Matcher picks at most one handler for a normalized task text. The first
// matching rule wins; the table is never reordered.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		copied[i] = Rule{Keywords: append([]string(nil), r.Keywords...), Handler: r.Handler}
	}
	return &Matcher{rules: copied}
}

func (m *Matcher) Match(text string) (HandlerID, bool) {
	for _, r := range m.rules {
		if r.Matches(text) {
			return r.Handler, true
		}
	}
	return "", false
}

// Rules returns a copy of the table in priority order.
func (m *Matcher) Rules() []Rule {
	return NewMatcher(m.rules).rules
}

// Normalize case-folds task text before matching.
func Normalize(text string) string {
	return strings.ToLower(text)
}
