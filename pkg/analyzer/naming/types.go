package naming

// Rule names used in issues.
const (
	RuleTooShort      = "naming/too-short"
	RuleNumericSuffix = "naming/numeric-suffix"
	RuleAbbreviation  = "naming/abbreviation"
	RuleVague         = "naming/vague"
)

// Issue flags one identifier under one heuristic.
type Issue struct {
	Rule      string `json:"rule"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Line      uint32 `json:"line"`
	Column    uint32 `json:"column"`
	Enclosing string `json:"enclosing,omitempty"`
	Message   string `json:"message"`
}

// FileResult holds issues for one file. NameLengths feeds the summary
// statistics and stays out of serialized output.
type FileResult struct {
	Path        string  `json:"path"`
	Language    string  `json:"language"`
	Identifiers int     `json:"identifiers"`
	Issues      []Issue `json:"issues,omitempty"`
	NameLengths []int   `json:"-"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalFiles       int            `json:"total_files"`
	TotalIdentifiers int            `json:"total_identifiers"`
	FlaggedCount     int            `json:"flagged_count"`
	ByRule           map[string]int `json:"by_rule"`
	MeanNameLength   float64        `json:"mean_name_length"`
	StdDevNameLength float64        `json:"stddev_name_length"`
}

// Analysis is the full naming result.
type Analysis struct {
	Files   []FileResult `json:"files"`
	Summary Summary      `json:"summary"`
	Skipped []string     `json:"skipped,omitempty"`
}

// Config holds the heuristic settings.
type Config struct {
	MinLength       int
	AllowShort      map[string]bool
	VagueNames      map[string]bool
	KnownAbbrevs    map[string]bool
	FlagNumericTail bool
}

// DefaultConfig returns the stock heuristic settings.
func DefaultConfig() Config {
	return Config{
		MinLength: 3,
		AllowShort: makeSet([]string{
			"i", "j", "k", "n", "x", "y", "z",
			"ok", "id", "db", "fd", "ip", "wg", "tx", "rx", "mu",
		}),
		VagueNames: makeSet([]string{
			"data", "info", "temp", "tmp", "obj", "foo", "bar",
			"stuff", "thing", "value", "val", "misc",
		}),
		KnownAbbrevs: makeSet([]string{
			"mgr", "cnt", "idx", "num", "str", "usr", "pwd",
			"svc", "hdlr", "proc", "calc", "upd", "del", "impl",
		}),
		FlagNumericTail: true,
	}
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
