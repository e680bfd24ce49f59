package duplicates

// Type classifies how close the members of a clone group are.
type Type string

const (
	TypeExact      Type = "exact"      // token-identical after whitespace
	TypeParametric Type = "parametric" // identifiers or literals differ
	TypeStructural Type = "structural" // statements added or removed
)

func (t Type) String() string {
	return string(t)
}

// Instance is one occurrence of a duplicated fragment.
type Instance struct {
	File        string `json:"file"`
	Function    string `json:"function,omitempty"`
	StartLine   uint32 `json:"start_line"`
	EndLine     uint32 `json:"end_line"`
	Lines       int    `json:"lines"`
	Tokens      int    `json:"tokens"`
	Fingerprint uint64 `json:"fingerprint"`
}

// Group is a set of near-identical fragments.
type Group struct {
	ID                int        `json:"id"`
	Type              Type       `json:"type"`
	Instances         []Instance `json:"instances"`
	TotalLines        int        `json:"total_lines"`
	TotalTokens       int        `json:"total_tokens"`
	AverageSimilarity float64    `json:"average_similarity"`
}

// Hotspot is a file with a high concentration of duplication.
type Hotspot struct {
	File            string  `json:"file"`
	DuplicatedLines int     `json:"duplicated_lines"`
	GroupCount      int     `json:"group_count"`
	Severity        float64 `json:"severity"`
}

// Summary provides aggregate statistics for a run.
type Summary struct {
	TotalGroups      int       `json:"total_groups"`
	ExactCount       int       `json:"exact_count"`
	ParametricCount  int       `json:"parametric_count"`
	StructuralCount  int       `json:"structural_count"`
	DuplicatedLines  int       `json:"duplicated_lines"`
	TotalLines       int       `json:"total_lines"`
	DuplicationRatio float64   `json:"duplication_ratio"`
	AvgSimilarity    float64   `json:"avg_similarity"`
	P50Similarity    float64   `json:"p50_similarity"`
	P95Similarity    float64   `json:"p95_similarity"`
	Hotspots         []Hotspot `json:"hotspots,omitempty"`
}

// Analysis is the full duplication result.
type Analysis struct {
	Groups       []Group  `json:"groups"`
	Summary      Summary  `json:"summary"`
	FilesScanned int      `json:"files_scanned"`
	Threshold    float64  `json:"threshold"`
	Skipped      []string `json:"skipped,omitempty"`
}

// MinHashSignature estimates Jaccard similarity between token sets.
type MinHashSignature struct {
	Values []uint64 `json:"values"`
}

// Similarity is the fraction of matching signature positions, an unbiased
// estimate of the Jaccard similarity of the underlying shingle sets.
func (s *MinHashSignature) Similarity(other *MinHashSignature) float64 {
	if s == nil || other == nil || len(s.Values) != len(other.Values) || len(s.Values) == 0 {
		return 0
	}

	matches := 0
	for i := range s.Values {
		if s.Values[i] == other.Values[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(s.Values))
}

// Config holds duplication detection settings.
type Config struct {
	MinTokens            int
	SimilarityThreshold  float64
	ShingleSize          int
	NumHashFunctions     int
	NumBands             int
	NormalizeIdentifiers bool
	NormalizeLiterals    bool
	MinGroupSize         int
}

// DefaultConfig returns the stock detection settings.
func DefaultConfig() Config {
	return Config{
		MinTokens:            50,
		SimilarityThreshold:  0.8,
		ShingleSize:          5,
		NumHashFunctions:     200,
		NumBands:             20,
		NormalizeIdentifiers: true,
		NormalizeLiterals:    true,
		MinGroupSize:         2,
	}
}

// rowsPerBand derives the band height from the signature length.
func (c Config) rowsPerBand() int {
	if c.NumBands <= 0 {
		return 1
	}
	rows := c.NumHashFunctions / c.NumBands
	if rows < 1 {
		rows = 1
	}
	return rows
}

// classify maps average similarity to a clone type.
func classify(similarity float64) Type {
	switch {
	case similarity >= 0.95:
		return TypeExact
	case similarity >= 0.85:
		return TypeParametric
	default:
		return TypeStructural
	}
}
