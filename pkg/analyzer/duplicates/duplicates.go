// Package duplicates detects near-identical code fragments using MinHash
// signatures over normalized AST token streams, with LSH banding to keep
// candidate pairing close to linear.
package duplicates

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"counsel/internal/fileproc"
	"counsel/pkg/analyzer"
	"counsel/pkg/config"
	"counsel/pkg/parser"
	"counsel/pkg/stats"
)

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer detects code clones.
type Analyzer struct {
	config     Config
	onProgress fileproc.ProgressFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinTokens sets the minimum fragment size in tokens.
func WithMinTokens(minTokens int) Option {
	return func(a *Analyzer) {
		a.config.MinTokens = minTokens
	}
}

// WithSimilarityThreshold sets the verified-similarity cutoff.
func WithSimilarityThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.config.SimilarityThreshold = threshold
	}
}

// WithConfig derives detection settings from the loaded configuration.
func WithConfig(cfg config.DuplicatesConfig) Option {
	return func(a *Analyzer) {
		a.config = Config{
			MinTokens:            cfg.MinTokens,
			SimilarityThreshold:  cfg.SimilarityThreshold,
			ShingleSize:          cfg.ShingleSize,
			NumHashFunctions:     cfg.NumHashFunctions,
			NumBands:             cfg.NumBands,
			NormalizeIdentifiers: cfg.NormalizeIdentifiers,
			NormalizeLiterals:    cfg.NormalizeLiterals,
			MinGroupSize:         cfg.MinGroupSize,
		}
	}
}

// WithProgress sets a callback invoked after each file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a duplication analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{config: DefaultConfig()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close implements analyzer.FileAnalyzer. Parsers are per-worker, so there
// is nothing to release here.
func (a *Analyzer) Close() {}

// fragment is one candidate unit for clone detection.
type fragment struct {
	file        string
	function    string
	startLine   uint32
	endLine     uint32
	tokens      []string
	fingerprint uint64
	signature   *MinHashSignature
}

// fileFragments carries the fragments of one file plus its line count.
type fileFragments struct {
	fragments []fragment
	lines     int
}

// Analyze detects clones across all files. Unparseable files are recorded
// in Analysis.Skipped and never abort the run.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	cfg := a.config

	perFile, errs := fileproc.MapFiles(ctx, files, func(psr *parser.Parser, path string) (fileFragments, error) {
		return extractFragments(psr, path, cfg)
	}, a.onProgress)

	var fragments []fragment
	totalLines := 0
	for _, ff := range perFile {
		fragments = append(fragments, ff.fragments...)
		totalLines += ff.lines
	}

	// Signature computation is deterministic per fragment, so ordering from
	// the parallel map does not matter yet.
	for i := range fragments {
		fragments[i].signature = computeMinHash(fragments[i].tokens, cfg)
		fragments[i].fingerprint = xxhash.Sum64String(strings.Join(fragments[i].tokens, " "))
	}

	pairs := a.candidatePairs(fragments)
	groups := a.groupFragments(fragments, pairs)

	analysis := &Analysis{
		Groups:       groups,
		FilesScanned: len(files),
		Threshold:    cfg.SimilarityThreshold,
	}
	if errs != nil {
		for _, pe := range errs.Errors {
			analysis.Skipped = append(analysis.Skipped, pe.Error())
		}
	}

	buildSummary(analysis, pairs, totalLines)
	return analysis, nil
}

// extractFragments parses a file and yields one fragment per function.
// Files without recognizable functions contribute a whole-file fragment.
func extractFragments(psr *parser.Parser, path string, cfg Config) (fileFragments, error) {
	result, err := psr.ParseFile(path)
	if err != nil {
		return fileFragments{}, err
	}

	lines := strings.Count(string(result.Source), "\n") + 1
	ff := fileFragments{lines: lines}

	functions := parser.GetFunctions(result)
	for _, fn := range functions {
		if fn.Body == nil {
			continue
		}
		tokens := normalizeTokens(parser.LeafTokens(fn.Body, result.Source), cfg)
		if len(tokens) < cfg.MinTokens {
			continue
		}
		ff.fragments = append(ff.fragments, fragment{
			file:      path,
			function:  fn.Name,
			startLine: fn.StartLine,
			endLine:   fn.EndLine,
			tokens:    tokens,
		})
	}

	if len(functions) == 0 {
		root := result.Tree.RootNode()
		tokens := normalizeTokens(parser.LeafTokens(root, result.Source), cfg)
		if len(tokens) >= cfg.MinTokens {
			ff.fragments = append(ff.fragments, fragment{
				file:      path,
				startLine: root.StartPoint().Row + 1,
				endLine:   root.EndPoint().Row + 1,
				tokens:    tokens,
			})
		}
	}

	return ff, nil
}

// normalizeTokens canonicalizes a leaf token stream. Identifiers map to
// VAR_n in order of first appearance within the fragment, so two fragments
// that differ only in naming produce identical streams. Literals collapse
// to LIT and comments are dropped.
func normalizeTokens(tokens []parser.Token, cfg Config) []string {
	result := make([]string, 0, len(tokens))
	idents := make(map[string]string)

	for _, tok := range tokens {
		switch tok.Kind {
		case parser.TokenComment:
			continue
		case parser.TokenLiteral:
			if cfg.NormalizeLiterals {
				result = append(result, "LIT")
				continue
			}
		case parser.TokenIdent:
			if cfg.NormalizeIdentifiers {
				canonical, ok := idents[tok.Text]
				if !ok {
					canonical = "VAR_" + strconv.Itoa(len(idents))
					idents[tok.Text] = canonical
				}
				result = append(result, canonical)
				continue
			}
		}
		if tok.Text != "" {
			result = append(result, tok.Text)
		}
	}

	return result
}

// computeMinHash builds a signature from blake3-hashed k-shingles, taking
// the per-seed minimum across shingles.
func computeMinHash(tokens []string, cfg Config) *MinHashSignature {
	shingles := shingleHashes(tokens, cfg.ShingleSize)
	if len(shingles) == 0 {
		return nil
	}

	signature := &MinHashSignature{Values: make([]uint64, cfg.NumHashFunctions)}
	for i := range signature.Values {
		signature.Values[i] = ^uint64(0)
	}

	for _, shingle := range shingles {
		for i := range signature.Values {
			h := mixWithSeed(shingle, uint64(i))
			if h < signature.Values[i] {
				signature.Values[i] = h
			}
		}
	}

	return signature
}

// shingleHashes hashes every k-token window with blake3. Sequences shorter
// than k hash as a single shingle.
func shingleHashes(tokens []string, k int) []uint64 {
	if len(tokens) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}

	h := blake3.New()
	if len(tokens) < k {
		for _, t := range tokens {
			h.WriteString(t)
			h.Write([]byte{0})
		}
		sum := h.Sum(nil)
		return []uint64{binary.LittleEndian.Uint64(sum[:8])}
	}

	set := make(map[uint64]struct{})
	for i := 0; i <= len(tokens)-k; i++ {
		h.Reset()
		for j := i; j < i+k; j++ {
			h.WriteString(tokens[j])
			h.Write([]byte{0})
		}
		sum := h.Sum(nil)
		set[binary.LittleEndian.Uint64(sum[:8])] = struct{}{}
	}

	hashes := make([]uint64, 0, len(set))
	for hash := range set {
		hashes = append(hashes, hash)
	}
	return hashes
}

// mixWithSeed is a murmur-style finalizer, cheap enough to run per
// shingle per seed without allocations.
func mixWithSeed(value, seed uint64) uint64 {
	h := value ^ seed
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

type pair struct {
	a, b       int
	similarity float64
}

// candidatePairs buckets signatures by banded hashes and verifies every
// co-bucketed pair against the similarity threshold.
func (a *Analyzer) candidatePairs(fragments []fragment) []pair {
	bands := a.config.NumBands
	rows := a.config.rowsPerBand()

	buckets := make([]map[uint64][]int, bands)
	for i := range buckets {
		buckets[i] = make(map[uint64][]int)
	}

	for idx, frag := range fragments {
		if frag.signature == nil {
			continue
		}
		for band := 0; band < bands; band++ {
			start := band * rows
			end := start + rows
			if end > len(frag.signature.Values) {
				end = len(frag.signature.Values)
			}
			if start >= end {
				continue
			}
			bandHash := hashBand(frag.signature.Values[start:end], uint64(band))
			buckets[band][bandHash] = append(buckets[band][bandHash], idx)
		}
	}

	candidates := make(map[uint64]struct{})
	for _, bandBuckets := range buckets {
		for _, bucket := range bandBuckets {
			if len(bucket) < 2 {
				continue
			}
			for i := 0; i < len(bucket); i++ {
				for j := i + 1; j < len(bucket); j++ {
					lo, hi := bucket[i], bucket[j]
					if lo > hi {
						lo, hi = hi, lo
					}
					candidates[uint64(lo)<<32|uint64(hi)] = struct{}{}
				}
			}
		}
	}

	var pairs []pair
	for key := range candidates {
		i := int(key >> 32)
		j := int(key & 0xFFFFFFFF)
		fa, fb := fragments[i], fragments[j]

		// A fragment never duplicates an overlapping span of its own file.
		if fa.file == fb.file && fa.startLine <= fb.endLine && fb.startLine <= fa.endLine {
			continue
		}

		similarity := fa.signature.Similarity(fb.signature)
		if similarity >= a.config.SimilarityThreshold {
			pairs = append(pairs, pair{a: i, b: j, similarity: similarity})
		}
	}

	return pairs
}

// hashBand combines one band of signature values FNV-1a style.
func hashBand(values []uint64, seed uint64) uint64 {
	const fnvPrime = 0x00000100000001B3
	h := seed ^ 0xcbf29ce484222325
	for _, v := range values {
		h ^= v
		h *= fnvPrime
	}
	return h
}

// groupFragments merges verified pairs into clone groups with union-find.
func (a *Analyzer) groupFragments(fragments []fragment, pairs []pair) []Group {
	if len(pairs) == 0 {
		return nil
	}

	parent := make([]int, len(fragments))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(x, y int) {
		px, py := find(x), find(y)
		if px != py {
			parent[px] = py
		}
	}

	for _, p := range pairs {
		union(p.a, p.b)
	}

	members := make(map[int][]int)
	for i := range fragments {
		root := find(i)
		members[root] = append(members[root], i)
	}

	similarities := make(map[[2]int]float64, len(pairs))
	for _, p := range pairs {
		key := [2]int{p.a, p.b}
		if p.a > p.b {
			key = [2]int{p.b, p.a}
		}
		similarities[key] = p.similarity
	}

	var groups []Group
	for _, idxs := range members {
		if len(idxs) < a.config.MinGroupSize {
			continue
		}

		var instances []Instance
		var totalLines, totalTokens int
		for _, idx := range idxs {
			frag := fragments[idx]
			lines := int(frag.endLine - frag.startLine + 1)
			instances = append(instances, Instance{
				File:        frag.file,
				Function:    frag.function,
				StartLine:   frag.startLine,
				EndLine:     frag.endLine,
				Lines:       lines,
				Tokens:      len(frag.tokens),
				Fingerprint: frag.fingerprint,
			})
			totalLines += lines
			totalTokens += len(frag.tokens)
		}

		var simSum float64
		var simCount int
		for i := 0; i < len(idxs); i++ {
			for j := i + 1; j < len(idxs); j++ {
				key := [2]int{idxs[i], idxs[j]}
				if idxs[i] > idxs[j] {
					key = [2]int{idxs[j], idxs[i]}
				}
				if sim, ok := similarities[key]; ok {
					simSum += sim
					simCount++
				}
			}
		}
		avgSimilarity := 1.0
		if simCount > 0 {
			avgSimilarity = simSum / float64(simCount)
		}

		sort.Slice(instances, func(i, j int) bool {
			if instances[i].File != instances[j].File {
				return instances[i].File < instances[j].File
			}
			return instances[i].StartLine < instances[j].StartLine
		})

		groups = append(groups, Group{
			Type:              classify(avgSimilarity),
			Instances:         instances,
			TotalLines:        totalLines,
			TotalTokens:       totalTokens,
			AverageSimilarity: avgSimilarity,
		})
	}

	// Stable ordering before assigning IDs keeps reports deterministic.
	sort.Slice(groups, func(i, j int) bool {
		gi, gj := groups[i].Instances[0], groups[j].Instances[0]
		if gi.File != gj.File {
			return gi.File < gj.File
		}
		return gi.StartLine < gj.StartLine
	})
	for i := range groups {
		groups[i].ID = i + 1
	}

	return groups
}

// buildSummary computes line accounting, similarity percentiles, and
// hotspots. Duplicated lines are counted once per file line via bitmaps,
// so overlapping instances cannot inflate the ratio.
func buildSummary(analysis *Analysis, pairs []pair, totalLines int) {
	summary := &analysis.Summary
	summary.TotalGroups = len(analysis.Groups)

	coverage := make(map[string]*roaring.Bitmap)
	fileGroups := make(map[string]map[int]bool)

	for _, group := range analysis.Groups {
		switch group.Type {
		case TypeExact:
			summary.ExactCount++
		case TypeParametric:
			summary.ParametricCount++
		case TypeStructural:
			summary.StructuralCount++
		}

		for _, inst := range group.Instances {
			bm, ok := coverage[inst.File]
			if !ok {
				bm = roaring.New()
				coverage[inst.File] = bm
			}
			bm.AddRange(uint64(inst.StartLine), uint64(inst.EndLine)+1)

			if fileGroups[inst.File] == nil {
				fileGroups[inst.File] = make(map[int]bool)
			}
			fileGroups[inst.File][group.ID] = true
		}
	}

	for _, bm := range coverage {
		summary.DuplicatedLines += int(bm.GetCardinality())
	}

	summary.TotalLines = totalLines
	if totalLines > 0 {
		ratio := float64(summary.DuplicatedLines) / float64(totalLines)
		if ratio > 1.0 {
			ratio = 1.0
		}
		summary.DuplicationRatio = ratio
	}

	if len(pairs) > 0 {
		sims := make([]float64, len(pairs))
		var sum float64
		for i, p := range pairs {
			sims[i] = p.similarity
			sum += p.similarity
		}
		summary.AvgSimilarity = sum / float64(len(pairs))

		sort.Float64s(sims)
		summary.P50Similarity = stats.Percentile(sims, 50)
		summary.P95Similarity = stats.Percentile(sims, 95)
	}

	for file, bm := range coverage {
		dupLines := int(bm.GetCardinality())
		groupCount := len(fileGroups[file])
		summary.Hotspots = append(summary.Hotspots, Hotspot{
			File:            file,
			DuplicatedLines: dupLines,
			GroupCount:      groupCount,
			Severity:        math.Log(float64(dupLines)+1) * math.Sqrt(float64(groupCount)),
		})
	}
	sort.Slice(summary.Hotspots, func(i, j int) bool {
		if summary.Hotspots[i].Severity != summary.Hotspots[j].Severity {
			return summary.Hotspots[i].Severity > summary.Hotspots[j].Severity
		}
		return summary.Hotspots[i].File < summary.Hotspots[j].File
	})
	if len(summary.Hotspots) > 10 {
		summary.Hotspots = summary.Hotspots[:10]
	}
}
