// Package graph implements C2: it walks a repository, dispatches each
// file to internal/analyze, merges the resulting components into a
// single table, resolves call/containment edges by exact id match, and
// computes the leaf set that drives Stage 2 clustering.
package graph

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/archloom/archloom/internal/analyze"
	archerrors "github.com/archloom/archloom/internal/errors"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/walker"
)

// BuildResult is the output of Build: the full component table, the
// resolved dependency graph, and the computed leaf id set.
type BuildResult struct {
	Components model.ComponentTable
	Graph      *model.DependencyGraph
	Leaves     []string
}

// Build walks repoRoot, analyzes every matched file with up to
// maxConcurrency workers (grounded in indexer.Batcher's semaphore +
// mutex + sync.WaitGroup shape), and returns the merged result. Returns
// archerrors.ErrEmptyRepository when zero components are found. File
// analysis runs under a 5-minute ceiling; on expiry Build returns the
// context error.
func Build(ctx context.Context, repoRoot string, include, exclude []string, maxConcurrency int) (*BuildResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: repoRoot,
		Include: include,
		Exclude: exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: walking repo: %w", err)
	}

	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	sem := make(chan struct{}, maxConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var parseFailures int64

	components := model.ComponentTable{}
	var rawEdges []model.Edge

	for _, f := range files {
		a := analyze.Dispatch(f.RelPath)
		if a == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(f walker.FileInfo, a analyze.Analyzer) {
			defer wg.Done()
			defer func() { <-sem }()

			content, err := os.ReadFile(f.Path)
			if err != nil {
				atomic.AddInt64(&parseFailures, 1)
				return
			}

			comps, edges := a.Analyze(f.Path, content, repoRoot)

			mu.Lock()
			for _, c := range comps {
				components[c.ID] = c
			}
			rawEdges = append(rawEdges, edges...)
			mu.Unlock()
		}(f, a)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(components) == 0 {
		return nil, archerrors.ErrEmptyRepository
	}

	g := model.NewDependencyGraph()
	for _, e := range rawEdges {
		callee, ok := resolveCallee(components, e.CalleeID)
		if !ok {
			continue
		}
		g.AddResolved(e.CallerID, callee)
	}
	// Ensure every component has a graph entry, even with no outgoing edges.
	for id := range components {
		g.Callees(id)
	}

	leaves := Leaves(components, g)

	return &BuildResult{Components: components, Graph: g, Leaves: leaves}, nil
}

// resolveCallee looks up calleeID by exact id match against the
// component table. Analyzer-emitted edges carry a bare name
// ("helper","Widget") rather than a fully qualified id, so resolution
// also accepts a calleeID equal to the Name field of exactly one
// component; ambiguous or absent names are
// left unresolved, per spec §4.2's "no fuzzy resolution" rule — this
// widens exact match to the id's own Name field, not to substring search.
func resolveCallee(components model.ComponentTable, calleeID string) (string, bool) {
	if _, ok := components[calleeID]; ok {
		return calleeID, true
	}
	var match string
	count := 0
	for id, c := range components {
		if c.Name == calleeID {
			match = id
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

// errorFlavoredSubstrings are the substrings spec §4.2 uses to exclude
// error-plumbing components from the leaf set.
var errorFlavoredSubstrings = []string{"error", "exception", "failed", "invalid"}

// Leaves computes the leaf id set per spec §3/§4.2: empty outgoing
// resolved-edge set, an eligible kind (function admitted only when the
// repo has none of class/interface/struct), then filtered to drop empty
// ids, error-flavored names, and ids pointing at non-leaf kinds.
func Leaves(components model.ComponentTable, g *model.DependencyGraph) []string {
	hasPreferredKind := false
	for _, c := range components {
		if model.LeafKinds[c.Kind] {
			hasPreferredKind = true
			break
		}
	}

	var leaves []string
	for id, c := range components {
		if len(g.Callees(id)) != 0 {
			continue
		}
		eligible := model.LeafKinds[c.Kind] || (!hasPreferredKind && c.Kind == model.KindFunction)
		if !eligible {
			continue
		}
		leaves = append(leaves, id)
	}

	var filtered []string
	for _, id := range leaves {
		if id == "" {
			continue
		}
		lower := strings.ToLower(id)
		flagged := false
		for _, substr := range errorFlavoredSubstrings {
			if strings.Contains(lower, substr) {
				flagged = true
				break
			}
		}
		if flagged {
			continue
		}
		c, ok := components[id]
		if !ok || !eligibleKind(c.Kind, hasPreferredKind) {
			continue
		}
		filtered = append(filtered, id)
	}

	// components is a map, so the range order above is randomized per
	// run; sort here so module_tree.json stays byte-equal across runs
	// with identical input, per spec §8's idempotent re-run property.
	sort.Strings(filtered)

	return filtered
}

func eligibleKind(k model.Kind, hasPreferredKind bool) bool {
	return model.LeafKinds[k] || (!hasPreferredKind && k == model.KindFunction)
}
