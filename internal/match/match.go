// Package match computes candidate pairings between two runs' anomalies by
// minimum-cost bipartite assignment over a weighted distance/clock/feature
// cost function, windowing large pair-passes for tractability and running
// independent pair-passes concurrently.
package match

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pipelinedata/ili-lineage/internal/config"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

const padCost = 1e6

// Pass holds the two record sets of one pairwise comparison (e.g. Y0 vs
// Y1) plus the run years they came from, for labeling the resulting
// ilimodel.Match values.
type Pass struct {
	Pair    ilimodel.RunPair
	ARecords []ilimodel.CanonicalRecord
	BRecords []ilimodel.CanonicalRecord
}

// Run solves one pairwise comparison, windowing if the candidate space is
// too large to solve directly.
func Run(ctx context.Context, p Pass, cfg config.MatchConfig) ([]ilimodel.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := Weights{Distance: cfg.WeightDistance, Clock: cfg.WeightClock, Feature: cfg.WeightFeature}
	g := Gate{MaxDistanceFt: cfg.MaxDistanceFt}

	if len(p.ARecords)*len(p.BRecords) <= cfg.WindowCellThreshold {
		return solveDirect(p, w, g, cfg.CostThreshold), nil
	}
	return solveWindowed(ctx, p, w, g, cfg)
}

// RunAll solves every pass concurrently, since the passes are independent
// of one another; windows within a single pass are still solved
// sequentially inside solveWindowed.
func RunAll(ctx context.Context, passes []Pass, cfg config.MatchConfig) (map[ilimodel.RunPair][]ilimodel.Match, error) {
	results := make([][]ilimodel.Match, len(passes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range passes {
		i, p := i, p
		g.Go(func() error {
			ms, err := Run(gctx, p, cfg)
			if err != nil {
				return err
			}
			results[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[ilimodel.RunPair][]ilimodel.Match, len(passes))
	for i, p := range passes {
		out[p.Pair] = results[i]
	}
	return out, nil
}

// solveDirect solves one full pass as a single assignment problem.
func solveDirect(p Pass, w Weights, g Gate, threshold float64) []ilimodel.Match {
	n, m := len(p.ARecords), len(p.BRecords)
	if n == 0 || m == 0 {
		return nil
	}

	costs := make([][]float64, n)
	compMatrix := make([][]ilimodel.MatchComponents, n)
	for i := range costs {
		costs[i] = make([]float64, m)
		compMatrix[i] = make([]ilimodel.MatchComponents, m)
		for j := range costs[i] {
			c, comps, gated := pairCost(p.ARecords[i], p.BRecords[j], w, g)
			if gated {
				c = padCost
			}
			costs[i][j] = c
			compMatrix[i][j] = comps
		}
	}

	assignment := solveAssignment(costs, padCost)
	var matches []ilimodel.Match
	for i, j := range assignment {
		if j < 0 {
			continue
		}
		cost := costs[i][j]
		if cost >= padCost {
			continue
		}
		matches = append(matches, ilimodel.Match{
			ARunYear:   p.ARecords[i].RunYear,
			ARowIndex:  p.ARecords[i].RowIndex,
			BRunYear:   p.BRecords[j].RunYear,
			BRowIndex:  p.BRecords[j].RowIndex,
			Cost:       cost,
			Score:      math.Max(0, 1-cost),
			Components: compMatrix[i][j],
			Accepted:   cost <= threshold,
		})
	}
	return matches
}

// window is a half-open range [StartFt, EndFt) along the odometer axis.
type window struct {
	StartFt, EndFt float64
}

func buildWindows(minFt, maxFt, size, step float64) []window {
	if size <= 0 || step <= 0 || maxFt < minFt {
		return []window{{StartFt: minFt, EndFt: maxFt + 1}}
	}
	var windows []window
	for start := minFt; start <= maxFt; start += step {
		windows = append(windows, window{StartFt: start, EndFt: start + size})
	}
	return windows
}

func inWindow(pos float64, w window) bool {
	return pos >= w.StartFt && pos < w.EndFt
}

func recordPosition(r ilimodel.CanonicalRecord) float64 {
	if r.CorrectedOdometerFt != nil {
		return *r.CorrectedOdometerFt
	}
	if r.OdometerFt != nil {
		return *r.OdometerFt
	}
	return 0
}

// solveWindowed partitions a large pass into overlapping windows along the
// odometer axis, solving each window as its own assignment problem. Windows
// overlap (WindowStepFt < WindowSizeFt) so that a true pair straddling a
// window boundary is still solved together in at least one window. Windows
// are solved in ascending position order within a pass, and a record that
// received a match in one window is excluded from every later window.
// Cancellation is checked before each window.
func solveWindowed(ctx context.Context, p Pass, w Weights, g Gate, cfg config.MatchConfig) ([]ilimodel.Match, error) {
	minFt, maxFt := recordRange(p.ARecords, p.BRecords)
	windows := buildWindows(minFt, maxFt, cfg.WindowSizeFt, cfg.WindowStepFt)

	type key struct{ a, b int }
	best := make(map[key]ilimodel.Match)
	matchedA := make(map[int]bool)
	matchedB := make(map[int]bool)

	for _, win := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var sub Pass
		sub.Pair = p.Pair
		for _, r := range p.ARecords {
			if inWindow(recordPosition(r), win) && !matchedA[r.RowIndex] {
				sub.ARecords = append(sub.ARecords, r)
			}
		}
		for _, r := range p.BRecords {
			if inWindow(recordPosition(r), win) && !matchedB[r.RowIndex] {
				sub.BRecords = append(sub.BRecords, r)
			}
		}
		for _, m := range solveDirect(sub, w, g, cfg.CostThreshold) {
			matchedA[m.ARowIndex] = true
			matchedB[m.BRowIndex] = true
			k := key{m.ARowIndex, m.BRowIndex}
			if cur, ok := best[k]; !ok || m.Cost < cur.Cost {
				best[k] = m
			}
		}
	}

	// Rows are excluded once matched, so each record appears in at most one
	// entry; the pass below emits the matches ordered by A row index.
	bestPerA := make(map[int]ilimodel.Match)
	for _, m := range best {
		if cur, ok := bestPerA[m.ARowIndex]; !ok || m.Cost < cur.Cost {
			bestPerA[m.ARowIndex] = m
		}
	}
	usedB := make(map[int]bool)
	matches := make([]ilimodel.Match, 0, len(bestPerA))
	aKeys := make([]int, 0, len(bestPerA))
	for a := range bestPerA {
		aKeys = append(aKeys, a)
	}
	sort.Ints(aKeys)
	for _, a := range aKeys {
		m := bestPerA[a]
		if usedB[m.BRowIndex] {
			continue
		}
		usedB[m.BRowIndex] = true
		matches = append(matches, m)
	}
	return matches, nil
}

func recordRange(a, b []ilimodel.CanonicalRecord) (float64, float64) {
	min, max := 0.0, 0.0
	first := true
	for _, set := range [][]ilimodel.CanonicalRecord{a, b} {
		for _, r := range set {
			pos := recordPosition(r)
			if first {
				min, max = pos, pos
				first = false
				continue
			}
			if pos < min {
				min = pos
			}
			if pos > max {
				max = pos
			}
		}
	}
	return min, max
}
