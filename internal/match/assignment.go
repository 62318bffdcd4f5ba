package match

// solveAssignment finds a minimum-cost one-to-one assignment between rows
// and columns of a (possibly rectangular) cost matrix, using the classic
// O(n^3) shortest-augmenting-path Hungarian algorithm. No library in the
// retrieved corpus implements bipartite assignment, so this is hand-rolled.
//
// The matrix is padded to square with padCost (expected to be larger than
// any real cost, so padding is only ever chosen when a row or column has no
// real counterpart). The result gives, for each original row index, the
// assigned original column index, or -1 if the row was assigned to padding
// (i.e. has no real counterpart).
func solveAssignment(cost [][]float64, padCost float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	size := n
	if m > size {
		size = m
	}

	// 1-indexed cost matrix, per the classic formulation.
	a := make([][]float64, size+1)
	for i := range a {
		a[i] = make([]float64, size+1)
	}
	for i := 1; i <= size; i++ {
		for j := 1; j <= size; j++ {
			if i <= n && j <= m {
				a[i][j] = cost[i-1][j-1]
			} else {
				a[i][j] = padCost
			}
		}
	}

	const inf = 1e18
	u := make([]float64, size+1)
	v := make([]float64, size+1)
	p := make([]int, size+1)
	way := make([]int, size+1)

	for i := 1; i <= size; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, size+1)
		used := make([]bool, size+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= size; j++ {
				if used[j] {
					continue
				}
				cur := a[i0][j] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= size; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= size; j++ {
		if p[j] == 0 {
			continue
		}
		row := p[j] - 1
		col := j - 1
		if row < n && col < m {
			result[row] = col
		}
	}
	return result
}
