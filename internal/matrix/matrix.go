// Package matrix provides the read-only asymmetric cost lookup the
// clustering core builds on. Routing (downstream) uses directed cost;
// clustering always goes through Dist, which commits to the cheaper
// direction so a caller can never accidentally use a directed cost here.
package matrix

import "fmt"

// Matrix is a dense N×N cost table indexed by location index.
type Matrix struct {
	n    int
	data [][]int64
}

// New wraps a dense N×N table. It does not copy data.
func New(data [][]int64) (Matrix, error) {
	n := len(data)
	for i, row := range data {
		if len(row) != n {
			return Matrix{}, fmt.Errorf("matrix: row %d has length %d, want %d", i, len(row), n)
		}
		for _, v := range row {
			if v < 0 {
				return Matrix{}, fmt.Errorf("matrix: negative cost at row %d", i)
			}
		}
	}
	return Matrix{n: n, data: data}, nil
}

// Size returns N, the number of distinct locations.
func (m Matrix) Size() int { return m.n }

// Dist returns min(M[a][b], M[b][a]), the bidirectional cost clustering
// always uses.
func (m Matrix) Dist(a, b int) int64 {
	ab := m.data[a][b]
	ba := m.data[b][a]
	if ba < ab {
		return ba
	}
	return ab
}

// Directed returns the raw M[a][b], for collaborators (e.g. downstream
// routing) that need the asymmetric cost rather than the bidirectional
// minimum.
func (m Matrix) Directed(a, b int) int64 { return m.data[a][b] }
