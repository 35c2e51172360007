package lighting

import (
	"slices"
)

// LightIndexQueue is the ordered set of light indices of one light collection that no renderer
// has claimed yet. Renderers of a chain are handed the same queue in turn; each removes the
// indices it takes, so later renderers only see what earlier ones left.
type LightIndexQueue struct {
	indices []int
}

// Reset fills the queue with 0..count-1.
func (q *LightIndexQueue) Reset(count int) {
	q.indices = q.indices[:0]
	for i := range count {
		q.indices = append(q.indices, i)
	}
}

// Len returns the number of unclaimed indices.
func (q *LightIndexQueue) Len() int {
	return len(q.indices)
}

// At returns the unclaimed index at position i.
func (q *LightIndexQueue) At(i int) int {
	return q.indices[i]
}

// Claim removes and returns the index at position i. Positions after i shift down by one.
func (q *LightIndexQueue) Claim(i int) int {
	idx := q.indices[i]
	q.indices = slices.Delete(q.indices, i, i+1)
	return idx
}

// ClaimAll removes every index and returns them in queue order.
func (q *LightIndexQueue) ClaimAll() []int {
	out := slices.Clone(q.indices)
	q.indices = q.indices[:0]
	return out
}

// Sort reorders the unclaimed indices with a stable sort.
func (q *LightIndexQueue) Sort(cmp func(a, b int) int) {
	slices.SortStableFunc(q.indices, cmp)
}

// Indices returns a copy of the unclaimed indices.
func (q *LightIndexQueue) Indices() []int {
	return slices.Clone(q.indices)
}
