package cluster

import "container/heap"

// candidateHeap orders job ranks by score, descending. Scores are
// recomputed on every access rather than cached, so a full re-heapify
// before each peek/pop is what keeps the order correct — linear in
// candidate count, which is cheap next to the cost-update it follows.
type candidateHeap struct {
	ids   []int
	score func(j int) float64
}

func (h *candidateHeap) Len() int            { return len(h.ids) }
func (h *candidateHeap) Less(i, k int) bool  { return h.score(h.ids[i]) > h.score(h.ids[k]) }
func (h *candidateHeap) Swap(i, k int)       { h.ids[i], h.ids[k] = h.ids[k], h.ids[i] }
func (h *candidateHeap) Push(x interface{}) { h.ids = append(h.ids, x.(int)) }
func (h *candidateHeap) Pop() interface{} {
	old := h.ids
	n := len(old)
	x := old[n-1]
	h.ids = old[:n-1]
	return x
}

// peekTop re-heapifies ids under score and returns the top element
// without removing it.
func peekTop(ids []int, score func(int) float64) (top int, ok bool) {
	if len(ids) == 0 {
		return 0, false
	}
	h := &candidateHeap{ids: ids, score: score}
	heap.Init(h)
	return h.ids[0], true
}

// topAndPop re-heapifies ids under score, returns the top element and the
// remaining slice with that element removed.
func topAndPop(ids []int, score func(int) float64) (top int, rest []int, ok bool) {
	if len(ids) == 0 {
		return 0, ids, false
	}
	h := &candidateHeap{ids: ids, score: score}
	heap.Init(h)
	top = h.ids[0]
	heap.Pop(h)
	return top, h.ids, true
}

// removeValue deletes the first occurrence of v from s, preserving the
// order of the remaining elements.
func removeValue(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func anyNonEmpty(ss [][]int) bool {
	for _, s := range ss {
		if len(s) > 0 {
			return true
		}
	}
	return false
}
