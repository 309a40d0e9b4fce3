// Package combin enumerates k-element subsets lazily in lexicographic order.
package combin

import "iter"

// Indices yields every k-subset of {0, ..., m-1} as an ascending index tuple.
// Tuples arrive in lexicographic order. The yielded slice is reused between
// iterations; callers that keep it must copy it.
//
// k == 0 yields a single empty tuple; k < 0 or k > m yields nothing.
func Indices(m, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > m {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(idx) {
				return
			}
			// Rightmost slot that has not reached its ceiling.
			i := k - 1
			for i >= 0 && idx[i] == m-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// Choose yields every k-element subset of s, each preserving s's relative
// order. Every yielded slice is freshly allocated.
func Choose[T any](s []T, k int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for idx := range Indices(len(s), k) {
			subset := make([]T, len(idx))
			for i, j := range idx {
				subset[i] = s[j]
			}
			if !yield(subset) {
				return
			}
		}
	}
}

// Binomial returns C(n, k), or 0 when k is out of range.
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}
