package ruletree

import "slices"

// InsertAt inserts v at index i (0 <= i <= len(list)).
func InsertAt[T any](list []T, i int, v T) []T {
	return slices.Insert(list, i, v)
}

// RemoveAt removes the element at index i.
func RemoveAt[T any](list []T, i int) []T {
	return slices.Delete(list, i, i+1)
}

// SwapNeighbor swaps list[i] with list[i+delta] for delta ±1 and returns the
// new index. At a list boundary nothing moves and ok is false.
func SwapNeighbor[T any](list []T, i, delta int) (int, bool) {
	j := i + delta
	if (delta != 1 && delta != -1) || i < 0 || i >= len(list) || j < 0 || j >= len(list) {
		return i, false
	}
	list[i], list[j] = list[j], list[i]
	return j, true
}
