// util/generic.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import "golang.org/x/exp/constraints"

// Select returns a if sel is true and b otherwise.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	}
	return b
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

// MapSlice applies f to each element of the slice.
func MapSlice[F, T any](from []F, f func(F) T) []T {
	to := make([]T, len(from))
	for i, v := range from {
		to[i] = f(v)
	}
	return to
}
