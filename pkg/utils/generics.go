package utils

import (
	"cmp"
	"reflect"
	"slices"
)

// TypeOf provides the reflect type of T, also for interface types.
func TypeOf[T any]() reflect.Type {
	var t T
	return reflect.TypeOf(&t).Elem()
}

// SortedKeys returns the keys of a map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	r := make([]K, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	slices.Sort(r)
	return r
}

func TransformSlice[E any, A ~[]E, T any](in A, m func(E) T) []T {
	r := make([]T, len(in))
	for i, v := range in {
		r[i] = m(v)
	}
	return r
}

// FilterSlice returns the elements accepted by f, keeping their order.
func FilterSlice[E any, A ~[]E](in A, f func(E) bool) A {
	var r A
	for _, v := range in {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}
