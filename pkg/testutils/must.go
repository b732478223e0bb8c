package testutils

import (
	. "github.com/onsi/gomega"
)

// Must asserts a successful function call returning
// a value and an error. It returns the value.
func Must[T any](o T, err error) T {
	ExpectWithOffset(1, err).To(Succeed())
	return o
}

// Must2 is Must for functions returning two values.
func Must2[T, U any](o T, p U, err error) (T, U) {
	ExpectWithOffset(1, err).To(Succeed())
	return o, p
}

// MustBeSuccessful asserts a nil error.
func MustBeSuccessful(err error) {
	ExpectWithOffset(1, err).To(Succeed())
}

// MustFailWithMessage asserts an error with the given message.
func MustFailWithMessage(err error, msg string) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, err.Error()).To(Equal(msg))
}
