package tree

import (
	"fmt"
	"strings"
)

// StepLen is the number of characters encoding a single
// path step.
const StepLen = 4

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxStep is the highest step value encodable in StepLen
// characters. It limits the number of children per node.
const MaxStep = 36*36*36*36 - 1

// EncodeStep encodes a step value (starting with 1).
func EncodeStep(n int) (string, error) {
	if n < 1 || n > MaxStep {
		return "", fmt.Errorf("%w: step %d", ErrPathOverflow, n)
	}
	var b [StepLen]byte
	for i := StepLen - 1; i >= 0; i-- {
		b[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(b[:]), nil
}

// DecodeStep decodes a single path step.
func DecodeStep(s string) (int, error) {
	if len(s) != StepLen {
		return 0, fmt.Errorf("invalid step %q", s)
	}
	n := 0
	for _, c := range []byte(s) {
		i := strings.IndexByte(alphabet, c)
		if i < 0 {
			return 0, fmt.Errorf("invalid step %q", s)
		}
		n = n*len(alphabet) + i
	}
	return n, nil
}

// ValidPath checks the syntax of a materialized path.
func ValidPath(path string) bool {
	if len(path) == 0 || len(path)%StepLen != 0 {
		return false
	}
	for i := 0; i < len(path); i += StepLen {
		if n, err := DecodeStep(path[i : i+StepLen]); err != nil || n == 0 {
			return false
		}
	}
	return true
}

// Depth is the depth of a node with the given path.
// Roots have depth 0.
func Depth(path string) int {
	return len(path)/StepLen - 1
}

// ParentPath returns the path of the parent node,
// or the empty string for roots.
func ParentPath(path string) string {
	if len(path) <= StepLen {
		return ""
	}
	return path[:len(path)-StepLen]
}

// RootPath returns the path of the root of the tree
// containing the given path.
func RootPath(path string) string {
	if len(path) < StepLen {
		return path
	}
	return path[:StepLen]
}

// LastStep returns the step value of the last path element.
func LastStep(path string) int {
	if len(path) < StepLen {
		return 0
	}
	n, err := DecodeStep(path[len(path)-StepLen:])
	if err != nil {
		return 0
	}
	return n
}

// IsDescendant checks whether path is located strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	return len(path) > len(ancestor) && strings.HasPrefix(path, ancestor)
}

// Relative returns the path of a node relative to the given
// ancestor. The ancestor itself has the empty relative path.
// Clones keep the steps below their root, so relative paths
// of a tree and its clones are comparable.
func Relative(path, ancestor string) string {
	if !strings.HasPrefix(path, ancestor) {
		return path
	}
	return path[len(ancestor):]
}
