//go:build unit || e2e

package testutil

import (
	"testing"

	"booking-engine/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

// RequireMarked fails the test unless err reaches target through its
// Unwrap chain or carries it as an errs.Mark.
func RequireMarked(t testing.TB, err, target error, msgAndArgs ...any) {
	t.Helper()
	if !AssertMarked(t, err, target, msgAndArgs...) {
		t.FailNow()
	}
}

// AssertMarked is the non-fatal form of RequireMarked.
func AssertMarked(t testing.TB, err, target error, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	return assert.Truef(t, errs.Is(err, target), "error %q is not marked with %q", err, target)
}
