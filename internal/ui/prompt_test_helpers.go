// ABOUTME: Test helpers for ui package
// ABOUTME: Provides synchronized access to global YesFlag and prompt input during testing
package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/davidsonoda/clenv/internal/config"
)

// testYesFlagMutex ensures only one test modifies YesFlag at a time
// This prevents race conditions when tests run in parallel
var testYesFlagMutex sync.Mutex

// withYesFlag safely sets YesFlag for the duration of a test
// It ensures exclusive access and automatic cleanup
func withYesFlag(t *testing.T, value bool, fn func()) {
	t.Helper()

	testYesFlagMutex.Lock()
	defer testYesFlagMutex.Unlock()

	originalFlag := config.YesFlag
	defer func() { config.YesFlag = originalFlag }()

	config.YesFlag = value
	fn()
}

// withInput feeds input to prompts and captures what they print
func withInput(t *testing.T, input string, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	prevOut := SetOutput(&buf)
	prevIn := in
	SetInput(strings.NewReader(input))
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetInput(prevIn)
	})

	fn()
	return buf.String()
}
