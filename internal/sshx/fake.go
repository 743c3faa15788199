package sshx

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is an in-memory Runner used by tests of the modules that issue
// remote commands. Responses match on substring; unmatched commands succeed
// with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Result
	Errs      map[string]error
	Commands  []string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: map[string]Result{},
		Errs:      map[string]error{},
	}
}

func (f *FakeRunner) Run(_ context.Context, command string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, command)
	for sub, err := range f.Errs {
		if strings.Contains(command, sub) {
			return Result{}, err
		}
	}
	for sub, res := range f.Responses {
		if strings.Contains(command, sub) {
			return res, nil
		}
	}
	return Result{}, nil
}

// Ran reports whether any recorded command contains sub.
func (f *FakeRunner) Ran(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Commands {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// Index returns the position of the first command containing sub, or -1.
func (f *FakeRunner) Index(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.Commands {
		if strings.Contains(c, sub) {
			return i
		}
	}
	return -1
}
