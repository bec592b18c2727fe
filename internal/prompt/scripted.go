package prompt

import (
	"context"
	"errors"
	"sync"
)

// Scripted replays canned answers, for tests and non-interactive runs.
type Scripted struct {
	Inputs     []string
	Selections []int

	mu      sync.Mutex
	asked   []string
	inputs  int
	selects int
}

// ErrScriptExhausted is returned once every canned answer has been used.
var ErrScriptExhausted = errors.New("prompt: no scripted answer left")

// Input returns the next scripted input.
func (s *Scripted) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, cfg.Message)
	if s.inputs >= len(s.Inputs) {
		return "", ErrScriptExhausted
	}
	answer := s.Inputs[s.inputs]
	s.inputs++
	if answer == "" {
		answer = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// Select returns the next scripted selection.
func (s *Scripted) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, cfg.Message)
	if s.selects >= len(s.Selections) {
		return 0, ErrScriptExhausted
	}
	choice := s.Selections[s.selects]
	s.selects++
	if choice < 0 || choice >= len(cfg.Options) {
		return -1, errors.New("prompt: scripted selection out of range")
	}
	return choice, nil
}

// Asked lists the prompt messages shown so far.
func (s *Scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}
