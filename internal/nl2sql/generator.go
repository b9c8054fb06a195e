package nl2sql

import (
	"context"
	"fmt"
)

const toolSystemPrompt = "You write a single SQL query for the described database. Return only SQL."

type Generator struct {
	completer   Completer
	system      string
	temperature float64
}

func NewGenerator(completer Completer, temperature float64) *Generator {
	return &Generator{completer: completer, system: toolSystemPrompt, temperature: temperature}
}

// Generate asks the completer once. Malformed output is not an error; it
// surfaces as a candidate the validator will reject.
func (g *Generator) Generate(ctx context.Context, prompt string) (Candidate, error) {
	if g.completer == nil {
		return Candidate{}, fmt.Errorf("%w: no completer configured", ErrGeneration)
	}
	raw, err := g.completer.Complete(ctx, CompletionRequest{
		System:      g.system,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return NewCandidate(raw), nil
}
