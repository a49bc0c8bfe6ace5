package research

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Answerer answers the follow-up questions asked during manual refinement.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// answererFunc adapts a function to the Answerer interface.
type answererFunc func(ctx context.Context, question string) (string, error)

// Answer calls f.
func (f answererFunc) Answer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// PromptAnswerer asks each question on w and reads one line from r.
type PromptAnswerer struct {
	w  io.Writer
	sc *bufio.Scanner
}

// NewPromptAnswerer returns an Answerer reading answers line by line.
func NewPromptAnswerer(r io.Reader, w io.Writer) *PromptAnswerer {
	return &PromptAnswerer{w: w, sc: bufio.NewScanner(r)}
}

// Answer prints the question and returns the next input line. End of input
// yields an empty answer.
func (p *PromptAnswerer) Answer(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(p.w, "%s: ", question); err != nil {
		return "", err
	}
	if !p.sc.Scan() {
		return "", p.sc.Err()
	}
	return strings.TrimSpace(p.sc.Text()), nil
}
