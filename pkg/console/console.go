package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Console abstracts interactive operator prompts, such as the ACME
// terms-of-service confirmation. Implementations must be safe to call from a
// background goroutine.
type Console interface {
	// Confirm presents a yes/no question and returns the operator's answer.
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Stdio is a Console reading answers from an input stream and writing prompts
// to an output stream. The zero value uses os.Stdin and os.Stdout.
type Stdio struct {
	In  io.Reader
	Out io.Writer
}

func (s *Stdio) Confirm(ctx context.Context, prompt string) (bool, error) {
	in := s.In
	if in == nil {
		in = os.Stdin
	}
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	if _, err := fmt.Fprintf(out, "%s [y/N]: ", prompt); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Accept is a Console that answers yes to every prompt. Used when acceptance
// is pre-configured and no operator interaction is wanted.
type Accept struct{}

func (Accept) Confirm(ctx context.Context, prompt string) (bool, error) {
	return true, ctx.Err()
}
