package console_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certkeeper/pkg/console"
)

func TestStdioConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "y", input: "y\n", want: true},
		{name: "uppercase yes", input: "YES\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "garbage defaults to no", input: "maybe\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			c := &console.Stdio{In: strings.NewReader(tt.input), Out: &out}

			got, err := c.Confirm(context.Background(), "Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Proceed?")
		})
	}
}

func TestStdioConfirmCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never delivers a line.
	blocked, w := io.Pipe()
	defer func() { _ = w.Close() }()
	c := &console.Stdio{In: blocked, Out: &bytes.Buffer{}}

	_, err := c.Confirm(ctx, "Proceed?")
	require.ErrorIs(t, err, context.Canceled)
}

func TestAccept(t *testing.T) {
	t.Parallel()

	ok, err := console.Accept{}.Confirm(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
