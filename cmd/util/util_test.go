package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/errors"
)

func TestPromptYesOrNo(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		input    string
		exp      bool
		expError bool
	}{
		{
			name:     "Yes",
			terminal: true,
			input:    "y\n",
			exp:      true,
		},
		{
			name:     "YesWithoutNewline",
			terminal: true,
			input:    " YES",
			exp:      true,
		},
		{
			name:     "No",
			terminal: true,
			input:    "n\n",
		},
		{
			name:     "Empty",
			terminal: true,
			input:    "\n",
		},
		{
			name:     "NotATerminal",
			input:    "y\n",
			expError: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			stdin = strings.NewReader(test.input)
			stdout = &out
			isTerminal = func() bool { return test.terminal }

			ok, err := PromptYesOrNo("Pull anyway?")
			if test.expError {
				_, friendly := errors.GetFriendlyMessage(err)
				assert.True(t, friendly)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.exp, ok)
			assert.Equal(t, "Pull anyway? [y/N] ", out.String())
		})
	}
}

func TestHandleFatalError(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	HandleFatalError(errors.New("boom"))
	assert.Equal(t, 1, code)
}
