package whoami

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/worldsync/pkg/identity"
)

func TestRun(t *testing.T) {
	name := func(s string) *string { return &s }

	tests := []struct {
		name       string
		newName    *string
		setErr     error
		expSetName string
		expOutput  string
		expErr     bool
	}{
		{
			name:      "PrintOnly",
			expOutput: "Laptop (0123456789abcdef)\n",
		},
		{
			name:       "SetName",
			newName:    name("Desktop"),
			expSetName: "Desktop",
			expOutput:  "Desktop (0123456789abcdef)\n",
		},
		{
			name:       "RemoveName",
			newName:    name(""),
			expSetName: "",
			expOutput:  "0123456789abcdef\n",
		},
		{
			name:    "SetFails",
			newName: name("Desktop"),
			setErr:  errors.New("read-only"),
			expErr:  true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			displayName := "Laptop"
			var setCalled bool
			setDisplayName = func(name string) error {
				setCalled = true
				if test.setErr != nil {
					return test.setErr
				}
				displayName = name
				return nil
			}
			loadIdentity = func() (identity.Identity, error) {
				return identity.Identity{ID: "0123456789abcdef", DisplayName: displayName}, nil
			}

			var out bytes.Buffer
			stdout = &out

			err := run(test.newName)
			assert.Equal(t, test.expErr, err != nil)
			assert.Equal(t, test.newName != nil, setCalled)
			if test.newName != nil && !test.expErr {
				assert.Equal(t, test.expSetName, displayName)
			}
			assert.Equal(t, test.expOutput, out.String())
		})
	}
}
