package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/errors"
)

const testConfigPath = "/config/worldsync/worldsync.yaml"

func mockUserEnv(t *testing.T) {
	oldFs, oldExpand, oldConfigHome := fs, homedirExpand, configHome
	t.Cleanup(func() {
		fs, homedirExpand, configHome = oldFs, oldExpand, oldConfigHome
	})

	fs = afero.NewMemMapFs()
	configHome = func() string { return "/config" }
	homedirExpand = func(path string) (string, error) {
		if strings.HasPrefix(path, "~") {
			return "/home/user" + strings.TrimPrefix(path, "~"), nil
		}
		return path, nil
	}
}

func TestParseUser(t *testing.T) {
	userEmptyVersion := User{
		SharedRoot: "/shared",
		GameDir:    "/games",
	}
	userCorrectVersion := User{
		Version:     CurrentUserConfigVersion,
		SharedRoot:  "/shared",
		GameDir:     "/games",
		DisplayName: "Desk",
	}
	userIncorrectVersion := User{
		Version:    "2.0",
		SharedRoot: "/shared",
	}
	userEmptyVersionString, err := yaml.Marshal(userEmptyVersion)
	assert.NoError(t, err)
	userCorrectVersionString, err := yaml.Marshal(userCorrectVersion)
	assert.NoError(t, err)
	userIncorrectVersionString, err := yaml.Marshal(userIncorrectVersion)
	assert.NoError(t, err)

	tests := []struct {
		name      string
		input     []byte
		expConfig User
		expError  error
	}{
		{
			name:      "Missing",
			expConfig: User{Version: InitialUserConfigVersion},
		},
		{
			name:  "EmptyVersion",
			input: userEmptyVersionString,
			expConfig: User{
				Version:    InitialUserConfigVersion,
				SharedRoot: "/shared",
				GameDir:    "/games",
			},
		},
		{
			name:      "CorrectVersion",
			input:     userCorrectVersionString,
			expConfig: userCorrectVersion,
		},
		{
			name:      "CompatibleMinorVersion",
			input:     []byte("version: \"1.3\"\nsharedRoot: /shared\n"),
			expConfig: User{Version: "1.3", SharedRoot: "/shared"},
		},
		{
			name:  "ExpandsPaths",
			input: []byte("sharedRoot: ~/OneDrive/Minecraft\ngameDir: saves\n"),
			expConfig: User{
				Version:    InitialUserConfigVersion,
				SharedRoot: "/home/user/OneDrive/Minecraft",
				GameDir:    "/config/worldsync/saves",
			},
		},
		{
			name:  "IncorrectVersion",
			input: userIncorrectVersionString,
			expError: errors.WithContext(incompatibleVersionError{
				path:       testConfigPath,
				constraint: SupportedUserConfigVersions,
				actual:     "2.0",
			}, "parse"),
		},
		{
			name:  "UnparseableVersion",
			input: []byte("version: latest\n"),
			expError: errors.WithContext(incompatibleVersionError{
				path:       testConfigPath,
				constraint: SupportedUserConfigVersions,
				actual:     "latest",
			}, "parse"),
		},
		{
			name: "ExtraFields",
			input: []byte(fmt.Sprintf(
				"version: \"%s\"\nextra: fields", CurrentUserConfigVersion)),
			expError: errors.WithContext(
				errors.NewFriendlyError(parseConfigErrTemplate, testConfigPath,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
		{
			name: "IncorrectVersionAndExtraFields",
			input: []byte(`
version: "3.0"
extra: fields
`),
			expError: errors.WithContext(incompatibleVersionError{
				path:       testConfigPath,
				constraint: SupportedUserConfigVersions,
				actual:     "3.0",
			}, "parse"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mockUserEnv(t)
			if test.input != nil {
				require.NoError(t, afero.WriteFile(fs, testConfigPath, test.input, 0644))
			}

			config, err := ParseUser()
			assert.Equal(t, test.expConfig, config)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestParseWrittenUser(t *testing.T) {
	mockUserEnv(t)

	user := User{
		SharedRoot:  "/shared",
		GameDir:     "/games",
		DisplayName: "Laptop",
	}

	// Write the user to disk, and assert that we get the same user config when
	// we parse it.
	assert.NoError(t, WriteUser(user))

	parsed, err := ParseUser()
	assert.NoError(t, err)

	user.Version = CurrentUserConfigVersion
	assert.Equal(t, user, parsed)
}

func TestFriendlyVersionError(t *testing.T) {
	mockUserEnv(t)
	require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(`version: "2.0"`), 0644))

	_, err := ParseUser()
	msg, ok := errors.GetFriendlyMessage(err)
	assert.True(t, ok)
	assert.Contains(t, msg, `Expected a version matching ">= 1.0, < 2.0", but got "2.0".`)
}
