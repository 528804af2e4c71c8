package store

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string            `json:"name"`
	Items map[string]string `json:"items"`
}

func TestLoad(t *testing.T) {
	defaultRecord := record{Name: "default", Items: map[string]string{}}

	tests := []struct {
		name     string
		contents *string
		exp      record
		expOK    bool
	}{
		{
			name:  "Missing",
			exp:   defaultRecord,
			expOK: false,
		},
		{
			name:     "Corrupt",
			contents: strPtr(`{"name": "half`),
			exp:      defaultRecord,
			expOK:    false,
		},
		{
			name:     "WrongType",
			contents: strPtr(`{"name": "x", "items": {"a": 1}}`),
			exp:      defaultRecord,
			expOK:    false,
		},
		{
			name:     "Valid",
			contents: strPtr(`{"name": "index", "items": {"a": "b"}}`),
			exp:      record{Name: "index", Items: map[string]string{"a": "b"}},
			expOK:    true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if test.contents != nil {
				require.NoError(t, afero.WriteFile(fs, "/records/r.json", []byte(*test.contents), 0644))
			}

			dst := record{Name: "default", Items: map[string]string{}}
			ok := New(fs).Load("/records/r.json", &dst)
			assert.Equal(t, test.expOK, ok)
			assert.Equal(t, test.exp, dst)
		})
	}
}

func TestSaveCreatesParents(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs)

	rec := record{Name: "control", Items: map[string]string{"commit_id": "abc123"}}
	require.NoError(t, s.Save("/shared/world_sync/m1/Skyblock/control.json", rec))
	assert.True(t, s.Exists("/shared/world_sync/m1/Skyblock/control.json"))
	assert.False(t, s.Exists("/shared/world_sync/m1/Skyblock"))

	data, err := afero.ReadFile(fs, "/shared/world_sync/m1/Skyblock/control.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"control\",\n  \"items\": {\n    \"commit_id\": \"abc123\"\n  }\n}\n",
		string(data))

	var loaded record
	assert.True(t, s.Load("/shared/world_sync/m1/Skyblock/control.json", &loaded))
	assert.Equal(t, rec, loaded)
}

func strPtr(s string) *string {
	return &s
}
