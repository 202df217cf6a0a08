package core_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/starkcheck/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockVersion(t *testing.T) {
	versions := []struct {
		version  string
		expected *semver.Version
	}{
		{"", semver.MustParse("0.0.0")},
		{"0.13.1", semver.MustParse("0.13.1")},
		{"0.13.1.1", semver.MustParse("0.13.1")},
		{"0.14", semver.MustParse("0.14.0")},
		{"14", semver.MustParse("14.0.0")},
	}

	for _, test := range versions {
		t.Run("block version: "+test.version, func(t *testing.T) {
			version, err := core.ParseBlockVersion(test.version)
			require.Nil(t, err)
			assert.Equal(t, test.expected, version)
		})
	}
}

func TestVersionGates(t *testing.T) {
	pre, err := core.ParseBlockVersion("0.13.1.1")
	require.NoError(t, err)
	assert.True(t, pre.LessThan(core.Ver0_13_2))

	post, err := core.ParseBlockVersion("0.13.2.1")
	require.NoError(t, err)
	assert.False(t, post.LessThan(core.Ver0_13_2))
}
