package core

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Ver0_13_2 is the protocol version that introduced the canonical state diff
// commitment.
var Ver0_13_2 = semver.MustParse("0.13.2")

// ParseBlockVersion parses the protocol version string a block header carries.
// The gateway has shipped the field in several shapes over the years: absent
// on the oldest blocks, fewer than three components ("14"), and four
// components ("0.13.1.1"). Absent parses as 0.0.0, anything beyond the third
// component is ignored.
func ParseBlockVersion(protocolVersion string) (*semver.Version, error) {
	if protocolVersion == "" {
		return semver.NewVersion("0.0.0")
	}

	parts := strings.SplitN(protocolVersion, ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return semver.NewVersion(strings.Join(parts, "."))
}
