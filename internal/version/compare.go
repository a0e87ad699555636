package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// CheckRunCompatibility reports whether runs produced by two engine versions
// can be compared. Versions agree when major and minor match; patch releases
// never change simulation results. An empty version (runs recorded before
// versions were stamped) or "main" skips the check.
func CheckRunCompatibility(reference, other string) error {
	reference = strings.TrimPrefix(reference, "v")
	other = strings.TrimPrefix(other, "v")

	if reference == "" || other == "" || reference == "main" || other == "main" {
		return nil
	}

	ref, err := semver.NewVersion(reference)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid engine version %q", reference)
	}

	cur, err := semver.NewVersion(other)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid engine version %q", other)
	}

	if ref.Major() != cur.Major() || ref.Minor() != cur.Minor() {
		return errors.Newf(errors.ErrCodeIncompatibleVersion,
			"engine %d.%d.x results are not comparable with engine %d.%d.x results",
			cur.Major(), cur.Minor(), ref.Major(), ref.Minor())
	}

	return nil
}
