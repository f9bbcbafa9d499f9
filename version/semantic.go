package version

import (
	"github.com/Masterminds/semver/v3"
)

// Semantic orders versions by SemVer 2.0 precedence. Versions are parsed
// leniently ("1.2" is 1.2.0, a leading "v" is accepted). If either version is
// not SemVer, the default ordering is used instead.
func Semantic(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return Compare(a, b)
	}
	return va.Compare(vb)
}

// IsSemantic reports whether v parses as a SemVer version.
func IsSemantic(v string) bool {
	_, err := semver.NewVersion(v)
	return err == nil
}

var (
	_ Comparator = Compare
	_ Comparator = Semantic
)
