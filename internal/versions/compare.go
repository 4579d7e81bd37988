package versions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Release-phase priorities (lower = earlier in release cycle)
var suffixPriority = map[string]int{
	"dev":   -5,
	"alpha": -4,
	"a":     -4,
	"beta":  -3,
	"b":     -3,
	"pre":   -2,
	"c":     -2,
	"rc":    -1,
	"":      0, // final release
	"post":  1,
	"p":     1,
}

// phaseLabelRegex matches a semver pre-release identifier naming a release phase (rc1, beta, post-2)
var phaseLabelRegex = regexp.MustCompile(`^(dev|alpha|beta|post|pre|rc|a|b|c|p)[._-]?(\d*)$`)

// unknownPhase ranks semver pre-release labels that name no known phase (1.0.0-snapshot)
const unknownPhase = -6

// suffixRegex matches trailing release-phase markers like rc1, .post2, -beta.3, .dev0
var suffixRegex = regexp.MustCompile(`[._-]?(dev|alpha|beta|post|pre|rc|a|b|c|p)[._-]?(\d*)$`)

// implicitPostRegex matches the implicit post release form 1.0-1
var implicitPostRegex = regexp.MustCompile(`^(.*\d)-(\d+)$`)

// segmentSplitRegex splits the numeric part of a version on the usual separators
var segmentSplitRegex = regexp.MustCompile(`[._-]`)

// versionKey is a version's position in the ordering. Every string maps to
// exactly one key, so ordering by keys is transitive.
type versionKey struct {
	release  []int
	phase    int
	phaseNum int
}

// parseVersion computes the ordering key of a version string. Strings that
// parse as semantic versions take their release and pre-release from semver;
// the pre-release is read as a release phase. Anything else is split into
// numeric segments and a trailing phase marker.
func parseVersion(v string) versionKey {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimPrefix(v, "v")

	// Local version labels (+cuda, +build.5) never affect ordering
	if idx := strings.Index(v, "+"); idx >= 0 {
		v = v[:idx]
	}

	var key versionKey
	if sv, err := semver.NewVersion(v); err == nil {
		key.release = []int{int(sv.Major()), int(sv.Minor()), int(sv.Patch())}
		if pre := sv.Prerelease(); pre != "" {
			key.phase, key.phaseNum = prereleasePhase(pre)
		}
	} else {
		key = parseSegments(v)
	}

	// 1.0 and 1.0.0 are the same release
	for len(key.release) > 1 && key.release[len(key.release)-1] == 0 {
		key.release = key.release[:len(key.release)-1]
	}
	return key
}

// prereleasePhase maps a semver pre-release onto a release phase.
func prereleasePhase(pre string) (int, int) {
	ids := strings.Split(pre, ".")

	// 1.0-1 is a post release
	if n, err := strconv.Atoi(ids[0]); err == nil {
		return suffixPriority["post"], n
	}

	m := phaseLabelRegex.FindStringSubmatch(ids[0])
	if m == nil {
		return unknownPhase, 0
	}
	num := 0
	if m[2] != "" {
		num, _ = strconv.Atoi(m[2])
	} else if len(ids) > 1 {
		num = leadingInt(ids[1])
	}
	return suffixPriority[m[1]], num
}

// parseSegments reads a non-semver version: numeric segments plus an optional
// trailing phase marker.
func parseSegments(v string) versionKey {
	var key versionKey
	if loc := suffixRegex.FindStringSubmatchIndex(v); loc != nil && loc[0] > 0 {
		key.phase = suffixPriority[v[loc[2]:loc[3]]]
		if loc[4] != loc[5] {
			key.phaseNum, _ = strconv.Atoi(v[loc[4]:loc[5]])
		}
		v = v[:loc[0]]
	} else if m := implicitPostRegex.FindStringSubmatch(v); m != nil {
		key.phase = suffixPriority["post"]
		key.phaseNum, _ = strconv.Atoi(m[2])
		v = m[1]
	}

	parts := segmentSplitRegex.Split(v, -1)
	key.release = make([]int, 0, len(parts))
	for _, p := range parts {
		key.release = append(key.release, leadingInt(p))
	}
	return key
}

// leadingInt returns the integer value of the leading digits of s, or 0.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// compareIntSlices compares two slices of integers
func compareIntSlices(a, b []int) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}

		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// compareKeys orders release segments, then phase, then phase number.
// dev < alpha < beta < pre < rc < release < post
func compareKeys(k1, k2 versionKey) int {
	if cmp := compareIntSlices(k1.release, k2.release); cmp != 0 {
		return cmp
	}
	if k1.phase != k2.phase {
		if k1.phase < k2.phase {
			return -1
		}
		return 1
	}
	if k1.phaseNum < k2.phaseNum {
		return -1
	}
	if k1.phaseNum > k2.phaseNum {
		return 1
	}
	return 0
}

// Compare compares two upstream version strings.
// Returns: -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
//
// Both semver and PEP 440 style strings are placed on one scale, so
// "1.10" sorts above "1.9" and "1.0.0-post1" above "1.0.0".
func Compare(v1, v2 string) int {
	return compareKeys(parseVersion(v1), parseVersion(v2))
}

// IsNewer reports whether newVersion is strictly greater than oldVersion.
func IsNewer(newVersion, oldVersion string) bool {
	return Compare(newVersion, oldVersion) > 0
}
