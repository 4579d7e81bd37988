package rot

import "context"

// Status is the bucket a package falls into after a check.
type Status int

const (
	// StatusUpToDate means the upstream version is not newer than the feedstock's
	StatusUpToDate Status = iota
	// StatusUnknown means a feedstock exists but no upstream version could be found
	StatusUnknown
	// StatusUpgradeable means upstream has a strictly newer version
	StatusUpgradeable
	// StatusNotFound means no feedstock version exists (likely a typo)
	StatusNotFound
)

var statusNames = map[Status]string{
	StatusUpToDate:    "up-to-date",
	StatusUnknown:     "unknown",
	StatusUpgradeable: "upgradeable",
	StatusNotFound:    "not-found",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "invalid"
}

// Classify places a package in exactly one bucket, checked in this order:
// not found, upgradeable, unknown, up-to-date.
func (p *Package) Classify(ctx context.Context) Status {
	if _, ok := p.LatestFeedstockVersion(ctx); !ok {
		return StatusNotFound
	}
	if _, ok := p.LatestExternalUpgradeableVersion(ctx); ok {
		return StatusUpgradeable
	}
	if _, ok := p.LatestExternalVersion(ctx); !ok {
		return StatusUnknown
	}
	return StatusUpToDate
}

// Result is a package's check outcome, ready for presentation.
type Result struct {
	// Name is the canonical package name
	Name string
	// Status is the package's bucket
	Status Status
	// FeedstockVersion is the latest packaged version, if any
	FeedstockVersion string
	// ExternalVersion is the latest upstream version, if any
	ExternalVersion string
	// ExternalSource names the registry ExternalVersion came from
	ExternalSource string
	// ExternalName is the registry name that matched, when it differs from Name
	ExternalName string
}

// Result computes the package's presentation record.
func (p *Package) Result(ctx context.Context) Result {
	r := Result{
		Name:   p.name,
		Status: p.Classify(ctx),
	}
	r.FeedstockVersion, _ = p.LatestFeedstockVersion(ctx)
	r.ExternalVersion, _ = p.LatestExternalVersion(ctx)
	if src := p.ExternalSource(ctx); src != nil {
		r.ExternalSource = src.Kind().String()
		if matched := src.MatchedName(); matched != p.name {
			r.ExternalName = matched
		}
	}
	return r
}
