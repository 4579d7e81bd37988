package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrEmptyPackageName is returned when a package list entry has no name
var ErrEmptyPackageName = errors.New("package entry has no name")

// PackageList is a TOML file naming packages to check:
//
//	packages = ["requests", "numpy"]
//
//	[[package]]
//	name = "scipy"
type PackageList struct {
	Packages []string       `toml:"packages"`
	Package  []PackageEntry `toml:"package"`
}

// PackageEntry is one [[package]] table
type PackageEntry struct {
	Name string `toml:"name"`
}

// LoadPackageList reads a package list file and returns its names in file
// order: the packages array first, then [[package]] tables.
func LoadPackageList(path string) ([]string, error) {
	var list PackageList
	if _, err := toml.DecodeFile(path, &list); err != nil {
		return nil, fmt.Errorf("failed to parse package list %s: %w", path, err)
	}
	return list.Names()
}

// Names returns every listed name
func (l *PackageList) Names() ([]string, error) {
	names := make([]string, 0, len(l.Packages)+len(l.Package))
	for _, name := range l.Packages {
		if strings.TrimSpace(name) == "" {
			return nil, ErrEmptyPackageName
		}
		names = append(names, name)
	}
	for i, entry := range l.Package {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("[[package]] #%d: %w", i+1, ErrEmptyPackageName)
		}
		names = append(names, entry.Name)
	}
	return names, nil
}
