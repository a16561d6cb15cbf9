package haystack_solr

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Distribution is an installed library the launcher puts on its path.
type Distribution struct {
	Project  string
	Version  string
	Location string
}

// Resolver resolves requirement names to installed distributions, in requirement
// order.
type Resolver interface {
	WorkingSet(requirements []string) ([]Distribution, error)
}

// EggResolver finds distributions in egg directories. Entries are named after the
// project, optionally followed by -<version> and further tags, e.g.
// django_haystack-2.8.1-py3.9.egg. Directories are searched in order, the first one
// holding a project wins; within a directory the highest version wins.
type EggResolver struct {
	Directories []string
}

// NewEggResolver searches the buildout's develop-eggs directory, then its eggs
// directory.
func NewEggResolver(b *Buildout) *EggResolver {
	return &EggResolver{Directories: []string{b.DevelopEggsDirectory(), b.EggsDirectory()}}
}

var (
	versionPattern     = regexp.MustCompile(`^[0-9][^-]*`)
	requirementPattern = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*([^;]*)`)
)

// Requirement is one parsed entry of the eggs option, e.g. "Django[bcrypt]>=4.2,<5".
type Requirement struct {
	Project   string
	Extras    []string
	Specifier string
}

// ParseRequirement splits a requirement into project name, extras and version
// specifier. Environment markers after ';' are dropped.
func ParseRequirement(req string) (Requirement, error) {
	m := requirementPattern.FindStringSubmatch(req)
	if m == nil {
		return Requirement{}, fmt.Errorf("invalid requirement %q", req)
	}
	r := Requirement{Project: m[1], Specifier: strings.TrimSpace(m[3])}
	for _, extra := range strings.Split(m[2], ",") {
		if extra = strings.TrimSpace(extra); extra != "" {
			r.Extras = append(r.Extras, extra)
		}
	}
	return r, nil
}

// WorkingSet returns one distribution per distinct requirement.
func (r *EggResolver) WorkingSet(requirements []string) ([]Distribution, error) {
	var dists []Distribution
	seen := make(map[string]bool)
	for _, line := range requirements {
		if strings.TrimSpace(line) == "" {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return nil, err
		}
		project := normalizeProject(req.Project)
		if seen[project] {
			continue
		}
		seen[project] = true
		dist, err := r.find(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", line, err)
		}
		dists = append(dists, dist)
	}
	return dists, nil
}

func (r *EggResolver) find(req Requirement) (Distribution, error) {
	want := normalizeProject(req.Project)
	var specifiers pep440.Specifiers
	if req.Specifier != "" {
		var err error
		specifiers, err = pep440.NewSpecifiers(req.Specifier)
		if err != nil {
			return Distribution{}, fmt.Errorf("invalid version specifier %q: %w", req.Specifier, err)
		}
	}
	for _, dir := range r.Directories {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Distribution{}, fmt.Errorf("read eggs directory: %w", err)
		}
		var best *Distribution
		for _, entry := range entries {
			project, v := splitEggName(entry.Name())
			if normalizeProject(project) != want || !satisfies(specifiers, req.Specifier, v) {
				continue
			}
			if best == nil || compareVersions(v, best.Version) > 0 {
				best = &Distribution{
					Project:  project,
					Version:  v,
					Location: filepath.Join(dir, entry.Name()),
				}
			}
		}
		if best != nil {
			return *best, nil
		}
	}
	return Distribution{}, fmt.Errorf("%w: %s (searched %s)", ErrDistributionNotFound, req.Project, strings.Join(r.Directories, ", "))
}

// satisfies reports whether an installed version matches the specifier. Entries
// without a version (develop eggs) match any specifier; unparseable versions only
// match when there is none.
func satisfies(specifiers pep440.Specifiers, specifier, v string) bool {
	if specifier == "" || v == "" {
		return true
	}
	parsed, err := pep440.Parse(v)
	if err != nil {
		return false
	}
	return specifiers.Check(parsed)
}

// splitEggName splits "Django-4.2-py3.11.egg" into "Django" and "4.2". Develop egg
// links ("myapp.egg-link") and bare directories have no version.
func splitEggName(name string) (project, version string) {
	name = strings.TrimSuffix(name, ".egg-link")
	name = strings.TrimSuffix(name, ".egg")
	parts := strings.Split(name, "-")
	project = parts[0]
	for i := 1; i < len(parts); i++ {
		if versionPattern.MatchString(parts[i]) {
			return strings.Join(parts[:i], "-"), parts[i]
		}
	}
	return name, ""
}

// normalizeProject compares project names the way package indexes do: case
// insensitive, with '-', '_' and '.' being equal.
func normalizeProject(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

// compareVersions orders versions by PEP 440, so pre-releases sort before the final
// release. Names that don't parse are compared as strings.
func compareVersions(a, b string) int {
	va, errA := pep440.Parse(a)
	vb, errB := pep440.Parse(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}

// Locations returns the distributions' install locations.
func Locations(dists []Distribution) []string {
	locations := make([]string, len(dists))
	for i, d := range dists {
		locations[i] = d.Location
	}
	return locations
}
