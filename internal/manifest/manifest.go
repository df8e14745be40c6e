// Package manifest holds the in-memory model of dependency declarations.
//
// A Manifest is one component's declared requirements: an addon version, or
// the installer that describes the baseline runtime. Manifests carry three
// dependency sections (main, dev and platform-conditional runtime) plus
// optional extras groups. All package names are stored in canonical form.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMissingSection indicates a manifest lacks a required dependency section.
var ErrMissingSection = errors.New("missing required manifest section")

// DependencySet maps canonical package names to their constraints.
// A name appears at most once; merging always collapses to one constraint.
type DependencySet map[string]Constraint

// NewDependencySet builds a DependencySet from raw name -> expression pairs,
// canonicalizing names and parsing direct-origin shorthand.
func NewDependencySet(raw map[string]string) DependencySet {
	set := make(DependencySet, len(raw))
	for name, expr := range raw {
		set[CanonicalName(name)] = ParseConstraintString(expr)
	}
	return set
}

// Clone returns a shallow copy of the set.
func (s DependencySet) Clone() DependencySet {
	out := make(DependencySet, len(s))
	for name, c := range s {
		out[name] = c
	}
	return out
}

// Names returns the package names in sorted order.
func (s DependencySet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlatformConstraint is a dependency whose requirement differs per target
// platform, with an optional platform-independent default.
type PlatformConstraint struct {
	// Platforms maps platform identifiers ("windows", "linux", "darwin")
	// to the constraint required on that platform.
	Platforms map[string]Constraint `json:"platforms,omitempty"`

	// Default applies on platforms without a specific entry.
	Default *Constraint `json:"default,omitempty"`
}

// For returns the constraint applicable to the given platform and whether
// the dependency applies there at all.
func (p PlatformConstraint) For(platform string) (Constraint, bool) {
	if c, ok := p.Platforms[platform]; ok {
		return c, true
	}
	if p.Default != nil {
		return *p.Default, true
	}
	return Constraint{}, false
}

// Clone returns a deep copy.
func (p PlatformConstraint) Clone() PlatformConstraint {
	out := PlatformConstraint{}
	if p.Platforms != nil {
		out.Platforms = make(map[string]Constraint, len(p.Platforms))
		for platform, c := range p.Platforms {
			out.Platforms[platform] = c
		}
	}
	if p.Default != nil {
		d := *p.Default
		out.Default = &d
	}
	return out
}

// UnmarshalJSON accepts either a bare constraint (applies to every platform
// as the default) or an object of platform -> constraint entries where the
// "default" key holds the fallback.
func (p *PlatformConstraint) UnmarshalJSON(data []byte) error {
	var single Constraint
	if err := json.Unmarshal(data, &single); err == nil {
		p.Default = &single
		p.Platforms = nil
		return nil
	}

	var byPlatform map[string]Constraint
	if err := json.Unmarshal(data, &byPlatform); err != nil {
		return fmt.Errorf("runtime dependency must be a constraint or a platform map: %w", err)
	}

	p.Platforms = make(map[string]Constraint, len(byPlatform))
	for platform, c := range byPlatform {
		if platform == "default" {
			def := c
			p.Default = &def
			continue
		}
		p.Platforms[platform] = c
	}
	return nil
}

// MarshalJSON mirrors the accepted input forms.
func (p PlatformConstraint) MarshalJSON() ([]byte, error) {
	if len(p.Platforms) == 0 && p.Default != nil {
		return json.Marshal(*p.Default)
	}
	out := make(map[string]Constraint, len(p.Platforms)+1)
	for platform, c := range p.Platforms {
		out[platform] = c
	}
	if p.Default != nil {
		out["default"] = *p.Default
	}
	return json.Marshal(out)
}

// RuntimeSet maps canonical package names to platform-conditional constraints.
type RuntimeSet map[string]PlatformConstraint

// Clone returns a deep copy of the set.
func (s RuntimeSet) Clone() RuntimeSet {
	out := make(RuntimeSet, len(s))
	for name, pc := range s {
		out[name] = pc.Clone()
	}
	return out
}

// For flattens the set into the constraints applicable on one platform.
func (s RuntimeSet) For(platform string) DependencySet {
	out := make(DependencySet)
	for name, pc := range s {
		if c, ok := pc.For(platform); ok {
			out[name] = c
		}
	}
	return out
}

// Manifest is one component's declared dependency requirements.
type Manifest struct {
	// Origin identifies who declared these requirements, e.g.
	// "core_1.2.0" for an addon version or "installer" for the baseline.
	Origin string `json:"origin,omitempty"`

	// Main holds the runtime python dependencies.
	Main DependencySet `json:"mainDependencies"`

	// Dev holds development-only dependencies.
	Dev DependencySet `json:"devDependencies,omitempty"`

	// Runtime holds platform-conditional runtime dependencies.
	Runtime RuntimeSet `json:"runtimeDependencies,omitempty"`

	// Extras are named optional dependency groups.
	Extras map[string]DependencySet `json:"extras,omitempty"`
}

// New returns an empty manifest for the given origin.
func New(origin string) *Manifest {
	return &Manifest{
		Origin:  origin,
		Main:    make(DependencySet),
		Dev:     make(DependencySet),
		Runtime: make(RuntimeSet),
	}
}

// Validate checks the manifest carries the sections every merge requires.
func (m *Manifest) Validate() error {
	if m.Main == nil {
		return fmt.Errorf("%w: mainDependencies", ErrMissingSection)
	}
	return nil
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{
		Origin:  m.Origin,
		Main:    m.Main.Clone(),
		Dev:     m.Dev.Clone(),
		Runtime: m.Runtime.Clone(),
	}
	if m.Extras != nil {
		out.Extras = make(map[string]DependencySet, len(m.Extras))
		for group, set := range m.Extras {
			out.Extras[group] = set.Clone()
		}
	}
	return out
}

// UnmarshalJSON decodes the manifest and moves main dependencies declared
// with a platform marker ({"version": ..., "platform": ...}) into the
// runtime section, where the platform-conditional rules apply.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Manifest(p)

	var raw struct {
		Main map[string]json.RawMessage `json:"mainDependencies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name, entry := range raw.Main {
		var marked struct {
			Platform string `json:"platform"`
		}
		if err := json.Unmarshal(entry, &marked); err != nil || marked.Platform == "" {
			continue
		}
		c := m.Main[name]
		delete(m.Main, name)
		if m.Runtime == nil {
			m.Runtime = make(RuntimeSet)
		}
		m.Runtime[name] = PlatformConstraint{
			Platforms: map[string]Constraint{marked.Platform: c},
		}
	}
	return nil
}

// Decode parses a manifest from its JSON form, canonicalizing all names.
func Decode(data []byte, origin string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest for %s: %w", origin, err)
	}
	m.Origin = origin
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest for %s: %w", origin, err)
	}
	return &m, nil
}

// normalize rewrites every dependency key into canonical form.
func (m *Manifest) normalize() {
	m.Main = canonicalizeSet(m.Main)
	m.Dev = canonicalizeSet(m.Dev)

	if m.Runtime != nil {
		runtime := make(RuntimeSet, len(m.Runtime))
		for name, pc := range m.Runtime {
			runtime[CanonicalName(name)] = pc
		}
		m.Runtime = runtime
	} else {
		m.Runtime = make(RuntimeSet)
	}

	if m.Dev == nil {
		m.Dev = make(DependencySet)
	}

	for group, set := range m.Extras {
		m.Extras[group] = canonicalizeSet(set)
	}
}

func canonicalizeSet(set DependencySet) DependencySet {
	if set == nil {
		return nil
	}
	out := make(DependencySet, len(set))
	for name, c := range set {
		out[CanonicalName(name)] = c
	}
	return out
}
