// Package resolver turns a merged dependency set into a graph of concrete
// versions.
//
// The search is deterministic, single-threaded backtracking: packages are
// visited in name order, candidates newest-first, and a choice is undone
// whenever it makes a downstream constraint unsatisfiable. A prior lock can
// steer the search towards previously chosen versions, and a step budget
// bounds the combinatorial worst case.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// DefaultMaxSteps bounds the search when the caller does not set a budget.
const DefaultMaxSteps = 100_000

// Resolver is the strategy interface the rest of the engine depends on:
// given constraints and a metadata source it returns a resolved graph or an
// error. The delta calculator and the bundle engine never see the search
// internals.
type Resolver interface {
	Resolve(ctx context.Context, set manifest.DependencySet, opts Options) (Graph, error)
}

// Options tunes a single resolution. The zero value means: no prior lock,
// reuse mode, no extras.
type Options struct {
	// Lock is the previously computed graph. In reuse mode locked versions
	// that still satisfy the current constraints are preferred, minimizing
	// churn.
	Lock Graph

	// Update switches to update mode: locked versions lose their
	// preference and the newest satisfying version wins.
	Update bool

	// UpdateScope limits update mode to the named packages; everything
	// else keeps its lock preference. Empty scope means every package.
	UpdateScope []string

	// Extras are requested optional dependency groups. Each must exist in
	// DeclaredExtras or resolution fails before the search starts.
	Extras []string

	// DeclaredExtras are the optional groups the root manifest declares.
	DeclaredExtras map[string]manifest.DependencySet
}

func (o Options) updates(name string) bool {
	if !o.Update {
		return false
	}
	if len(o.UpdateScope) == 0 {
		return true
	}
	for _, scoped := range o.UpdateScope {
		if manifest.CanonicalName(scoped) == name {
			return true
		}
	}
	return false
}

// Backtracking is the default Resolver implementation.
type Backtracking struct {
	Source MetadataSource

	// MaxSteps bounds the number of candidate versions tried before the
	// search gives up with a TimeoutError. Zero means DefaultMaxSteps.
	MaxSteps int

	// Logger, when set, receives debug traces of the search.
	Logger *slog.Logger
}

// NewBacktracking returns a resolver over the given metadata source.
func NewBacktracking(source MetadataSource) *Backtracking {
	return &Backtracking{Source: source}
}

// requirement is one constraint on a package together with its origin.
type requirement struct {
	origin string
	spec   string
	rng    version.Range
	direct *manifest.Constraint
}

func (r requirement) summary() Requirement {
	return Requirement{Origin: r.origin, Spec: r.spec}
}

type search struct {
	source   MetadataSource
	opts     Options
	logger   *slog.Logger
	maxSteps int
	steps    int

	reqs     map[string][]requirement
	assigned map[string]Resolution
}

// Resolve implements Resolver.
func (b *Backtracking) Resolve(ctx context.Context, set manifest.DependencySet, opts Options) (Graph, error) {
	root := set.Clone()
	for _, extra := range opts.Extras {
		group, ok := opts.DeclaredExtras[extra]
		if !ok {
			known := make([]string, 0, len(opts.DeclaredExtras))
			for name := range opts.DeclaredExtras {
				known = append(known, name)
			}
			return nil, &ExtraNotFoundError{Extra: extra, Known: known}
		}
		for name, c := range group {
			if _, exists := root[name]; !exists {
				root[name] = c
			}
		}
	}

	maxSteps := b.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	s := &search{
		source:   b.Source,
		opts:     opts,
		logger:   b.Logger,
		maxSteps: maxSteps,
		reqs:     make(map[string][]requirement),
		assigned: make(map[string]Resolution),
	}
	if _, err := s.push("root", root); err != nil {
		return nil, err
	}
	if err := s.solve(ctx); err != nil {
		return nil, err
	}

	out := make(Graph, len(s.assigned))
	for name, r := range s.assigned {
		out[name] = r
	}
	return out, nil
}

// push adds one requirement per dependency in set, all attributed to origin.
// It returns the names touched so the caller can undo on backtrack.
func (s *search) push(origin string, set manifest.DependencySet) ([]string, error) {
	touched := make([]string, 0, len(set))
	for _, name := range set.Names() {
		c := set[name]
		req := requirement{origin: origin, spec: c.String()}
		if c.IsDirect() {
			pin := c
			req.direct = &pin
		} else {
			rng, err := version.ParseRange(c.Range)
			if err != nil {
				return touched, fmt.Errorf("requirement %q from %s: %w", name, origin, err)
			}
			req.rng = rng
		}
		s.reqs[name] = append(s.reqs[name], req)
		touched = append(touched, name)
	}
	return touched, nil
}

// pop removes the most recent requirement for each touched name.
func (s *search) pop(touched []string) {
	for _, name := range touched {
		reqs := s.reqs[name]
		if len(reqs) <= 1 {
			delete(s.reqs, name)
		} else {
			s.reqs[name] = reqs[:len(reqs)-1]
		}
	}
}

// next returns the lexicographically first package with requirements but no
// assignment. Deterministic ordering keeps resolutions reproducible.
func (s *search) next() (string, bool) {
	names := make([]string, 0, len(s.reqs))
	for name := range s.reqs {
		if _, done := s.assigned[name]; !done {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func (s *search) solve(ctx context.Context) error {
	name, ok := s.next()
	if !ok {
		return nil
	}
	reqs := s.reqs[name]

	// A direct-origin pin is terminal: there is nothing to choose and the
	// source has no transitive metadata for it.
	if pin := lastDirect(reqs); pin != nil {
		s.assigned[name] = Resolution{Name: name, Direct: pin}
		if err := s.solve(ctx); err != nil {
			delete(s.assigned, name)
			return err
		}
		return nil
	}

	combined := version.Any()
	for _, req := range reqs {
		combined = combined.Intersect(req.rng)
	}
	if combined.IsEmpty() {
		return unsatisfiable(name, reqs)
	}

	available, err := s.source.Versions(ctx, name)
	if err != nil {
		return err
	}
	candidates := s.order(name, combined, available)

	// When every candidate fails, the failure worth reporting is the
	// deepest one: it names the package that actually conflicted and
	// carries its minimal conflicting pairs.
	var deepest *UnsatisfiableError

	for _, candidate := range candidates {
		s.steps++
		if err := ctx.Err(); err != nil {
			return &TimeoutError{Steps: s.steps, Err: err}
		}
		if s.steps > s.maxSteps {
			return &TimeoutError{Steps: s.steps}
		}
		if s.logger != nil {
			s.logger.Debug("trying candidate", "package", name, "version", candidate.String(), "step", s.steps)
		}

		deps, err := s.source.Dependencies(ctx, name, candidate)
		if err != nil {
			return err
		}

		touched, err := s.push(name+"@"+candidate.String(), deps)
		if err != nil {
			s.pop(touched)
			return err
		}
		s.assigned[name] = Resolution{
			Name:     name,
			Version:  candidate,
			Requires: deps.Names(),
		}

		err = s.solve(ctx)
		if err == nil {
			return nil
		}

		delete(s.assigned, name)
		s.pop(touched)

		var unsat *UnsatisfiableError
		if !errors.As(err, &unsat) {
			return err
		}
		deepest = unsat
		if s.logger != nil {
			s.logger.Debug("backtracking", "package", name, "version", candidate.String(), "cause", unsat.Name)
		}
	}

	if deepest != nil {
		return deepest
	}
	return unsatisfiable(name, reqs)
}

// order filters available versions by the combined range and sorts them
// newest-first. In reuse mode a locked version that still satisfies the range
// is tried first.
func (s *search) order(name string, combined version.Range, available []version.Version) []version.Version {
	matching := make([]version.Version, 0, len(available))
	for _, v := range available {
		if combined.Contains(v) {
			matching = append(matching, v)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		return version.Compare(matching[i], matching[j]) > 0
	})

	if s.opts.updates(name) {
		return matching
	}
	locked, ok := s.opts.Lock[name]
	if !ok || locked.IsDirect() || !combined.Contains(locked.Version) {
		return matching
	}
	ordered := make([]version.Version, 0, len(matching))
	ordered = append(ordered, locked.Version)
	for _, v := range matching {
		if !v.Equal(locked.Version) {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

func lastDirect(reqs []requirement) *manifest.Constraint {
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].direct != nil {
			return reqs[i].direct
		}
	}
	return nil
}

// unsatisfiable builds the failure report: every requirement on the package
// plus the minimal pairs whose ranges have an empty intersection.
func unsatisfiable(name string, reqs []requirement) *UnsatisfiableError {
	err := &UnsatisfiableError{Name: name}
	for _, req := range reqs {
		err.Requirements = append(err.Requirements, req.summary())
	}
	for i := 0; i < len(reqs); i++ {
		if reqs[i].direct != nil {
			continue
		}
		for j := i + 1; j < len(reqs); j++ {
			if reqs[j].direct != nil {
				continue
			}
			if reqs[i].rng.Intersect(reqs[j].rng).IsEmpty() {
				err.Pairs = append(err.Pairs, [2]Requirement{
					reqs[i].summary(),
					reqs[j].summary(),
				})
			}
		}
	}
	return err
}
