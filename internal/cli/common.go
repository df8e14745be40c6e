package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/Asgard118/ayon-dependencies-tool/internal/bundle"
	"github.com/Asgard118/ayon-dependencies-tool/internal/clock"
	"github.com/Asgard118/ayon-dependencies-tool/internal/config"
	"github.com/Asgard118/ayon-dependencies-tool/internal/fsops"
	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/registry"
	"github.com/Asgard118/ayon-dependencies-tool/internal/state"
)

// newEngine creates an engine with real implementations of all dependencies.
func newEngine() (*bundle.Engine, *registry.HTTPClient, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	client := registry.NewHTTPClient(cfg.ServerURL, cfg.APIKey)
	engine := &bundle.Engine{
		Client: client,
		Source: client,
		Locks:  state.NewFileStore(fsops.NewRealFS(), cfg.Locks),
		Clock:  &clock.RealClock{},
	}
	return engine, client, nil
}

// loadLocalManifests reads dependency manifests from disk, for addons under
// development that are not published yet. The file's base name becomes the
// manifest origin in conflict reports.
func loadLocalManifests(paths []string) ([]*manifest.Manifest, error) {
	fs := fsops.NewRealFS()
	out := make([]*manifest.Manifest, 0, len(paths))
	for _, path := range paths {
		origin := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m, err := registry.LoadManifest(fs, path, origin)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// defaultPlatform is the platform built when none is requested explicitly.
func defaultPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "darwin"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}
