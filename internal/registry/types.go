// Package registry talks to the addon server: bundles, installers, addon
// dependency manifests, dependency package records and the event queue.
//
// The HTTP client also serves as the resolver's package metadata source,
// backed by the server's package index. Transient fetch failures are retried
// with backoff; constraint-level failures never are.
package registry

import (
	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
)

// Bundle names a production set of addon versions pinned to one installer.
type Bundle struct {
	Name             string            `json:"name"`
	InstallerVersion string            `json:"installerVersion"`
	Addons           map[string]string `json:"addons"`

	// DependencyPackages maps platform to the dependency package filename
	// currently assigned to the bundle.
	DependencyPackages map[string]string `json:"dependencyPackages,omitempty"`

	IsProduction bool `json:"isProduction,omitempty"`
	IsStaging    bool `json:"isStaging,omitempty"`
}

// Installer is the desktop runtime baseline a bundle runs on.
type Installer struct {
	Version       string            `json:"version"`
	Platform      string            `json:"platform"`
	PythonVersion string            `json:"pythonVersion"`
	PythonModules map[string]string `json:"pythonModules"`

	// RuntimePythonModules are modules the launcher ships outside the
	// interpreter environment, keyed by module name.
	RuntimePythonModules map[string]string `json:"runtimePythonModules,omitempty"`
}

// Manifest converts the installer's shipped module lists into the baseline
// dependency manifest. Shipped versions are taken verbatim: a bare version is
// an exact pin, which is what the baseline actually provides.
func (i Installer) Manifest(interpreterKey string) *manifest.Manifest {
	m := manifest.New("installer_" + i.Version)
	for name, ver := range i.PythonModules {
		m.Main[manifest.CanonicalName(name)] = manifest.ParseConstraintString(ver)
	}
	for name, ver := range i.RuntimePythonModules {
		c := manifest.ParseConstraintString(ver)
		m.Runtime[manifest.CanonicalName(name)] = manifest.PlatformConstraint{Default: &c}
	}
	if interpreterKey != "" && i.PythonVersion != "" {
		m.Main[manifest.CanonicalName(interpreterKey)] = manifest.RangeConstraint(i.PythonVersion)
	}
	return m
}

// DependencyPackage is the metadata record of one produced package.
type DependencyPackage struct {
	Filename         string            `json:"filename"`
	Platform         string            `json:"platform"`
	InstallerVersion string            `json:"installerVersion"`
	PythonModules    map[string]string `json:"pythonModules"`
	SourceAddons     map[string]string `json:"sourceAddons"`
}

// Event is one entry in the server's job queue.
type Event struct {
	ID          string `json:"id"`
	Topic       string `json:"topic"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`

	// DependsOn is the source event the job was enrolled from.
	DependsOn string `json:"dependsOn,omitempty"`

	// Payload carries job parameters set by the event's producer.
	Payload map[string]any `json:"payload,omitempty"`
}

// BundleName returns the bundle the event asks to build, if any.
func (e *Event) BundleName() string {
	name, _ := e.Payload["bundleName"].(string)
	return name
}

// EventUpdate carries the mutable fields of an event.
type EventUpdate struct {
	Status      string         `json:"status,omitempty"`
	Description string         `json:"description,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Event status values.
const (
	EventInProgress = "in_progress"
	EventFinished   = "finished"
	EventFailed     = "failed"
)
