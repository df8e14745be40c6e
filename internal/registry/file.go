package registry

import (
	"fmt"

	"github.com/Asgard118/ayon-dependencies-tool/internal/fsops"
	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
)

// LoadManifest reads a dependency manifest from disk. Used for addons under
// local development that are not published to the server yet.
func LoadManifest(fs fsops.FS, path, origin string) (*manifest.Manifest, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := manifest.Decode(data, origin)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}
