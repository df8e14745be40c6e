package bundle

import "errors"

// ErrBundleNotFound indicates the server knows no bundle with that name.
var ErrBundleNotFound = errors.New("bundle not found")

// ErrInstallerNotFound indicates no installer build matches the bundle's
// installer version on the target platform.
var ErrInstallerNotFound = errors.New("installer not found")
