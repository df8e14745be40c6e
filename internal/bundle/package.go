package bundle

import (
	"fmt"
	"time"
)

// PackageBasename builds the produced package's name from the creation time
// and target platform, e.g. "ayon_2406011205_linux".
func PackageBasename(t time.Time, platform string) string {
	return fmt.Sprintf("ayon_%s_%s", t.UTC().Format("0601021504"), platform)
}
