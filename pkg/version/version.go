// Package version exposes build and API version information for capitalens.
package version

// Version is the capitalens build version. It is overridden at build time via
// -ldflags "-X github.com/capitalens/capitalens/pkg/version.Version=v1.2.3".
//
//nolint:gochecknoglobals // Set by the linker at build time.
var Version = "dev"

// APIVersion is the aggregation API version served by `capitalens serve` and
// expected by the client. Clients accept any server within the same major
// version (see api.Client.CheckVersion).
const APIVersion = "1.0.0"

// GetVersion returns the build version string.
func GetVersion() string {
	return Version
}
