package version

// EmptyValue is the version reported by binaries built without setting
// Version through the linker, such as `go run` and unit tests.
const EmptyValue = "dev"

// Version is the release tag of this build. Release builds set it with
// `-ldflags "-X github.com/sidkik/docsync/pkg/version.Version=v1.2.3"`.
var Version = EmptyValue
