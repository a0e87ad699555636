package version

// Version is the engine version recorded in every run summary.
// Release builds set it with
// -ldflags "-X github.com/rxtech-lab/argo-backtest/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "main"

// GetVersion returns the engine version.
func GetVersion() string {
	return Version
}
