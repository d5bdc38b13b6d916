// Package misc keeps build time program identity.
package misc

// Set with -ldflags "-X hdoc/misc.version=... -X hdoc/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "hdoc"

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns commit hash program was built from.
func GetGitHash() string {
	return gitHash
}

// GetAppName returns program name used for logs, reports and help.
func GetAppName() string {
	return appName
}
