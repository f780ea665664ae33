package version

// Injected at build time via -ldflags
var (
	Version = "0.0.0"
	// CommitHash is the git commit the binary was built from
	CommitHash = "unknown"
	// BuildTime is the time the binary was built
	BuildTime = "unknown"
	// BinaryName is the name of the compiled binary
	BinaryName = "crd-mcp-server"
)
