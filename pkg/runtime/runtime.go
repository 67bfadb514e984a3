package runtime

// Set at build time through -ldflags.
var (
	Version   = "0.0.0-dev"
	GitCommit = ""
	Timestamp = ""
)
