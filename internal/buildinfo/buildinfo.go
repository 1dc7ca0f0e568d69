package buildinfo

import "fmt"

// Set via -ldflags "-X github.com/jrjhealey/Oread/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("oread %s (commit=%s, date=%s)", Version, Commit, Date)
}
