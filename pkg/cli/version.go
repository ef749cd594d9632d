package cli

// Version is the running release, set at build time with
// -ldflags "-X github.com/Fepozopo/milk/pkg/cli.Version=x.y.z".
var Version = "0.1.0"
