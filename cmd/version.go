// cmd/version.go
package cmd

// Version is the application version, intended to be overridden at build
// time: go build -ldflags "-X github.com/alkemir/jscrawl/cmd.Version=1.0.0".
var Version = "0.1.0-dev"
