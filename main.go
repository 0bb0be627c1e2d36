// Command tthsdctl is the demo CLI entry point; see cmd/tthsdctl for the
// command tree and internal/engineapi for the engine operations it drives.
package main

import "github.com/tthsd/engine/cmd/tthsdctl"

func main() {
	tthsdctl.Execute()
}
