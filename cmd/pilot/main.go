// Command pilot drives a connected Android or HarmonyOS device through the
// perception-decision-actuation loop, and exposes the lower-level device
// actions directly for scripting.
package main

import "github.com/phonessh/pilot/cmd/pilot/cmd"

func main() {
	cmd.Execute()
}
