//go:build js && wasm

// Command wasm exposes the trajectory generator to the browser via
// WebAssembly. After loading, it registers a global JavaScript function:
//
//	runMotion(jsonString) -> jsonString
//
// The input and output are JSON-encoded sim.Input and sim.Log respectively,
// matching the same contract used by the CLI.
package main

import (
	"syscall/js"

	"github.com/sevenphase/otg/internal/sim"
)

func main() {
	js.Global().Set("runMotion", js.FuncOf(runMotion))
	select {} // keep the WASM module alive until the page is closed
}

func runMotion(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}
	result, err := sim.RunJSON(args[0].String())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}
