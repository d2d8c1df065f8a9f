package canopy

import "fmt"

// Debug enables verbose tracing diagnostics on stdout.
var Debug = false

// Warnings controls non-fatal parameter warnings. They never block a run.
var Warnings = true

func DebugLog(format string, args ...interface{}) {
	if Debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Warnings {
		fmt.Printf("[WARN] "+format+"\n", args...)
	}
}
