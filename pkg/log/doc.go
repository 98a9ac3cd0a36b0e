// Package log is a small wrapper around the standard library logger that
// gives every component its own named logger.
//
// Usage
//
//	l := log.ForService("engine")
//	l.Infof("search returned %d hits", n)
//	l.Debugf("generation %d superseded", gen) // only with debug enabled
//
// Debug output can be enabled for everything (SetGlobalDebug, the --debug
// flag) or for selected services (EnableDebugFor, the --debug-services
// flag).
//
// The package name collides with the standard library "log". Alias one of
// them when both are needed in the same file.
//
// Tests can capture output with SetOutput(&bytes.Buffer{}).
package log
