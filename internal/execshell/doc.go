// Package execshell provides structured helpers for invoking the git executable.
//
// ShellExecutor wraps a CommandRunner with debug logging, lifecycle observers,
// and an optional per-command timeout. OSCommandRunner is the os/exec backed
// runner used outside of tests.
package execshell
