// Package utils provides shared helpers for pagelock commands.
//
// # Filesystem Utilities
//
//   - FindProjectRoot: walks up directories to find .pagelock
//   - WriteFile: writes output pages, creating directories on the way
//   - FormatPaths: formats file paths for human-readable output
//
// # System Utilities
//
//   - GetUsername and GetHostname: recorded in the audit log
//   - GetProjectName: the default project name for pagelock init
//
// # Terminal and I/O Utilities
//
// Passwords are read without echo from stdin when it is a terminal, from
// /dev/tty otherwise, or from a pipe with ReadPasswordStdin.
package utils
