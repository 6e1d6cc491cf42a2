// Package audit records pagelock operations in a project-level log.
//
// The log is stored as JSON Lines at:
//
//	.pagelock/audit.jsonl
//
// Each entry holds a UTC timestamp, the OS user and host, the operation
// name and operation-specific details such as the files processed. Secrets
// never reach the log: no passwords, derived keys or share fragments.
//
// # Usage
//
//	entry := audit.LogWithUser(audit.OpEncrypt)
//	entry.Files = encrypted
//	audit.Log(entry)
//
// Logging is best-effort. Outside a project, or when the file cannot be
// written, entries are dropped and the operation carries on.
package audit
