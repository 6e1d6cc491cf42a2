// Package workflows provides high-level orchestration for pagelock commands.
//
// Workflows coordinate the configs, page, unlock and audit packages to
// implement complete user-facing features. Each workflow handles a single
// command's logic, independent of CLI concerns like flag parsing, spinners
// and output formatting.
//
// # Available Workflows
//
//   - Init: creates .pagelock/config.toml with a project salt
//   - Encrypt: replaces marked regions of HTML pages with placeholders and
//     an encrypted payload
//   - Decrypt: restores encoded pages from the password
//   - Share: builds a link carrying the derived key in its fragment
//   - Unlock: runs the page runtime in the terminal, with remembered keys
//   - Status: compares source pages with their encrypted copies
//   - Log: reads and filters the audit log
//   - Clean: removes encrypted pages whose source is gone
//   - Doctor: runs health checks on the project
//   - ConfigShow: resolves the effective configuration
//
// Each workflow takes an XxxOptions value and returns an XxxResult:
//
//	result, err := workflows.Encrypt(ctx, workflows.EncryptOptions{
//	    Paths: []string{"site/"},
//	})
//
// # Batches
//
// Encrypt and Decrypt keep going when a single file fails. The per-file
// error is in FileResult.Err; the workflow error is reserved for problems
// that stop the whole run, such as a missing password.
//
// # Error Handling
//
// Workflows return sentinel errors from the internal/errors package.
// Use errors.Is() to check for specific conditions:
//
//	result, err := workflows.Decrypt(ctx, opts)
//	if errors.Is(err, kerrors.ErrNoFilesFound) {
//	    // Tell the user which paths were searched
//	}
package workflows
