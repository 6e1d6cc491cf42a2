// Package configs manages pagelock project configuration and resolves the
// effective settings of a command run.
//
// # Project Configuration
//
// A project is a directory containing .pagelock/config.toml:
//
//	[project]
//	project_uuid = "..."
//	name = "blog"
//
//	[encryption]
//	salt = "..."
//	remember_enabled = true
//	remember_days = 30
//	mode = "document"
//	start_marker = "start"
//	end_marker = "end"
//	output_dir = "encrypted"
//	cta_label = "..."
//
// The salt is shared by every page of the project so that one remembered
// password unlocks them all.
//
// # Settings Resolution
//
// Settings are merged with a Builder. Layers added first win:
//
//	settings, err := configs.NewBuilder().
//		WithFlags(fromFlags).
//		WithEnv().
//		WithProject(projectConfig).
//		WithDefaults().
//		Build()
//
// Environment variables carry the PAGELOCK_ prefix, e.g. PAGELOCK_PASSWORD,
// PAGELOCK_SALT, PAGELOCK_REMEMBER_DAYS and PAGELOCK_OUTPUT_DIR.
//
// # User Settings
//
// UserPagelockSettings points at the per-user config directory, where the
// unlock command keeps remembered credentials. ProjectPagelockSettings is
// filled by InitProjectSettings, which walks up the directory tree to the
// nearest .pagelock directory.
package configs
