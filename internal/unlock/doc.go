// Package unlock is the page runtime that turns a typed password into
// restored content.
//
// A Controller owns one state machine per scope. In document mode there is a
// single scope, "*", covering every section; in section mode each placeholder
// id is its own scope with its own remembered credential.
//
//	Locked ──activate──▶ AttemptingRemembered ──ok──▶ Unlocked
//	   │                        │ fail (credential forgotten)
//	   └──────activate──────────┴──▶ PromptingUser ──submit ok──▶ Unlocked
//	                                   ▲        │ submit fails
//	                                   └─Failed◀┘
//
// Remembered and typed passwords share one attempt path, so both apply
// results the same way. The controller never holds its lock while deriving a
// key; a result is applied only if its scope is still waiting for it, which
// lets a closed prompt discard an attempt that is still running.
package unlock
