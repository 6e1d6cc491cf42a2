package unlock

// IncorrectPasswordMessage is the only failure message a reader ever sees.
const IncorrectPasswordMessage = "Incorrect password. Please try again."

// Prompt is the password dialog of a scope. The controller drives it; the
// typed password itself comes back through Controller.Submit.
type Prompt interface {
	Open(scope string)
	Close(scope string)
	ShowError(scope, message string)
	ClearPassword(scope string)
}

// NopPrompt ignores every call. Useful when the embedding has no dialog,
// such as a share link unlocked in a batch job.
type NopPrompt struct{}

func (NopPrompt) Open(string)              {}
func (NopPrompt) Close(string)             {}
func (NopPrompt) ShowError(string, string) {}
func (NopPrompt) ClearPassword(string)     {}
