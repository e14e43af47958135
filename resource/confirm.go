package resource

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// AlwaysConfirm approves every prompt. Used for scripted (--yes) runs.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

func confirmed(c Confirmer, prompt string) bool {
	return c != nil && c.Confirm(prompt)
}
