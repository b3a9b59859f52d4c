// Package confirm guards destructive intents. The gate decides whether an
// intent may run now; the issuer binds a proposed intent to a single-use token.
package confirm

import (
	"fmt"

	"ROLLCALL-backend/internal/intent"
)

type Decision struct {
	Execute bool
	// Message is the prompt shown to the person confirming; empty when Execute.
	Message string
}

// Decide is a pure function of the intent kind and the force flag.
func Decide(in intent.Intent, force bool) Decision {
	if !in.Kind.Destructive() || force {
		return Decision{Execute: true}
	}
	return Decision{Message: Prompt(in)}
}

// Prompt names the action and its target so the consequence scope is visible.
func Prompt(in intent.Intent) string {
	switch in.Kind {
	case intent.KindDelete:
		return fmt.Sprintf("Are you sure you want to delete this record (%s)? Confirm to proceed.", in.Delete.Filter)
	case intent.KindUpdate:
		return fmt.Sprintf("Are you sure you want to update record(s) for %s: %s? Confirm to proceed.",
			in.Update.Filter, describe(in.Update.Updates))
	}
	return ""
}

func describe(u intent.Updates) string {
	switch {
	case u.RenameClass != nil:
		return "rename class to " + u.RenameClass.NewClassName
	case u.RenameStudent != nil:
		return fmt.Sprintf("rename %s to %s", u.RenameStudent.From, u.RenameStudent.To)
	}
	n := len(u.SetStatuses)
	if n == 1 {
		s := u.SetStatuses[0]
		return fmt.Sprintf("mark %s %s", s.Name, s.Status)
	}
	return fmt.Sprintf("set the status of %d students", n)
}
