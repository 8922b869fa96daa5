package flow

import (
	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/locale"
)

// Event is an input to Transition: a user action from the transport or the
// outcome of an account call.
type Event interface {
	isEvent()
}

type (
	// Reset is the /reset command.
	Reset struct{}
	// Start is the /start command.
	Start struct{}
	// Text is a plain text message.
	Text struct{ Text string }
	// LanguagePicked is a press on a language button.
	LanguagePicked struct{ Locale locale.Locale }
	// ContactShared is a contact card; Own is set when it belongs to the sender.
	ContactShared struct {
		Phone string
		Own   bool
	}
	// FormSubmitted carries raw web-app data from the birthday form.
	FormSubmitted struct{ Data string }

	LoginSucceeded struct{ Credential string }
	LoginFailed    struct{ Err error }

	BalanceSucceeded struct{ Balance account.Balance }
	// BalanceFailed reports a failed balance lookup; Unauthorized is set when
	// the credential was rejected.
	BalanceFailed struct{ Unauthorized bool }
)

func (Reset) isEvent()            {}
func (Start) isEvent()            {}
func (Text) isEvent()             {}
func (LanguagePicked) isEvent()   {}
func (ContactShared) isEvent()    {}
func (FormSubmitted) isEvent()    {}
func (LoginSucceeded) isEvent()   {}
func (LoginFailed) isEvent()      {}
func (BalanceSucceeded) isEvent() {}
func (BalanceFailed) isEvent()    {}

// Name is a stable label for logs and metrics.
func Name(ev Event) string {
	switch ev.(type) {
	case Reset:
		return "reset"
	case Start:
		return "start"
	case Text:
		return "text"
	case LanguagePicked:
		return "language_picked"
	case ContactShared:
		return "contact_shared"
	case FormSubmitted:
		return "form_submitted"
	case LoginSucceeded:
		return "login_succeeded"
	case LoginFailed:
		return "login_failed"
	case BalanceSucceeded:
		return "balance_succeeded"
	case BalanceFailed:
		return "balance_failed"
	default:
		return "unknown"
	}
}
