// Package locale holds the two display languages, the message catalog used for
// rendering, and the mapping of menu phrases to intents.
package locale

// Locale identifies a display language. The zero value means "not chosen yet".
type Locale string

const (
	None    Locale = ""
	Uzbek   Locale = "uzb"
	Russian Locale = "rus"

	// Default renders prompts when no locale has been chosen.
	Default = Uzbek
)

// Supported lists the locales in display order.
func Supported() []Locale {
	return []Locale{Uzbek, Russian}
}

// Parse accepts a locale code as carried in callback data.
func Parse(code string) (Locale, bool) {
	switch l := Locale(code); l {
	case Uzbek, Russian:
		return l, true
	}
	return None, false
}

// Or returns l, or fallback when l is unset.
func (l Locale) Or(fallback Locale) Locale {
	if l == None {
		return fallback
	}
	return l
}

// Message names a catalog entry.
type Message string

const (
	MsgLanguageName     Message = "language_name"
	MsgSuccess          Message = "success"
	MsgChooseLanguage   Message = "choose_language"
	MsgAskFullName      Message = "ask_full_name"
	MsgAskContact       Message = "ask_contact"
	MsgAskBirthday      Message = "ask_birthday"
	MsgAuthenticated    Message = "authenticated"
	MsgReset            Message = "reset"
	MsgSendContact      Message = "send_contact"
	MsgOpenBirthdayForm Message = "open_birthday_form"
	MsgViewBalance      Message = "view_balance"
	MsgChangeLanguage   Message = "change_language"
	MsgLanguageChanged  Message = "language_changed"
	MsgBalance          Message = "balance"
	MsgError            Message = "error"
	MsgContactNotOwn    Message = "contact_not_own"
	MsgUseMenu          Message = "use_menu"
	MsgUnavailable      Message = "unavailable"
)

// Messages lists every entry a locale table must define.
func Messages() []Message {
	return []Message{
		MsgLanguageName, MsgSuccess, MsgChooseLanguage, MsgAskFullName, MsgAskContact,
		MsgAskBirthday, MsgAuthenticated, MsgReset, MsgSendContact, MsgOpenBirthdayForm,
		MsgViewBalance, MsgChangeLanguage, MsgLanguageChanged, MsgBalance, MsgError,
		MsgContactNotOwn, MsgUseMenu, MsgUnavailable,
	}
}

// Intent is what a menu phrase asks for, independent of its wording.
type Intent int

const (
	IntentNone Intent = iota
	IntentChangeLanguage
	IntentViewBalance
)

func (i Intent) String() string {
	switch i {
	case IntentChangeLanguage:
		return "change_language"
	case IntentViewBalance:
		return "view_balance"
	default:
		return "none"
	}
}
