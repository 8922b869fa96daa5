// Package session persists per-conversation onboarding state and serializes
// read-modify-write cycles per conversation key.
package session

import (
	"strconv"

	"github.com/m3rciful/onboardbot/bot/locale"
)

// State is the onboarding step a conversation is in.
type State string

const (
	ChooseLanguage State = "choose_language"
	AskFullName    State = "ask_full_name"
	AskContact     State = "ask_contact"
	AskBirthday    State = "ask_birthday"
	Authenticated  State = "authenticated"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case ChooseLanguage, AskFullName, AskContact, AskBirthday, Authenticated:
		return true
	}
	return false
}

// Session is the persisted record for one conversation. Empty strings mean absent.
type Session struct {
	State       State         `json:"state"`
	Locale      locale.Locale `json:"locale,omitempty"`
	FullName    string        `json:"full_name,omitempty"`
	PhoneNumber string        `json:"phone_number,omitempty"`
	Birthday    string        `json:"birthday,omitempty"`
	Credential  string        `json:"credential,omitempty"`
}

// Default is the session every new conversation starts with.
func Default() Session {
	return Session{State: ChooseLanguage}
}

// HasIdentity reports whether name, phone and birthday are all collected.
func (s Session) HasIdentity() bool {
	return s.FullName != "" && s.PhoneNumber != "" && s.Birthday != ""
}

// KeyFor derives the conversation key for a user in a chat.
func KeyFor(userID, chatID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(chatID, 10)
}
