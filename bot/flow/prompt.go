package flow

import (
	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/locale"
)

// Reply is the input affordance attached to a prompt.
type Reply int

const (
	// ReplyNone sends the message without touching the keyboard.
	ReplyNone Reply = iota
	// ReplyLanguagePicker attaches inline buttons for every locale.
	ReplyLanguagePicker
	// ReplyRequestContact shows a one-time button that shares the contact card.
	ReplyRequestContact
	// ReplyText expects free text and removes any reply keyboard.
	ReplyText
	// ReplyBirthdayForm shows a button opening the external birthday form.
	ReplyBirthdayForm
	// ReplyMainMenu shows the persistent authenticated menu.
	ReplyMainMenu
)

func (r Reply) String() string {
	switch r {
	case ReplyLanguagePicker:
		return "language_picker"
	case ReplyRequestContact:
		return "request_contact"
	case ReplyText:
		return "text"
	case ReplyBirthdayForm:
		return "birthday_form"
	case ReplyMainMenu:
		return "main_menu"
	default:
		return "none"
	}
}

// Prompt describes one outgoing message.
type Prompt struct {
	Message locale.Message
	// Locale is ignored when Bilingual is set.
	Locale    locale.Locale
	Reply     Reply
	Bilingual bool
	// Balance fills the MsgBalance template.
	Balance *account.Balance
}

// CallKind tags an account service request.
type CallKind string

const (
	CallLogin   CallKind = "login"
	CallBalance CallKind = "balance"
)

// Call asks the caller to perform an account request and feed the outcome
// back as LoginSucceeded/LoginFailed or BalanceSucceeded/BalanceFailed.
type Call struct {
	Kind       CallKind
	Login      account.LoginRequest
	Credential string
}

func chooseLanguage() Prompt {
	return Prompt{Message: locale.MsgChooseLanguage, Bilingual: true, Reply: ReplyLanguagePicker}
}

func ack(l locale.Locale) Prompt {
	return Prompt{Message: locale.MsgSuccess, Locale: l.Or(locale.Default)}
}

func say(l locale.Locale, m locale.Message, r Reply) Prompt {
	return Prompt{Message: m, Locale: l.Or(locale.Default), Reply: r}
}
