// Package flow is the onboarding state machine. Transition is pure: it never
// performs I/O, and the same session and event always yield the same result.
package flow

import (
	"strings"

	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/bot/session"
)

// Result is the outcome of one transition.
type Result struct {
	Session session.Session
	Prompts []Prompt
	// Call is set when the account service must be consulted before the
	// conversation can continue.
	Call *Call
}

// Transition applies ev to s.
func Transition(s session.Session, ev Event) Result {
	switch e := ev.(type) {
	case Reset:
		return reset()
	case Start:
		return chooseAgain(s)
	case LanguagePicked:
		return pickLanguage(s, e.Locale)
	case Text:
		return onText(s, e.Text)
	case ContactShared:
		return onContact(s, e)
	case FormSubmitted:
		return onForm(s, e.Data)
	case LoginSucceeded:
		return onLoginSucceeded(s, e.Credential)
	case LoginFailed:
		return onLoginFailed(s)
	case BalanceSucceeded:
		return onBalance(s, e)
	case BalanceFailed:
		return onBalanceFailed(s, e.Unauthorized)
	}
	return Result{Session: s}
}

func reset() Result {
	return Result{
		Session: session.Default(),
		Prompts: []Prompt{
			{Message: locale.MsgReset, Bilingual: true, Reply: ReplyText},
			chooseLanguage(),
		},
	}
}

// chooseAgain drops the locale but keeps identity and credential so the user
// only has to answer the questions that are still open.
func chooseAgain(s session.Session) Result {
	s.State = session.ChooseLanguage
	s.Locale = locale.None
	return Result{Session: s, Prompts: []Prompt{chooseLanguage()}}
}

func pickLanguage(s session.Session, l locale.Locale) Result {
	if _, ok := locale.Parse(string(l)); !ok {
		return reprompt(s)
	}
	s.Locale = l
	switch {
	case s.FullName == "":
		s.State = session.AskFullName
		return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAskFullName, ReplyText)}}
	case s.PhoneNumber == "":
		s.State = session.AskContact
		return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAskContact, ReplyRequestContact)}}
	case s.Birthday == "":
		s.State = session.AskBirthday
		return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAskBirthday, ReplyBirthdayForm)}}
	case s.Credential != "":
		s.State = session.Authenticated
		return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgLanguageChanged, ReplyMainMenu)}}
	}
	// Identity is complete but the credential is gone: log in again. The
	// acknowledgement comes with the login outcome.
	s.State = session.AskBirthday
	return Result{Session: s, Call: loginCall(s)}
}

func onText(s session.Session, text string) Result {
	intent, matched := locale.MatchIntent(text)
	if intent == locale.IntentChangeLanguage {
		return chooseAgain(s)
	}
	if s.Locale == locale.None || s.State == session.ChooseLanguage {
		s.State = session.ChooseLanguage
		s.Locale = locale.None
		return Result{Session: s, Prompts: []Prompt{ack(locale.Default), chooseLanguage()}}
	}

	l := s.Locale
	switch s.State {
	case session.AskFullName:
		if strings.TrimSpace(text) == "" {
			return reprompt(s)
		}
		s.FullName = text
		s.State = session.AskContact
		return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAskContact, ReplyRequestContact)}}
	case session.Authenticated:
		if intent != locale.IntentViewBalance || matched != l {
			return reprompt(s)
		}
		if s.Credential == "" {
			return chooseAgain(s)
		}
		return Result{Session: s, Call: &Call{Kind: CallBalance, Credential: s.Credential}}
	}
	return reprompt(s)
}

func onContact(s session.Session, e ContactShared) Result {
	if s.State != session.AskContact || s.Locale == locale.None {
		return reprompt(s)
	}
	if !e.Own {
		return Result{Session: s, Prompts: []Prompt{say(s.Locale, locale.MsgContactNotOwn, ReplyRequestContact)}}
	}
	phone := NormalizePhone(e.Phone)
	if phone == "" {
		return reprompt(s)
	}
	s.PhoneNumber = phone
	s.State = session.AskBirthday
	l := s.Locale
	return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAskBirthday, ReplyBirthdayForm)}}
}

func onForm(s session.Session, data string) Result {
	if s.State != session.AskBirthday || s.Locale == locale.None {
		return reprompt(s)
	}
	birthday, ok := ParseBirthday(data)
	if !ok {
		l := s.Locale
		return Result{Session: s, Prompts: []Prompt{
			say(l, locale.MsgError, ReplyNone),
			say(l, locale.MsgAskBirthday, ReplyBirthdayForm),
		}}
	}
	s.Birthday = birthday
	if s.FullName == "" || s.PhoneNumber == "" {
		return pickLanguage(s, s.Locale)
	}
	return Result{Session: s, Call: loginCall(s)}
}

func onLoginSucceeded(s session.Session, credential string) Result {
	if s.State != session.AskBirthday {
		return Result{Session: s}
	}
	if credential == "" || !s.HasIdentity() {
		return onLoginFailed(s)
	}
	s.Credential = credential
	s.State = session.Authenticated
	l := s.Locale
	return Result{Session: s, Prompts: []Prompt{ack(l), say(l, locale.MsgAuthenticated, ReplyMainMenu)}}
}

func onLoginFailed(s session.Session) Result {
	if s.State != session.AskBirthday {
		return Result{Session: s}
	}
	l := s.Locale
	s.FullName, s.PhoneNumber, s.Birthday, s.Credential = "", "", "", ""
	if l == locale.None {
		return chooseAgain(s)
	}
	s.State = session.AskFullName
	return Result{Session: s, Prompts: []Prompt{
		say(l, locale.MsgError, ReplyNone),
		say(l, locale.MsgAskFullName, ReplyText),
	}}
}

func onBalance(s session.Session, e BalanceSucceeded) Result {
	if s.State != session.Authenticated {
		return Result{Session: s}
	}
	b := e.Balance
	p := say(s.Locale, locale.MsgBalance, ReplyMainMenu)
	p.Balance = &b
	return Result{Session: s, Prompts: []Prompt{p}}
}

func onBalanceFailed(s session.Session, unauthorized bool) Result {
	if s.State != session.Authenticated {
		return Result{Session: s}
	}
	l := s.Locale
	if !unauthorized {
		return Result{Session: s, Prompts: []Prompt{
			say(l, locale.MsgError, ReplyNone),
			say(l, locale.MsgUseMenu, ReplyMainMenu),
		}}
	}
	s.Credential = ""
	s.State = session.ChooseLanguage
	s.Locale = locale.None
	return Result{Session: s, Prompts: []Prompt{say(l, locale.MsgError, ReplyNone), chooseLanguage()}}
}

// reprompt repeats the question of the current state without changing it.
func reprompt(s session.Session) Result {
	if s.Locale == locale.None || s.State == session.ChooseLanguage {
		s.State = session.ChooseLanguage
		s.Locale = locale.None
		return Result{Session: s, Prompts: []Prompt{chooseLanguage()}}
	}
	return Result{Session: s, Prompts: []Prompt{Current(s)}}
}

// Current is the prompt that asks for whatever s is waiting on.
func Current(s session.Session) Prompt {
	l := s.Locale
	switch s.State {
	case session.AskFullName:
		return say(l, locale.MsgAskFullName, ReplyText)
	case session.AskContact:
		return say(l, locale.MsgAskContact, ReplyRequestContact)
	case session.AskBirthday:
		return say(l, locale.MsgAskBirthday, ReplyBirthdayForm)
	case session.Authenticated:
		return say(l, locale.MsgUseMenu, ReplyMainMenu)
	}
	return chooseLanguage()
}

func loginCall(s session.Session) *Call {
	c := &Call{Kind: CallLogin}
	c.Login.DisplayName = s.FullName
	c.Login.PhoneNumber = s.PhoneNumber
	c.Login.Birthday = s.Birthday
	return c
}
