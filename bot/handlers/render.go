package handlers

import (
	"github.com/m3rciful/onboardbot/bot/flow"
	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/core/telegram/helpers"
	"github.com/m3rciful/onboardbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// LanguageCallback is the inline button key of the language picker.
const LanguageCallback = "lang"

// Renderer turns prompt descriptors into Telegram messages.
type Renderer struct {
	catalog     *locale.Catalog
	birthdayURL string
}

// NewRenderer returns a Renderer using catalog for copy and birthdayURL for
// the web-app form button.
func NewRenderer(catalog *locale.Catalog, birthdayURL string) *Renderer {
	if catalog == nil {
		catalog = locale.Builtin()
	}
	return &Renderer{catalog: catalog, birthdayURL: birthdayURL}
}

// Messages renders prompts in order.
func (r *Renderer) Messages(prompts []flow.Prompt) []helpers.Outgoing {
	out := make([]helpers.Outgoing, 0, len(prompts))
	for _, p := range prompts {
		msg := helpers.Outgoing{Text: r.Text(p)}
		if m := r.Markup(p); m != nil {
			msg.Opts = &tele.SendOptions{ReplyMarkup: m}
		}
		out = append(out, msg)
	}
	return out
}

// Text renders the copy of p.
func (r *Renderer) Text(p flow.Prompt) string {
	if p.Bilingual {
		return r.catalog.Bilingual(p.Message)
	}
	if p.Message == locale.MsgBalance && p.Balance != nil {
		return r.catalog.Text(p.Locale, p.Message,
			p.Balance.Balance.String(),
			p.Balance.MerchantName,
			p.Balance.LoyaltyPercentage.String(),
		)
	}
	return r.catalog.Text(p.Locale, p.Message)
}

// Markup builds the keyboard for the reply affordance of p; nil leaves the
// current keyboard alone.
func (r *Renderer) Markup(p flow.Prompt) *tele.ReplyMarkup {
	l := p.Locale.Or(locale.Default)
	switch p.Reply {
	case flow.ReplyLanguagePicker:
		btns := make([]keyboard.InlineBtn, 0, len(locale.Supported()))
		for _, opt := range locale.Supported() {
			btns = append(btns, keyboard.InlineBtn{
				Text:   r.catalog.Text(opt, locale.MsgLanguageName),
				Unique: LanguageCallback,
				Data:   string(opt),
			})
		}
		return keyboard.InlineButtonsNPerRow(btns, 2)
	case flow.ReplyRequestContact:
		return keyboard.RequestContact(r.catalog.Text(l, locale.MsgSendContact))
	case flow.ReplyText:
		return keyboard.RemoveKeyboard()
	case flow.ReplyBirthdayForm:
		return keyboard.WebApp(r.catalog.Text(l, locale.MsgOpenBirthdayForm), r.birthdayURL)
	case flow.ReplyMainMenu:
		return keyboard.ReplyButtons([]string{
			r.catalog.Text(l, locale.MsgViewBalance),
			r.catalog.Text(l, locale.MsgChangeLanguage),
		})
	}
	return nil
}

// Unavailable is the notice sent when the session store cannot be reached.
func (r *Renderer) Unavailable() string {
	return r.catalog.Bilingual(locale.MsgUnavailable)
}
