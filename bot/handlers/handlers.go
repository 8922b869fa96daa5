// Package handlers adapts Telegram updates to conversation events and sends
// the resulting prompts back.
package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/onboardbot/bot/flow"
	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/bot/session"
	"github.com/m3rciful/onboardbot/core/logger"
	tg "github.com/m3rciful/onboardbot/core/telegram"
	"github.com/m3rciful/onboardbot/core/telegram/callbacks"
	"github.com/m3rciful/onboardbot/core/telegram/commands"
	"github.com/m3rciful/onboardbot/core/telegram/helpers"
	"github.com/m3rciful/onboardbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Engine processes one event for a conversation.
type Engine interface {
	Handle(ctx context.Context, key string, ev flow.Event) ([]flow.Prompt, error)
}

// Handler holds the Telegram handlers of the onboarding bot.
type Handler struct {
	engine Engine
	render *Renderer
}

// New returns a Handler.
func New(engine Engine, render *Renderer) *Handler {
	return &Handler{engine: engine, render: render}
}

// Register adds the bot commands and callbacks to reg.
func (h *Handler) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Boshlash / Начать",
	})
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     h.Reset,
		Description: "Qayta boshlash / Сбросить",
	})
	return reg.RegisterCallback(LanguageCallback, h.Language)
}

// Routes returns every route of the bot; call Register first.
func (h *Handler) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Text:    h.Text,
		Contact: h.Contact,
		WebApp:  h.WebApp,
	})...)
	return routes
}

func (h *Handler) Start(c tele.Context) error { return h.handle(c, flow.Start{}) }
func (h *Handler) Reset(c tele.Context) error { return h.handle(c, flow.Reset{}) }
func (h *Handler) Text(c tele.Context) error  { return h.handle(c, flow.Text{Text: c.Text()}) }

// Contact handles a shared contact card. Only the sender's own card counts.
func (h *Handler) Contact(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Contact == nil {
		return nil
	}
	own := c.Sender() != nil && msg.Contact.UserID == c.Sender().ID
	return h.handle(c, flow.ContactShared{Phone: msg.Contact.PhoneNumber, Own: own})
}

// WebApp handles data posted back by the birthday form.
func (h *Handler) WebApp(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.WebAppData == nil {
		return nil
	}
	return h.handle(c, flow.FormSubmitted{Data: msg.WebAppData.Data})
}

// Language handles a press on the language picker.
func (h *Handler) Language(c tele.Context) error {
	_, payload := callbacks.ParseCallbackData(c.Callback())
	return h.handle(c, flow.LanguagePicked{Locale: locale.Locale(payload)})
}

func (h *Handler) handle(c tele.Context, ev flow.Event) error {
	user, chat := c.Sender(), c.Chat()
	if user == nil || chat == nil {
		return nil
	}
	key := session.KeyFor(user.ID, chat.ID)
	ctx := logger.WithSessionKey(helpers.BuildContext(c), key)
	helpers.StoreContext(c, ctx)

	prompts, err := h.engine.Handle(ctx, key, ev)
	if err != nil {
		if errors.Is(err, session.ErrStoreUnavailable) || errors.Is(err, session.ErrLockTimeout) {
			if sendErr := helpers.SendText(c, h.render.Unavailable()); sendErr != nil {
				logger.Warn(ctx, "tg", "notice.fail", slog.String("err", sendErr.Error()))
			}
		}
		return err
	}
	return helpers.SendSequence(c, h.render.Messages(prompts))
}
