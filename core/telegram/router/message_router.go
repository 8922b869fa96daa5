package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/onboardbot/core/telegram"
	"github.com/m3rciful/onboardbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions binds handlers for non-command messages. Nil handlers are
// logged as skipped.
type MessageOptions struct {
	Text    tele.HandlerFunc
	Contact tele.HandlerFunc
	WebApp  tele.HandlerFunc
}

// MessageRoutes builds handlers for text, contact and web-app data messages.
// Slash text matching a registered command or alias is routed to that command.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if reg != nil && strings.HasPrefix(c.Text(), "/") {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}
		return dispatch(c, "text", start, opts.Text)
	}
	contact := func(c tele.Context) error {
		return dispatch(c, "contact", time.Now(), opts.Contact)
	}
	webApp := func(c tele.Context) error {
		return dispatch(c, "web_app", time.Now(), opts.WebApp)
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnContact, Handler: wrap(contact)},
		{Endpoint: tele.OnWebApp, Handler: wrap(webApp)},
	}
}

func dispatch(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		logHandlerSummary(c, name, start, "skip", "ok", nil)
		return nil
	}
	return handleWithSummary(c, name, start, "", "", func() error {
		return h(c)
	})
}
