package telegram

import (
	"testing"

	"github.com/m3rciful/onboardbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	r.RegisterCommand("/reset", commands.Command{Handler: noop, Description: "Reset", Aliases: []string{"restart"}})
	r.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true})
	r.RegisterCommand("nope", commands.Command{Handler: noop, Description: "no slash"})
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"})

	visible := r.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "/reset" || visible[1].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if len(r.ListCommands(false)) != 3 {
		t.Fatalf("all = %+v", r.ListCommands(false))
	}
	if key, _, ok := r.LookupCommand("restart"); !ok || key != "/reset" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if cmd := r.Commands()["/start"]; cmd.Description != "Start" {
		t.Fatalf("duplicate overwrote: %+v", cmd)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCallback("lang", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterCallback("lang", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := r.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, ok := r.GetCallback("lang"); !ok {
		t.Fatal("lang not found")
	}
	if got := r.ListCallbacks(); len(got) != 1 || got[0] != "lang" {
		t.Fatalf("callbacks = %v", got)
	}
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"}})
	wh, ok := p.(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("unexpected webhook poller: %#v", p)
	}

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok || lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("unexpected long poller: %#v", lp)
	}
}
