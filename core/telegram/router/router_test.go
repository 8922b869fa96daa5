package router

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/onboardbot/core/telegram"
	"github.com/m3rciful/onboardbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "store unavailable" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{codedErr{}, "STORE_UNAVAILABLE"},
		{fmt.Errorf("wrap: %w", codedErr{}), "STORE_UNAVAILABLE"},
		{&plainErr{}, "PLAINERR"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := deriveErrorCode(tc.err); got != tc.want {
			t.Fatalf("deriveErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if got := deriveErrorCode(errors.New("x")); got == "" {
		t.Fatal("expected a type-derived code")
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	if got := normalizeHandlerName("/Reset"); got != "reset" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeHandlerName("  "); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}

func TestCommandRoutesBindAliases(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     func(tele.Context) error { return nil },
		Description: "Reset",
		Aliases:     []string{"restart"},
	})
	routes := CommandRoutes(reg)
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}
	seen := map[any]bool{}
	for _, r := range routes {
		seen[r.Endpoint] = true
	}
	if !seen["/reset"] || !seen["/restart"] {
		t.Fatalf("endpoints = %v", seen)
	}
}

func TestMessageRoutesEndpoints(t *testing.T) {
	routes := MessageRoutes(nil, MessageOptions{})
	want := []string{tele.OnText, tele.OnContact, tele.OnWebApp}
	if len(routes) != len(want) {
		t.Fatalf("routes = %d", len(routes))
	}
	for i, r := range routes {
		if r.Endpoint != want[i] {
			t.Fatalf("route %d endpoint = %v, want %v", i, r.Endpoint, want[i])
		}
	}
}
