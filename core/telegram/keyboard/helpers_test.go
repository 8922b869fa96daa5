package keyboard

import "testing"

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{
		{Text: "A", Unique: "lang", Data: "uzb"},
		{Text: "B", Unique: "lang", Data: "rus"},
		{Text: "C", Unique: "lang", Data: "x"},
	}
	m := InlineButtonsNPerRow(btns, 2)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("unexpected layout: %+v", m.InlineKeyboard)
	}
	if got := m.InlineKeyboard[0][1]; got.Unique != "lang" || got.Data != "rus" {
		t.Fatalf("button = %+v", got)
	}
}

func TestRequestContact(t *testing.T) {
	m := RequestContact("Share")
	if len(m.ReplyKeyboard) != 1 || !m.ReplyKeyboard[0][0].Contact {
		t.Fatalf("expected a contact button: %+v", m.ReplyKeyboard)
	}
	if !m.OneTimeKeyboard {
		t.Fatal("contact keyboard should be one-time")
	}
}

func TestWebApp(t *testing.T) {
	m := WebApp("Open", "https://forms.example.com/b")
	b := m.ReplyKeyboard[0][0]
	if b.WebApp == nil || b.WebApp.URL != "https://forms.example.com/b" {
		t.Fatalf("expected web app button: %+v", b)
	}
}

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	if len(m.ReplyKeyboard) != 2 || m.ReplyKeyboard[0][1].Text != "b" {
		t.Fatalf("unexpected keyboard: %+v", m.ReplyKeyboard)
	}
}
