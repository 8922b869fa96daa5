package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/engine"
	"github.com/m3rciful/onboardbot/bot/flow"
	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/bot/session"
	tg "github.com/m3rciful/onboardbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
}

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	cb    *tele.Callback
	user  *tele.User
	store map[string]any
	out   []sent
}

func newContext(msg *tele.Message, cb *tele.Callback) *fakeContext {
	return &fakeContext{msg: msg, cb: cb, user: &tele.User{ID: 7}, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: f.msg, Callback: f.cb}
}
func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: 9} }
func (f *fakeContext) Message() *tele.Message   { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }
func (f *fakeContext) Text() string {
	if f.msg != nil {
		return f.msg.Text
	}
	return ""
}

func (f *fakeContext) Send(what any, opts ...any) error {
	s := sent{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			s.markup = so.ReplyMarkup
		}
	}
	f.out = append(f.out, s)
	return nil
}

type recordingEngine struct {
	key     string
	events  []flow.Event
	prompts []flow.Prompt
	err     error
}

func (r *recordingEngine) Handle(_ context.Context, key string, ev flow.Event) ([]flow.Prompt, error) {
	r.key = key
	r.events = append(r.events, ev)
	return r.prompts, r.err
}

type stubAccounts struct{}

func (stubAccounts) Login(context.Context, account.LoginRequest) (string, error) { return "tok", nil }
func (stubAccounts) Balance(context.Context, string) (account.Balance, error) {
	return account.Balance{}, nil
}

func newHandler(e Engine) *Handler {
	return New(e, NewRenderer(locale.Builtin(), "https://forms.example.com/b"))
}

func TestTextBecomesEvent(t *testing.T) {
	eng := &recordingEngine{prompts: []flow.Prompt{{Message: locale.MsgAskContact, Locale: locale.Uzbek, Reply: flow.ReplyRequestContact}}}
	h := newHandler(eng)
	c := newContext(&tele.Message{Text: "Ali Valiyev"}, nil)

	require.NoError(t, h.Text(c))
	assert.Equal(t, "7:9", eng.key)
	assert.Equal(t, []flow.Event{flow.Text{Text: "Ali Valiyev"}}, eng.events)
	require.Len(t, c.out, 1)
	assert.Equal(t, locale.Builtin().Text(locale.Uzbek, locale.MsgAskContact), c.out[0].text)
	require.NotNil(t, c.out[0].markup)
	assert.True(t, c.out[0].markup.ReplyKeyboard[0][0].Contact)
}

func TestContactOwnership(t *testing.T) {
	eng := &recordingEngine{}
	h := newHandler(eng)

	own := newContext(&tele.Message{Contact: &tele.Contact{PhoneNumber: "998901234567", UserID: 7}}, nil)
	require.NoError(t, h.Contact(own))
	foreign := newContext(&tele.Message{Contact: &tele.Contact{PhoneNumber: "998900000000", UserID: 8}}, nil)
	require.NoError(t, h.Contact(foreign))

	assert.Equal(t, []flow.Event{
		flow.ContactShared{Phone: "998901234567", Own: true},
		flow.ContactShared{Phone: "998900000000", Own: false},
	}, eng.events)
}

func TestWebAppAndLanguage(t *testing.T) {
	eng := &recordingEngine{}
	h := newHandler(eng)

	require.NoError(t, h.WebApp(newContext(&tele.Message{WebAppData: &tele.WebAppData{Data: `{"a":1}`}}, nil)))
	require.NoError(t, h.Language(newContext(nil, &tele.Callback{Data: "\flang|rus"})))

	assert.Equal(t, []flow.Event{
		flow.FormSubmitted{Data: `{"a":1}`},
		flow.LanguagePicked{Locale: locale.Russian},
	}, eng.events)
}

func TestStoreFailureSendsNoticeOnly(t *testing.T) {
	eng := &recordingEngine{
		prompts: []flow.Prompt{{Message: locale.MsgSuccess}},
		err:     fmt.Errorf("load: %w", session.ErrStoreUnavailable),
	}
	h := newHandler(eng)
	c := newContext(&tele.Message{Text: "hi"}, nil)

	err := h.Text(c)
	require.ErrorIs(t, err, session.ErrStoreUnavailable)
	require.Len(t, c.out, 1)
	assert.Equal(t, locale.Builtin().Bilingual(locale.MsgUnavailable), c.out[0].text)
}

func TestResetEndToEnd(t *testing.T) {
	store := session.NewMemoryStore()
	eng := engine.New(session.NewAdapter(store, session.AdapterOptions{}), stubAccounts{})
	h := newHandler(eng)

	require.NoError(t, h.Language(newContext(nil, &tele.Callback{Data: "\flang|uzb"})))
	require.NoError(t, h.Text(newContext(&tele.Message{Text: "Ali"}, nil)))

	c := newContext(&tele.Message{Text: "/reset"}, nil)
	require.NoError(t, h.Reset(c))
	require.Len(t, c.out, 2)
	assert.Equal(t, locale.Builtin().Bilingual(locale.MsgReset), c.out[0].text)
	assert.True(t, c.out[0].markup.RemoveKeyboard)
	require.Len(t, c.out[1].markup.InlineKeyboard, 1)
	assert.Len(t, c.out[1].markup.InlineKeyboard[0], 2)

	s, err := store.Load(context.Background(), "7:9")
	require.NoError(t, err)
	assert.Equal(t, session.Default(), s)
}

func TestRegisterAndRoutes(t *testing.T) {
	h := newHandler(&recordingEngine{})
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	assert.Len(t, reg.ListCommands(true), 2)
	_, ok := reg.GetCallback(LanguageCallback)
	assert.True(t, ok)
	// two commands, one callback route, three message routes
	assert.Len(t, h.Routes(reg), 6)
}
