package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/flow"
	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/bot/session"
)

type fakeAccounts struct {
	mu         sync.Mutex
	logins     []account.LoginRequest
	loginErr   error
	balanceErr error
	balance    account.Balance
	block      chan struct{}
}

func (f *fakeAccounts) Login(_ context.Context, req account.LoginRequest) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, req)
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return fmt.Sprintf("tok%d", len(f.logins)), nil
}

func (f *fakeAccounts) Balance(_ context.Context, credential string) (account.Balance, error) {
	if f.balanceErr != nil {
		return account.Balance{}, f.balanceErr
	}
	return f.balance, nil
}

type brokenStore struct{ *session.MemoryStore }

func (*brokenStore) Save(context.Context, string, session.Session) error {
	return errors.New("connection refused")
}

func newEngine(acc Accounts) (*Engine, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return New(session.NewAdapter(store, session.AdapterOptions{}), acc), store
}

func msgs(ps []flow.Prompt) []locale.Message {
	out := make([]locale.Message, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Message)
	}
	return out
}

const birthdayForm = `{"action":"birthday_submitted","birthday":"1990-05-17"}`

func onboard(t *testing.T, e *Engine, key string) []flow.Prompt {
	t.Helper()
	ctx := context.Background()
	steps := []flow.Event{
		flow.LanguagePicked{Locale: locale.Uzbek},
		flow.Text{Text: "Ali Valiyev"},
		flow.ContactShared{Phone: "998901234567", Own: true},
	}
	for _, ev := range steps {
		_, err := e.Handle(ctx, key, ev)
		require.NoError(t, err)
	}
	prompts, err := e.Handle(ctx, key, flow.FormSubmitted{Data: birthdayForm})
	require.NoError(t, err)
	return prompts
}

func TestHandleFullOnboarding(t *testing.T) {
	acc := &fakeAccounts{}
	e, store := newEngine(acc)

	prompts := onboard(t, e, "1:1")
	assert.Equal(t, []locale.Message{locale.MsgSuccess, locale.MsgAuthenticated}, msgs(prompts))

	s, err := store.Load(context.Background(), "1:1")
	require.NoError(t, err)
	assert.Equal(t, session.Session{
		State:       session.Authenticated,
		Locale:      locale.Uzbek,
		FullName:    "Ali Valiyev",
		PhoneNumber: "+998901234567",
		Birthday:    "1990-05-17",
		Credential:  "tok1",
	}, s)
	require.Len(t, acc.logins, 1)
	assert.Equal(t, "+998901234567", acc.logins[0].PhoneNumber)
}

func TestHandleLoginFailure(t *testing.T) {
	acc := &fakeAccounts{loginErr: &account.StatusError{Op: "login", Status: 500}}
	e, store := newEngine(acc)

	prompts := onboard(t, e, "1:1")
	assert.Equal(t, []locale.Message{locale.MsgError, locale.MsgAskFullName}, msgs(prompts))

	s, err := store.Load(context.Background(), "1:1")
	require.NoError(t, err)
	assert.Equal(t, session.Session{State: session.AskFullName, Locale: locale.Uzbek}, s)
}

func TestHandleBalanceUnauthorized(t *testing.T) {
	acc := &fakeAccounts{}
	e, store := newEngine(acc)
	onboard(t, e, "1:1")

	acc.balanceErr = fmt.Errorf("balance: %w", account.ErrUnauthorized)
	view := locale.Builtin().Text(locale.Uzbek, locale.MsgViewBalance)
	prompts, err := e.Handle(context.Background(), "1:1", flow.Text{Text: view})
	require.NoError(t, err)
	assert.Equal(t, []locale.Message{locale.MsgError, locale.MsgChooseLanguage}, msgs(prompts))

	s, err := store.Load(context.Background(), "1:1")
	require.NoError(t, err)
	assert.Equal(t, session.ChooseLanguage, s.State)
	assert.Empty(t, s.Credential)

	// Picking a language again logs back in with the stored identity.
	prompts, err = e.Handle(context.Background(), "1:1", flow.LanguagePicked{Locale: locale.Russian})
	require.NoError(t, err)
	assert.Equal(t, []locale.Message{locale.MsgSuccess, locale.MsgAuthenticated}, msgs(prompts))
	assert.Len(t, acc.logins, 2)
}

func TestHandleBalance(t *testing.T) {
	acc := &fakeAccounts{balance: account.Balance{Balance: "1500", MerchantName: "Shop", LoyaltyPercentage: "5"}}
	e, _ := newEngine(acc)
	onboard(t, e, "1:1")

	view := locale.Builtin().Text(locale.Uzbek, locale.MsgViewBalance)
	prompts, err := e.Handle(context.Background(), "1:1", flow.Text{Text: view})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	require.NotNil(t, prompts[0].Balance)
	assert.Equal(t, "Shop", prompts[0].Balance.MerchantName)
}

func TestHandleStoreFailureReturnsNoPrompts(t *testing.T) {
	store := &brokenStore{MemoryStore: session.NewMemoryStore()}
	e := New(session.NewAdapter(store, session.AdapterOptions{}), &fakeAccounts{})

	prompts, err := e.Handle(context.Background(), "1:1", flow.LanguagePicked{Locale: locale.Uzbek})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
	assert.Nil(t, prompts)
}

func TestHandleSerializesSameKeyAcrossCall(t *testing.T) {
	acc := &fakeAccounts{block: make(chan struct{})}
	e, store := newEngine(acc)
	ctx := context.Background()

	for _, ev := range []flow.Event{
		flow.LanguagePicked{Locale: locale.Uzbek},
		flow.Text{Text: "Ali"},
		flow.ContactShared{Phone: "998901234567", Own: true},
	} {
		_, err := e.Handle(ctx, "k", ev)
		require.NoError(t, err)
	}

	// Two deliveries of the same form: the second must see the first one's
	// outcome instead of racing it.
	var wg sync.WaitGroup
	results := make([][]flow.Prompt, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.Handle(ctx, "k", flow.FormSubmitted{Data: birthdayForm})
			assert.NoError(t, err)
			results[i] = p
		}(i)
		time.Sleep(20 * time.Millisecond)
	}
	close(acc.block)
	wg.Wait()

	assert.Len(t, acc.logins, 1, "the second delivery should not log in again")
	s, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated, s.State)
	assert.Equal(t, "tok1", s.Credential)
}

func TestHandleDifferentKeysIndependent(t *testing.T) {
	acc := &fakeAccounts{block: make(chan struct{})}
	e, _ := newEngine(acc)
	ctx := context.Background()

	for _, ev := range []flow.Event{
		flow.LanguagePicked{Locale: locale.Uzbek},
		flow.Text{Text: "Ali"},
		flow.ContactShared{Phone: "998901234567", Own: true},
	} {
		_, err := e.Handle(ctx, "a", ev)
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		_, _ = e.Handle(ctx, "a", flow.FormSubmitted{Data: birthdayForm})
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	// "a" is parked inside its login call; "b" must not wait for it.
	finished := make(chan error, 1)
	go func() {
		_, err := e.Handle(ctx, "b", flow.LanguagePicked{Locale: locale.Russian})
		finished <- err
	}()
	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("independent key blocked behind a busy conversation")
	}
	close(acc.block)
	<-done
}
