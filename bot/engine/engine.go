// Package engine runs one conversation event end to end: it serializes on the
// conversation key, applies the state machine, performs at most one account
// call, feeds the outcome back and persists the result.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/flow"
	"github.com/m3rciful/onboardbot/bot/session"
	"github.com/m3rciful/onboardbot/core/logger"
	"github.com/m3rciful/onboardbot/core/metrics"
)

// Accounts is the account service as the engine needs it.
type Accounts interface {
	Login(ctx context.Context, req account.LoginRequest) (string, error)
	Balance(ctx context.Context, credential string) (account.Balance, error)
}

// Sessions runs a read-modify-write cycle under the per-key lock.
type Sessions interface {
	Update(ctx context.Context, key string, fn session.UpdateFunc) error
}

// Engine wires the state machine to storage and the account service.
type Engine struct {
	sessions Sessions
	accounts Accounts
}

// New returns an Engine.
func New(sessions Sessions, accounts Accounts) *Engine {
	return &Engine{sessions: sessions, accounts: accounts}
}

// Handle processes ev for the conversation key and returns the prompts to
// render, in order. The account call runs inside the critical section so a
// concurrent event for the same key observes its outcome. When the session
// cannot be loaded or saved no prompts are returned.
func (e *Engine) Handle(ctx context.Context, key string, ev flow.Event) ([]flow.Prompt, error) {
	var prompts []flow.Prompt
	err := e.sessions.Update(ctx, key, func(ctx context.Context, cur session.Session) (session.Session, error) {
		prompts = prompts[:0]

		res := flow.Transition(cur, ev)
		logTransition(ctx, ev, cur, res)
		prompts = append(prompts, res.Prompts...)

		if res.Call != nil {
			outcome := e.perform(ctx, *res.Call)
			after := flow.Transition(res.Session, outcome)
			logTransition(ctx, outcome, res.Session, after)
			if after.Call != nil {
				logger.Warn(ctx, "flow", "call.chained",
					slog.String("call", string(after.Call.Kind)),
				)
			}
			prompts = append(prompts, after.Prompts...)
			res = after
		}
		return res.Session, nil
	})
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

// perform executes c once and translates the result into an outcome event.
func (e *Engine) perform(ctx context.Context, c flow.Call) flow.Event {
	switch c.Kind {
	case flow.CallLogin:
		token, err := e.accounts.Login(ctx, c.Login)
		if err != nil {
			return flow.LoginFailed{Err: err}
		}
		return flow.LoginSucceeded{Credential: token}
	case flow.CallBalance:
		b, err := e.accounts.Balance(ctx, c.Credential)
		if err != nil {
			return flow.BalanceFailed{Unauthorized: errors.Is(err, account.ErrUnauthorized)}
		}
		return flow.BalanceSucceeded{Balance: b}
	}
	return flow.LoginFailed{Err: errors.New("engine: unknown call " + string(c.Kind))}
}

func logTransition(ctx context.Context, ev flow.Event, from session.Session, res flow.Result) {
	metrics.IncTransition(string(from.State), string(res.Session.State))

	attrs := []slog.Attr{
		slog.String("input", flow.Name(ev)),
		slog.String("state", string(from.State)),
		slog.String("next_state", string(res.Session.State)),
		slog.Int("prompts", len(res.Prompts)),
	}
	if l := res.Session.Locale; l != "" {
		attrs = append(attrs, slog.String("locale", string(l)))
	}
	if res.Call != nil {
		attrs = append(attrs, slog.String("call", string(res.Call.Kind)))
	}
	if failed, ok := ev.(flow.LoginFailed); ok && failed.Err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(failed.Err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "flow.transition", attrs...)
}
