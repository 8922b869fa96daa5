package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// newTestLogger returns a logger writing through the structured handler and
// a func that closes the writer and returns everything written.
func newTestLogger(format logFormat, component string) (*slog.Logger, func() string) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	return slog.New(h).With("component", component), func() string {
		_ = aw.Close()
		return strings.TrimSpace(buf.String())
	}
}

func assertInOrder(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx == -1 {
			t.Fatalf("%s not found in %s", p, line)
		}
		if idx < pos {
			t.Fatalf("%s out of order in %s", p, line)
		}
		pos = idx
	}
}

func TestHandlerAddsSessionKeyFromContext(t *testing.T) {
	log, output := newTestLogger(formatKV, "session")
	ctx := WithSessionKey(Background(), "42:42")
	ctx = WithUpdateMeta(ctx, 7, 42, 42)

	LogEvent(ctx, log, slog.LevelInfo, "session.update", slog.String("status", "ok"))

	line := output()
	assertInOrder(t, line, "component=session", "event=session.update", "status=ok", "update_id=7", "key=42:42")
}

func TestHandlerKeepsExplicitKey(t *testing.T) {
	log, output := newTestLogger(formatJSON, "session")
	ctx := WithSessionKey(Background(), "1:1")

	LogEvent(ctx, log, slog.LevelInfo, "session.load", slog.String("key", "2:2"))

	line := output()
	if !strings.Contains(line, `"key":"2:2"`) {
		t.Fatalf("explicit key overwritten: %s", line)
	}
	if strings.Contains(line, `"1:1"`) {
		t.Fatalf("context key leaked: %s", line)
	}
}

func TestHandlerOrdersTransitionFields(t *testing.T) {
	log, output := newTestLogger(formatJSON, "flow")
	ctx := WithHandler(WithSessionKey(Background(), "5:9"), "text")

	// attrs deliberately out of order
	LogEvent(ctx, log, slog.LevelInfo, "flow.transition",
		slog.String("call", "login"),
		slog.String("locale", "rus"),
		slog.String("next_state", "ask_birthday"),
		slog.String("state", "ask_birthday"),
		slog.String("input", "form_submitted"),
		slog.Int("prompts", 0),
	)

	assertInOrder(t, output(),
		`"component":"flow"`, `"event":"flow.transition"`,
		`"handler":"text"`, `"input":"form_submitted"`, `"key":"5:9"`,
		`"state":"ask_birthday"`, `"next_state":"ask_birthday"`,
		`"locale":"rus"`, `"call":"login"`, `"prompts":0`,
	)
}

func TestHandlerRedactsSecrets(t *testing.T) {
	log, output := newTestLogger(formatJSON, "account")

	LogEvent(Background(), log, slog.LevelInfo, "account.login",
		slog.String("credential", "tok-secret"),
		slog.String("phone", "+998901234567"),
	)
	LogEvent(Background(), log, slog.LevelInfo, "account.login",
		slog.String("phone", Redact("+998901234567", 4)),
	)

	lines := strings.Split(output(), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if strings.Contains(lines[0], "tok-secret") || !strings.Contains(lines[0], `"credential":"[redacted]"`) {
		t.Fatalf("credential not redacted: %s", lines[0])
	}
	want := `"phone":"*********4567"`
	for _, l := range lines {
		if !strings.Contains(l, want) {
			t.Fatalf("phone not masked once: %s", l)
		}
	}
}

func TestHandlerDurationKeys(t *testing.T) {
	log, output := newTestLogger(formatKV, "session")

	LogEvent(Background(), log, slog.LevelInfo, "session.lock",
		slog.Duration("duration", 1500*time.Millisecond),
		slog.Duration("wait", 20*time.Millisecond),
		slog.Duration("lock_duration", 3*time.Millisecond),
		slog.Any("backoff_ms", 250*time.Millisecond),
	)

	line := output()
	for _, want := range []string{"duration_ms=1500", "wait_ms=20", "lock_duration_ms=3", "backoff_ms=250"} {
		if !strings.Contains(line, want) {
			t.Fatalf("%s missing in %s", want, line)
		}
	}
}

func TestHandlerCompactRIDJSON(t *testing.T) {
	log, output := newTestLogger(formatJSON, "tg")
	rawRID := BuildRID(12, 34, 56)

	LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "update.received")

	line := output()
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full, got %s", line)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterIsolatesFailingSink(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{failingWriter{}, buf}, 16)

	if err := aw.Write([]byte("one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := aw.Flush(); err == nil {
		t.Fatal("expected the failing sink to be reported")
	}
	if err := aw.Write([]byte("two\n")); err != nil {
		t.Fatalf("write after sink failure: %v", err)
	}
	if err := aw.Close(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("close err = %v", err)
	}
	if got := buf.String(); got != "one\ntwo\n" {
		t.Fatalf("healthy sink got %q", got)
	}
}

func TestAsyncWriterRejectsWritesAfterClose(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{io.Discard}, 0)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := aw.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close err = %v", err)
	}
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestKindSamplerCountsPerKind(t *testing.T) {
	s := newKindSampler(1, 3)

	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, s.Allow("message"))
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message #%d allowed = %v, want %v", i, got[i], want[i])
		}
	}
	if !s.Allow("contact") {
		t.Fatal("first contact must pass regardless of message volume")
	}

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow("message") {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"":     {0, 0},
		"all":  {1, 1},
		"1/50": {1, 50},
		"2/10": {2, 10},
		"20":   {1, 20},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"junk": {0, 0},
	}
	for in, want := range cases {
		num, den := parseRatio(in)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", in, num, den, want[0], want[1])
		}
	}
}
