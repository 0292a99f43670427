package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Info(CatAPI, "Checked username", "username", "ada_lovelace", "unique", true)

	line := buf.String()
	require.Contains(t, line, "[INFO] [api] Checked username")
	require.Contains(t, line, "username=ada_lovelace unique=true")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestLog_OddFieldsMarkedMissing(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Warn(CatForm, "Dangling", "field")

	require.Contains(t, buf.String(), "field=<missing>")
}

func TestLog_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Debug(CatSession, "Callback", "email", "ada@example.com", "password", "analytical-engine", "CSRF_Token", "abc123", "token", "s3cr3t")

	line := buf.String()
	require.Contains(t, line, "email=ada@example.com")
	require.Contains(t, line, "password="+Redacted)
	require.Contains(t, line, "CSRF_Token="+Redacted)
	require.NotContains(t, line, "analytical-engine")
	require.NotContains(t, line, "abc123")
	require.NotContains(t, line, "s3cr3t")
}

func TestIsSecret(t *testing.T) {
	require.True(t, IsSecret("Password"))
	require.True(t, IsSecret("cookie"))
	require.False(t, IsSecret("username"))
}

func TestErrorErr_AppendsError(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	ErrorErr(CatSession, "Sign in failed", errors.New("401"), "email", "ada@example.com")
	ErrorErr(CatSession, "No error", nil)

	out := buf.String()
	require.Contains(t, out, "[ERROR] [session] Sign in failed email=ada@example.com error=401")
	require.Contains(t, out, "error=<nil>")
}

func TestSetMinLevel_FiltersBelow(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetMinLevel(LevelWarn)

	Debug(CatUI, "hidden")
	Info(CatUI, "hidden too")
	Error(CatUI, "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestSetEnabled_False(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetEnabled(false)

	Error(CatDB, "dropped")
	require.Empty(t, buf.String())

	SetEnabled(true)
	Error(CatDB, "kept")
	require.Contains(t, buf.String(), "kept")
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := defaultLogger.broker.Subscribe(ctx)

	Info(CatCache, "Cache hit", "key", "username:ada")

	select {
	case ev := <-ch:
		require.Equal(t, LevelInfo, ev.Payload.Level)
		require.Equal(t, CatCache, ev.Payload.Category)
		require.Equal(t, "Cache hit", ev.Payload.Message)
		require.Contains(t, ev.Payload.Line, "key=username:ada")
	case <-time.After(time.Second):
		t.Fatal("no log entry published")
	}
}

func TestNewListener_NilBeforeInit(t *testing.T) {
	saved := defaultLogger
	defaultLogger = nil
	t.Cleanup(func() { defaultLogger = saved })

	require.Nil(t, NewListener(context.Background()))
	Info(CatUI, "no-op")
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(42).String())
}
