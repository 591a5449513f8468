package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luckytyphlosion/countdown-notifs/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDiscordConfig(t *testing.T, roles int, webhook string) string {
	t.Helper()
	r := make([]string, roles)
	for i := range r {
		r[i] = fmt.Sprintf("<@&%d>", i)
	}
	b, err := json.Marshal(map[string]interface{}{"roles": r, "webhook_url": webhook})
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, b, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestInvalidModeFails(t *testing.T) {
	out, err := execute(t, "email")
	if err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
	if !strings.Contains(out, "invalid argument") {
		t.Fatalf("expected error output, got %q", out)
	}
}

func TestMissingModeFails(t *testing.T) {
	if _, err := execute(t); err == nil {
		t.Fatal("expected an error when no mode is given")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "countdown-notifs dev") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestDiscordModeRejectsBadRoles(t *testing.T) {
	cfg := writeDiscordConfig(t, 11, "http://hook.test")
	_, err := execute(t, "discord", "-c", cfg, "--env-file", "", "--once", "--status-url", "http://127.0.0.1:1/")
	if !errors.Is(err, config.ErrInvalidRoles) {
		t.Fatalf("expected ErrInvalidRoles, got %v", err)
	}
}

func TestDiscordModeOnce(t *testing.T) {
	statusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>COUNTDOWN STATUS: There are 2 players in Countdown Rooms.</h1>"))
	}))
	defer statusSrv.Close()

	var content string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		content = p["content"]
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	cfg := writeDiscordConfig(t, 12, hook.URL)
	if _, err := execute(t, "discord", "-c", cfg, "--env-file", "", "--once", "--status-url", statusSrv.URL); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if want := "COUNTDOWN STATUS: There are 2 players in Countdown Rooms.\n<@&0> <@&1>"; content != want {
		t.Fatalf("unexpected webhook content %q", content)
	}
}

func TestDiscordModeOnceDeliveryFailure(t *testing.T) {
	statusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>COUNTDOWN STATUS: There is 1 player in a Countdown Room.</h1>"))
	}))
	defer statusSrv.Close()
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer hook.Close()

	cfg := writeDiscordConfig(t, 12, hook.URL)
	if _, err := execute(t, "discord", "-c", cfg, "--env-file", "", "--once", "--status-url", statusSrv.URL); err == nil {
		t.Fatal("expected delivery failure to surface as a non-zero exit")
	}
}

func TestLoadSettingsPrecedence(t *testing.T) {
	const file = "poll_interval: 2m\nstatus_url: http://file.test/status\nlog_level: warn\n"
	type want struct {
		statusURL      string
		logLevel       string
		poll           time.Duration
		metricsEnabled bool
		metricsPort    int
	}
	tests := []struct {
		name string
		file string
		env  map[string]string
		args []string
		want want
	}{
		{
			name: "defaults",
			want: want{config.DefaultStatusURL, "info", 180 * time.Second, false, 9090},
		},
		{
			name: "settings file over defaults",
			file: file,
			want: want{"http://file.test/status", "warn", 2 * time.Minute, false, 9090},
		},
		{
			name: "env over settings file",
			file: file,
			env:  map[string]string{"COUNTDOWN_STATUS_URL": "http://env.test/status", "COUNTDOWN_LOG_LEVEL": "error"},
			want: want{"http://env.test/status", "error", 2 * time.Minute, false, 9090},
		},
		{
			name: "flags over env",
			file: file,
			env:  map[string]string{"COUNTDOWN_STATUS_URL": "http://env.test/status", "COUNTDOWN_LOG_LEVEL": "error"},
			args: []string{"--status-url", "http://flag.test/status", "--log-level", "debug"},
			want: want{"http://flag.test/status", "debug", 2 * time.Minute, false, 9090},
		},
		{
			name: "env metrics port alone does not enable metrics",
			env:  map[string]string{"COUNTDOWN_METRICS_PORT": "9292"},
			want: want{config.DefaultStatusURL, "info", 180 * time.Second, false, 9292},
		},
		{
			name: "metrics port flag enables metrics",
			env:  map[string]string{"COUNTDOWN_METRICS_PORT": "9292"},
			args: []string{"--metrics-port", "9191"},
			want: want{config.DefaultStatusURL, "info", 180 * time.Second, true, 9191},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"--env-file", ""}, tt.args...)
			if tt.file != "" {
				p := filepath.Join(t.TempDir(), "settings.yaml")
				if err := os.WriteFile(p, []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
				args = append(args, "--settings", p)
			}

			opts := &options{}
			cmd := buildRootCmd(opts)
			if err := cmd.ParseFlags(args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			s, err := loadSettings(cmd, opts)
			if err != nil {
				t.Fatalf("loadSettings failed: %v", err)
			}

			got := want{s.StatusURL, s.LogLevel, s.PollInterval, s.MetricsEnabled, s.MetricsPort}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNonPositiveIntervalFails(t *testing.T) {
	t.Setenv("COUNTDOWN_BACKOFF_INITIAL", "0s")
	_, err := execute(t, "local", "--env-file", "", "--once", "--status-url", "http://127.0.0.1:1/")
	if !errors.Is(err, config.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}
