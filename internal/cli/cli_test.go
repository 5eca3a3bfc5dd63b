package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campus-outreach/internal/app"
	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/outreach"
)

type nopSender struct{ to []string }

func (n *nopSender) Send(_ context.Context, to, _, _ string) error {
	n.to = append(n.to, to)
	return nil
}

func tuesday() time.Time {
	loc, _ := time.LoadLocation("US/Eastern")
	return time.Date(2026, 3, 10, 8, 30, 0, 0, loc)
}

// clearEnv blanks every variable that would override the test file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FROM_EMAIL", "STORAGE_TYPE", "TEST_MODE", "GOOGLE_API_KEY", "GOOGLE_CX",
		"REDIS_URL", "REPORT_BUCKET", "SES_DRY_RUN", "CAMPAIGNS_FILE", "DATABASE_URL",
		"REPLY_REPORT_PERIOD", "SEND_DELAY_MIN_MS", "SEND_DELAY_MAX_MS",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const baseYAML = `
email:
  from: tawan@example.com
storage:
  type: memory
campaigns:
  leadership_week_agent:
    queries: ["student leadership week keynote"]
  career_fair_agent:
    queries: ["career fair speaker"]
    feeds: ["https://example.edu/feed"]
`

func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "outreach", cmd.Use)

	for _, name := range []string{"run", "replies", "capture", "campaigns", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfigPath, cfg.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "campaigns", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestCampaignsText(t *testing.T) {
	path := writeConfig(t, baseYAML)

	out, err := execute(t, &RootOptions{}, "campaigns", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "career_fair_agent")
	assert.Contains(t, out, "leadership_week_agent")
	assert.Contains(t, out, " 1 queries  1 feeds")
}

func TestCampaignsJSON(t *testing.T) {
	path := writeConfig(t, baseYAML)

	out, err := execute(t, &RootOptions{}, "campaigns", "--config", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"career_fair_agent", "leadership_week_agent"}, resp.Data)
}

func TestConfigErrorsExitTwo(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		args []string
	}{
		{"unknown storage", "storage:\n  type: mongo\n", []string{"run"}},
		{"postgres without url", "storage:\n  type: postgres\n", []string{"replies"}},
		{"missing sender", "storage:\n  type: memory\n", []string{"run"}},
		{"unknown sequence", baseYAML, []string{"run", "--sequence", "nope"}},
		{"unknown campaign", baseYAML, []string{"capture", "nope_agent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			opts := &RootOptions{App: app.Options{Pacer: outreach.NoPause{}, Now: tuesday}}

			_, err := execute(t, opts, append(tt.args, "--config", path)...)
			require.Error(t, err)
			assert.Equal(t, ExitConfigError, GetExitCode(err), err.Error())
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, &RootOptions{}, "campaigns", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestCaptureArgs(t *testing.T) {
	path := writeConfig(t, baseYAML)

	_, err := execute(t, &RootOptions{}, "capture", "--config", path)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, err = execute(t, &RootOptions{}, "capture", "a_agent", "--all", "--config", path)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestRunCommand(t *testing.T) {
	path := writeConfig(t, baseYAML)
	sender := &nopSender{}
	store := contacts.NewMemoryStore(domain.Contact{ID: "a", ContactEmail: "dean@uni.edu", Title: "Summit"})
	opts := &RootOptions{App: app.Options{Store: store, Sender: sender, Pacer: outreach.NoPause{}, Now: tuesday}}

	out, err := execute(t, opts, "run", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, outreach.MsgCompleted)
	assert.Contains(t, out, "sent:     1")
	assert.Contains(t, out, "by step:  #1=1")
	assert.Equal(t, []string{"dean@uni.edu", "tawan@example.com"}, sender.to)
}

func TestRunCommandJSON(t *testing.T) {
	path := writeConfig(t, baseYAML)
	opts := &RootOptions{App: app.Options{Store: contacts.NewMemoryStore(), Sender: &nopSender{}, Pacer: outreach.NoPause{}, Now: tuesday}}

	out, err := execute(t, opts, "run", "--config", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   domain.RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, domain.RunOutreach, resp.Data.Kind)
	assert.Equal(t, 0, resp.Data.SentTotal)
}

func TestRepliesCommand(t *testing.T) {
	path := writeConfig(t, baseYAML)
	replied := tuesday().AddDate(0, 0, -1)
	sent := tuesday().AddDate(0, 0, -2)
	store := contacts.NewMemoryStore(domain.Contact{
		ID: "a", ContactEmail: "dean@uni.edu", Source: "leadership_week_agent",
		SequenceStep: 1, FirstEmailSentAt: &sent, LastEmailSentAt: &sent,
		ManuallyReplied: true, ManuallyRepliedAt: &replied,
	})
	opts := &RootOptions{App: app.Options{Store: store, Sender: &nopSender{}, Pacer: outreach.NoPause{}, Now: tuesday}}

	out, err := execute(t, opts, "replies", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, outreach.MsgReplyStats)
	assert.Contains(t, out, "replies:  1 (1 within 2 days)")
	assert.Contains(t, out, "sources:  leadership_week_agent=1")
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Events</title>
<item><title>Leadership Week 2026</title><link>%s/events/leadership</link></item>
</channel></rss>`

func TestCaptureCommandFromFeed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, rssFeed, srv.URL)
		case "/events/leadership":
			fmt.Fprint(w, `<html><body><a href="mailto:events@uni.edu">Contact</a></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf(`
storage:
  type: memory
campaigns:
  leadership_week_agent:
    feeds: ["%s/feed"]
    segment: student_affairs
`, srv.URL))
	store := contacts.NewMemoryStore()
	opts := &RootOptions{App: app.Options{Store: store, Now: tuesday}}

	out, err := execute(t, opts, "capture", "--all", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "leadership_week_agent ran successfully. Saved 1 items.")

	all, err := store.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "events@uni.edu", all[0].ContactEmail)
	assert.Equal(t, "leadership_week", all[0].Category)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitConfigError, GetExitCode(classify("x", fmt.Errorf("wrap: %w", config.ErrMissingSender))))
	assert.Equal(t, ExitFailure, GetExitCode(classify("x", assert.AnError)))
}
