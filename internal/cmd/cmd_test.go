package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/attune/internal/config"
	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/report"
	"github.com/harrison/attune/internal/scoring"
	"github.com/harrison/attune/internal/session"
)

// setupHome isolates a test from the caller's environment and returns a
// fresh attune home.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	for _, key := range []string{
		config.EnvListenAddr, config.EnvPort, config.EnvDatabaseDriver, config.EnvDatabaseURL,
		config.EnvDatabaseURLAlt, config.EnvLogLevel, config.EnvQuestionnaire, config.EnvAllowedOrigins, config.EnvPDFFont,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.HomeEnvVar, home)
	t.Chdir(home)
	return home
}

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// anxiousJSON answers the reference form with high anxiety and low avoidance,
// passing the attention check.
func anxiousJSON() string {
	ratings := map[string]int{}
	for id := 1; id <= 30; id++ {
		var r int
		switch {
		case id <= 8:
			r = 5
		case id <= 16:
			r = 1
		case id <= 22:
			r = 2
		case id <= 28:
			r = 3
		case id == 29:
			r = 4
		default:
			r = 2
		}
		ratings[fmt.Sprint(id)] = r
	}
	data, _ := json.Marshal(ratings)
	return string(data)
}

func writeResponses(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "responses.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRootCommandHelp(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "attune")
	for _, sub := range []string{"serve", "validate", "questions", "score", "session", "stats", "export"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "attune", root.Use)
	assert.True(t, root.SilenceUsage)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "validate", "questions", "score", "session", "stats", "export"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestValidateBuiltins(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "validate")
	require.NoError(t, err)

	assert.Contains(t, out, "Validating questionnaires:")
	assert.Contains(t, out, "[1/2] compact ok")
	assert.Contains(t, out, "[2/2] reference ok")
	assert.Contains(t, out, "all 2 valid")
	// Only the reference definition carries a defensive_responding threshold.
	assert.Equal(t, 1, strings.Count(out, "Warning: Unused setting thresholds.defensive_responding"))
}

func TestValidateReportsInvalidDefinition(t *testing.T) {
	home := setupHome(t)
	bad := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\nquestions: []\n"), 0644))

	out, err := runCLI(t, nil, "validate", "reference", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 questionnaire definitions invalid")
	assert.Contains(t, out, "[1/2] reference ok")
	assert.Contains(t, out, "[2/2] bad.yaml FAILED")
}

func TestValidateUnknownBuiltin(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "validate", "nope")
	require.Error(t, err)
	assert.Contains(t, out, "unknown builtin questionnaire")
}

func TestQuestionsAll(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "questions")
	require.NoError(t, err)
	assert.Contains(t, out, "Questionnaire: reference (30 questions)")
	assert.Contains(t, out, "Scale: 1=")
	assert.Contains(t, out, "  1. ")
	assert.Contains(t, out, " 30. ")
	assert.NotContains(t, out, "Page ")
}

func TestQuestionsPage(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "questions", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 2 of 5")
	assert.Contains(t, out, "  7. ")
	assert.Contains(t, out, " 12. ")
	assert.NotContains(t, out, "  6. ")
	assert.NotContains(t, out, " 13. ")

	out, err = runCLI(t, nil, "questions", "--page", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "No questions on this page.")

	_, err = runCLI(t, nil, "questions", "--page", "-1")
	require.Error(t, err)
}

func TestQuestionsJSON(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "questions", "--page", "1", "--json")
	require.NoError(t, err)

	var body struct {
		Questionnaire string `json:"questionnaire"`
		Questions     []struct {
			ID int `json:"id"`
		} `json:"questions"`
		ResponseOptions []struct {
			Value int `json:"value"`
		} `json:"responseOptions"`
		Pagination struct {
			CurrentPage int  `json:"currentPage"`
			TotalPages  int  `json:"totalPages"`
			HasNext     bool `json:"hasNext"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "reference", body.Questionnaire)
	assert.Len(t, body.Questions, 6)
	assert.Len(t, body.ResponseOptions, 5)
	assert.Equal(t, 1, body.Pagination.CurrentPage)
	assert.Equal(t, 5, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNext)
}

func TestScore(t *testing.T) {
	home := setupHome(t)
	path := writeResponses(t, home, anxiousJSON())

	out, err := runCLI(t, nil, "score", "--responses", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Primary style: anxious")
	assert.Contains(t, out, "  anxiety          5.00")
	assert.Contains(t, out, "  avoidance        1.00")
	assert.Contains(t, out, "attention check passed, defensive responding no, disorganization flag no")
	assert.NotContains(t, out, "Session:")

	// Scoring alone never creates a database.
	_, statErr := os.Stat(filepath.Join(home, "sessions.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScoreJSONFromStdin(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, strings.NewReader(anxiousJSON()), "score", "-r", "-", "--json")
	require.NoError(t, err)

	var result models.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.StyleAnxious, result.Classification.PrimaryStyle)
	assert.InDelta(t, 5.0, result.SubscaleScores.Anxiety, 1e-9)
	assert.True(t, result.Flags.AttentionCheckPassed)
	assert.Empty(t, result.Notes)
}

func TestScoreRejectsIncomplete(t *testing.T) {
	home := setupHome(t)
	path := writeResponses(t, home, `{"1": 3, "2": 3}`)

	_, err := runCLI(t, nil, "score", "--responses", path)
	var incomplete *scoring.IncompleteResponseError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 3, incomplete.Missing[0])
}

func TestScoreRejectsNonIntegral(t *testing.T) {
	home := setupHome(t)
	path := writeResponses(t, home, `{"1": 2.5}`)

	_, err := runCLI(t, nil, "score", "--responses", path)
	var nonIntegral *models.NonIntegralRatingError
	require.ErrorAs(t, err, &nonIntegral)
	assert.Equal(t, 1, nonIntegral.QuestionID)
}

func TestScoreRequiresResponsesFlag(t *testing.T) {
	setupHome(t)
	_, err := runCLI(t, nil, "score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "responses")
}

func createSession(t *testing.T) string {
	t.Helper()
	out, err := runCLI(t, nil, "session", "create", "--json", "--user-agent", "cli-test")
	require.NoError(t, err)
	var sess models.Session
	require.NoError(t, json.Unmarshal([]byte(out), &sess))
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "cli-test", sess.UserAgent)
	assert.Nil(t, sess.CompletedAt)
	return sess.ID
}

func TestSessionLifecycle(t *testing.T) {
	home := setupHome(t)
	id := createSession(t)
	path := writeResponses(t, home, anxiousJSON())

	out, err := runCLI(t, nil, "session", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Session: "+id)
	assert.Contains(t, out, "Status: open")

	out, err = runCLI(t, nil, "session", "submit", id, "--responses", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Session: "+id)
	assert.Contains(t, out, "Primary style: anxious")
	assert.Contains(t, out, "Completion time: ")

	out, err = runCLI(t, nil, "session", "show", id, "--json")
	require.NoError(t, err)
	var sess models.Session
	require.NoError(t, json.Unmarshal([]byte(out), &sess))
	require.True(t, sess.IsComplete())
	assert.Equal(t, models.StyleAnxious, sess.Result.Classification.PrimaryStyle)
	assert.Equal(t, 5, sess.Responses[1])

	_, err = runCLI(t, nil, "session", "submit", id, "--responses", path)
	assert.ErrorIs(t, err, session.ErrAlreadyCompleted)

	out, err = runCLI(t, nil, "stats", "--json")
	require.NoError(t, err)
	var stats models.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Total)
	require.Len(t, stats.Styles, 1)
	assert.Equal(t, models.StyleAnxious, stats.Styles[0].Style)

	out, err = runCLI(t, nil, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "STYLE")
	assert.Contains(t, out, "TOTAL")
}

func TestSessionSubmitInvalidKeepsSessionOpen(t *testing.T) {
	home := setupHome(t)
	id := createSession(t)
	path := writeResponses(t, home, `{"1": 9}`)

	_, err := runCLI(t, nil, "session", "submit", id, "--responses", path)
	assert.ErrorIs(t, err, scoring.ErrIncompleteResponse)

	out, err := runCLI(t, nil, "session", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Status: open")
}

func TestSessionUnknown(t *testing.T) {
	setupHome(t)
	_, err := runCLI(t, nil, "session", "show", "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStatsEmpty(t *testing.T) {
	setupHome(t)
	out, err := runCLI(t, nil, "stats")
	require.NoError(t, err)
	assert.Equal(t, "No completed assessments yet.\n", out)
}

func TestExport(t *testing.T) {
	home := setupHome(t)
	id := createSession(t)
	_, err := runCLI(t, nil, "session", "submit", id, "--responses", writeResponses(t, home, anxiousJSON()))
	require.NoError(t, err)

	out, err := runCLI(t, nil, "export", id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Attachment Style Report"))
	assert.Contains(t, out, "## Primary style:")

	target := filepath.Join(home, "reports", "report.html")
	out, err = runCLI(t, nil, "export", id, "--html", "-o", target)
	require.NoError(t, err)
	assert.Equal(t, "Report written to "+target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
	assert.Contains(t, string(data), "<title>Attachment Style Report</title>")
}

func TestExportPDF(t *testing.T) {
	home := setupHome(t)
	id := createSession(t)
	_, err := runCLI(t, nil, "session", "submit", id, "--responses", writeResponses(t, home, anxiousJSON()))
	require.NoError(t, err)

	_, err = runCLI(t, nil, "export", id, "--pdf", "--html")
	require.Error(t, err, "--pdf and --html are exclusive")

	target := filepath.Join(home, "report.pdf")
	t.Setenv(config.EnvPDFFont, filepath.Join(home, "missing.ttf"))
	_, err = runCLI(t, nil, "export", id, "--pdf", "-o", target)
	assert.ErrorIs(t, err, report.ErrNoFont)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "nothing is written when rendering fails")

	font, err := report.FindFont("")
	if err != nil {
		t.Skip("no system TrueType font available")
	}
	t.Setenv(config.EnvPDFFont, font)
	_, err = runCLI(t, nil, "export", id, "--pdf", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportOpenSession(t *testing.T) {
	setupHome(t)
	id := createSession(t)
	_, err := runCLI(t, nil, "export", id)
	assert.ErrorIs(t, err, session.ErrNotCompleted)
}

func TestFlagsOverrideConfig(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(config.ConfigPath(home), []byte("log_level: debug\n"), 0644))

	_, err := runCLI(t, nil, "--log-level", "loud", "questions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = runCLI(t, nil, "--questionnaire", "compact", "questions")
	require.NoError(t, err)

	_, err = runCLI(t, nil, "--db-driver", "mysql", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestCustomDatabasePath(t *testing.T) {
	home := setupHome(t)
	dbPath := filepath.Join(home, "custom", "attune.db")

	_, err := runCLI(t, nil, "--db-url", dbPath, "stats")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestServeUntilDone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeUntilDoneListenerFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	err = serveUntilDone(context.Background(), &http.Server{}, ln, time.Second)
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
