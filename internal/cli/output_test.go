package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "open store", inner)

	assert.Equal(t, "open store: disk full", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := &ExitError{Code: ExitFailure, Message: "replay failed"}
	assert.Equal(t, "replay failed", bare.Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad path", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", nil))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped), "codes survive wrapping")
}

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"pending": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"pending":3}}`, buf.String())
}

func TestOutputFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("3 pending operations"))
	assert.Equal(t, "3 pending operations\n", buf.String())
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("REPLAY_FAILED", "backend unavailable", map[string]int{"failed": 2}))
	assert.JSONEq(t, `{
		"status": "error",
		"error": {"code": "REPLAY_FAILED", "message": "backend unavailable", "details": {"failed": 2}}
	}`, buf.String())
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("REPLAY_FAILED", "backend unavailable", "details here"))
	assert.Equal(t, "Error [REPLAY_FAILED]: backend unavailable\n", buf.String())
}

func TestOutputFormatter_ErrorTextVerboseIncludesDetails(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: true}

	require.NoError(t, f.Error("REPLAY_FAILED", "backend unavailable", "3 of 5 failed"))
	assert.Contains(t, buf.String(), "Details: 3 of 5 failed")
}
