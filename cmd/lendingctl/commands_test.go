package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

func Test_ParseCommand_KnownCommands(t *testing.T) {
	id := "0b3e1c4e-2b6f-4c47-9a43-2a4d3b8f9a10"

	testCases := []struct {
		name string
		args []string
	}{
		{"borrow", []string{"borrow", "-isbn", "978-3-16", "-email", "a@b.c", "-date", "2026-10-20", "-card", "4111"}},
		{"return", []string{"return", "-isbn", "978-3-16", "-email", "a@b.c", "-date", "2026-10-20", "-card", "4111"}},
		{"list", []string{"list"}},
		{"get", []string{"get", "-id", id}},
		{"delete", []string{"delete", "-id", id}},
		{"delete-all", []string{"delete-all"}},
		{"update", []string{"update", "-id", id, "-status", "returned", "-return-date", "2026-10-21"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			cmd, err := parseCommand(tc.args, io.Discard)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.name, cmd.name)
			assert.NotNil(t, cmd.run)
		})
	}
}

func Test_ParseCommand_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want error
	}{
		{"no command", nil, ErrMissingCommand},
		{"unknown command", []string{"lend"}, ErrUnknownCommand},
		{"borrow without card", []string{"borrow", "-isbn", "1", "-email", "a@b.c", "-date", "2026-10-20"}, ErrMissingFlag},
		{"borrow with bad date", []string{"borrow", "-isbn", "1", "-email", "a@b.c", "-date", "20.10.2026", "-card", "4111"}, ErrInvalidFlag},
		{"get without id", []string{"get"}, ErrMissingFlag},
		{"delete with bad id", []string{"delete", "-id", "nope"}, ErrInvalidFlag},
		{"update with bad status", []string{"update", "-id", "0b3e1c4e-2b6f-4c47-9a43-2a4d3b8f9a10", "-status", "LOST"}, ErrInvalidFlag},
		{"unknown flag", []string{"list", "-all"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := parseCommand(tc.args, io.Discard)

			// assert
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func Test_Run_UsageErrorsExitBeforeLoadingConfig(t *testing.T) {
	// arrange
	var stdout, stderr bytes.Buffer

	// act
	code := run([]string{"frobnicate"}, &stdout, &stderr)

	// assert
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "unknown command")
	assert.Empty(t, stdout.String())
}

func Test_Run_HelpIsUsage(t *testing.T) {
	// arrange
	var stdout, stderr bytes.Buffer

	// act
	code := run([]string{"list", "-h"}, &stdout, &stderr)

	// assert
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "usage: lendingctl")
	assert.NotContains(t, stderr.String(), flag.ErrHelp.Error())
}

func Test_ReportError_MapsRejectionsToTheirOwnExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"rejection", core.ErrItemUnavailable, exitRejected},
		{"wrapped rejection", fmt.Errorf("borrow: %w", core.ErrLimitReached), exitRejected},
		{"failure", errors.Join(core.ErrPersistenceFailure, errors.New("db down")), exitFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			var stdout bytes.Buffer

			// act
			code := reportError(&stdout, tc.err)

			// assert
			assert.Equal(t, tc.code, code)
			assert.Contains(t, stdout.String(), string(core.ReasonCodeOf(tc.err)))
		})
	}
}
