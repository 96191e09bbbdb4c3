package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repowatch/internal/ui"
)

func TestIOConfirmationPrompter(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "short yes", input: "y\n", expected: true},
		{name: "long yes mixed case", input: "  YeS \n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "empty answer", input: "\n", expected: false},
		{name: "closed input", input: "", expected: false},
		{name: "yes without newline", input: "yes", expected: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			prompter := ui.NewIOConfirmationPrompter(strings.NewReader(testCase.input), output)
			confirmed, confirmError := prompter.Confirm("Proceed? [y/N] ")
			require.NoError(t, confirmError)
			require.Equal(t, testCase.expected, confirmed)
			require.Equal(t, "Proceed? [y/N] ", output.String())
		})
	}
}
