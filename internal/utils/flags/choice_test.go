package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "text",
			choices:        []string{"text", "yaml", "json"},
			description:    "Output format for the status report.",
			expectedOutput: "`<TEXT|yaml|json>` Output format for the status report.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "library",
			choices:        []string{"shell", "library"},
			description:    "Repository backend.",
			expectedOutput: "`<shell|LIBRARY>` Repository backend.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "alpha",
			choices:        []string{"alpha", "beta"},
			description:    "",
			expectedOutput: "`<ALPHA|beta>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "beta",
			choices:        []string{"beta", "beta", "alpha", "alpha"},
			description:    "Select between options.",
			expectedOutput: "`<BETA|alpha>` Select between options.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "primary",
			choices:        []string{" primary ", " secondary "},
			description:    "Pick a palette.",
			expectedOutput: "`<PRIMARY|secondary>` Pick a palette.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestNormalizeChoice(t *testing.T) {
	choices := []string{"shell", "library"}

	normalized, normalizeError := NormalizeChoice("backend", " Library ", "shell", choices)
	require.NoError(t, normalizeError)
	require.Equal(t, "library", normalized)

	normalized, normalizeError = NormalizeChoice("backend", "", "shell", choices)
	require.NoError(t, normalizeError)
	require.Equal(t, "shell", normalized)

	_, normalizeError = NormalizeChoice("backend", "libgit2", "shell", choices)
	require.ErrorIs(t, normalizeError, ErrInvalidChoice)
	require.EqualError(t, normalizeError, `invalid value "libgit2" for --backend (expected one of shell, library)`)
}
