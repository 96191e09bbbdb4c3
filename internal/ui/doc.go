// Package ui provides helpers for human-readable console interaction.
//
// ConsoleCommandEventLogger renders git invocations as concise console lines while
// detailed telemetry keeps flowing through structured loggers. IOConfirmationPrompter
// asks yes/no questions on the command's input and output streams.
package ui
