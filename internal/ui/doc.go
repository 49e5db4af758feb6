// Package ui styles CLI output with lipgloss: a [Palette] for titles and status marks and [Table] for listings.
//
// Styles degrade to plain text when the output is not a terminal, so command output stays scriptable.
package ui
