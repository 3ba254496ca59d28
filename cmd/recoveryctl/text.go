package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498DB"))
)

func errorText(s string) string   { return errorStyle.Render(s) }
func warningText(s string) string { return warningStyle.Render(s) }
func infoText(s string) string    { return infoStyle.Render(s) }
