package main

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#44aa88")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b"))
	fieldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#61afef"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	tickStyle    = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
)
