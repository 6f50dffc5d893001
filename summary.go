package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/ByLCY/termsheet/generate"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// formatResult 渲染单个文件的处理结果。
func formatResult(r generate.Result) string {
	name := filepath.Base(r.Source)
	switch r.Status {
	case generate.StatusSucceeded:
		return okStyle.Render(fmt.Sprintf("✓ %s → %s (%d page(s))", name, r.Filename, r.Pages))
	case generate.StatusSkipped:
		return skipStyle.Render(fmt.Sprintf("- %s skipped, output exists", name))
	default:
		return failStyle.Render(fmt.Sprintf("✗ %s: %s: %v", name, generate.Kind(r.Err), r.Err))
	}
}

func formatSummary(s generate.Summary) string {
	return summaryStyle.Render(fmt.Sprintf("Processed: %d  Skipped: %d  Failed: %d  Total: %d",
		s.Processed, s.Skipped, s.Failed, s.Total))
}
