package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"postlens/internal/analysis"
	"postlens/internal/config"
	"postlens/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command group.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect and manage stored reports",
	}

	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportClearCmd())

	return cmd
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dataset-id>",
		Short: "Render a stored report in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportShow(cmd.Context(), args[0])
		},
	}
}

func newReportClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <dataset-id>",
		Short: "Clear a report; the dataset and its posts survive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportClear(cmd.Context(), args[0])
		},
	}
}

func runReportShow(ctx context.Context, datasetID string) error {
	cfg := config.Get()
	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.GetReport(ctx, datasetID)
	if err != nil {
		return err
	}

	fmt.Println(renderReport(report))
	fmt.Printf("\nShare URL: %s/share/%s\n", cfg.Server.PublicURL, report.ShareID)
	return nil
}

func runReportClear(ctx context.Context, datasetID string) error {
	cfg := config.Get()
	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prior, err := st.ClearReport(ctx, datasetID)
	if err != nil {
		return err
	}

	if prior == "" {
		fmt.Printf("Report for dataset %s was already cleared.\n", datasetID)
		return nil
	}
	fmt.Printf("Cleared report for dataset %s (was %s/share/%s).\n", datasetID, cfg.Server.PublicURL, prior)
	return nil
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Margin(1, 0, 0, 0)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
)

// renderReport renders the statistics card and every analysis section.
// Failed sections render a retry affordance, never a blank page.
func renderReport(report *core.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Post History Report"))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderStats(report.Stats)))
	b.WriteString("\n")

	for _, kind := range core.AnalysisKinds {
		res, ok := report.Sections[kind]
		if !ok {
			continue
		}
		if visible, set := report.CardVisibility[string(kind)]; set && !visible {
			continue
		}
		b.WriteString(titleStyle.Render(strings.ToUpper(string(kind))))
		b.WriteString("\n")
		if override, ok := report.EditableContent[string(kind)]; ok && override != "" {
			b.WriteString(sectionStyle.Render(override))
		} else {
			b.WriteString(sectionStyle.Render(renderSection(res)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderStats(stats *core.StatsSummary) string {
	if stats == nil {
		return "statistics unavailable"
	}
	return fmt.Sprintf("%s %d\n%s %d\n%s %s\n%s %s",
		labelStyle.Render("Posts in period:"), stats.PostsInPeriod,
		labelStyle.Render("Active months:"), stats.ActiveMonths,
		labelStyle.Render("Median engagement:"), formatMetric(stats.MedianEngagement),
		labelStyle.Render("P90 engagement:"), formatMetric(stats.P90Engagement),
	)
}

// formatMetric renders a percentile value, using the em-dash sentinel for
// an empty dataset.
func formatMetric(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.1f", *v)
}

func renderSection(res core.AnalysisResult) string {
	if res.Status == core.StatusFailed {
		return failedStyle.Render(fmt.Sprintf("analysis unavailable (%s) — retry", res.ErrorKind))
	}

	switch res.Kind {
	case core.KindTopics:
		var p analysis.TopicsPayload
		if err := json.Unmarshal(res.Payload, &p); err == nil {
			lines := make([]string, 0, len(p.Topics))
			for _, t := range p.Topics {
				lines = append(lines, fmt.Sprintf("%s (%.0f%%) — %s", t.Name, t.Share*100, strings.Join(t.Keywords, ", ")))
			}
			return strings.Join(lines, "\n")
		}
	case core.KindPositioning:
		var p analysis.PositioningPayload
		if err := json.Unmarshal(res.Payload, &p); err == nil {
			return fmt.Sprintf("%s\n\n%s", labelStyle.Render(p.Archetype), p.Summary)
		}
	case core.KindEvaluation:
		var p analysis.EvaluationPayload
		if err := json.Unmarshal(res.Payload, &p); err == nil {
			lines := []string{fmt.Sprintf("%s %.1f/10", labelStyle.Render("Overall:"), p.OverallScore)}
			for _, d := range p.Dimensions {
				lines = append(lines, fmt.Sprintf("  %s: %.1f — %s", d.Name, d.Score, d.Comment))
			}
			return strings.Join(lines, "\n")
		}
	case core.KindNarrative:
		var p analysis.NarrativePayload
		if err := json.Unmarshal(res.Payload, &p); err == nil {
			return fmt.Sprintf("%s\n\n%s", labelStyle.Render(p.Headline), p.Story)
		}
	}
	return string(res.Payload)
}
