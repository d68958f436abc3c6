package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/doctor"
	"github.com/rileyhilliard/aidash/internal/ui"
)

var doctorJSON bool

// doctorCmd diagnoses config, backend and session problems
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, backend and session problems",
	Long: `Run diagnostic checks and print what is wrong and how to fix it.

Checks the config file, that the backend at api.url answers, that your
session is accepted, and whether the system keyring is usable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), doctorJSON)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

var doctorCategories = []string{"CONFIG", "BACKEND", "AUTH"}

// doctorCommand implements the doctor command logic. It returns errSilent
// when any check fails so scripts can rely on the exit code.
func doctorCommand(ctx context.Context, w io.Writer, asJSON bool) error {
	local, remote, timeout := collectChecks(Config())

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	results := append(doctor.RunAll(ctx, local), doctor.RunAllParallel(ctx, remote)...)
	checks := append(local, remote...)

	out := doctorOutput(checks, results)
	if asJSON {
		if err := WriteJSONSuccess(w, out); err != nil {
			return err
		}
	} else if _, err := fmt.Fprint(w, renderDoctor(out, results)); err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return errSilent
	}
	return nil
}

// defaultDoctorTimeout bounds the backend checks when api.timeout is 0.
const defaultDoctorTimeout = 10 * time.Second

// collectChecks gathers the local config checks, the checks that talk to
// the backend and the time they may take. Backend checks need a loadable
// config, so they are skipped when it is broken; the config checks report
// why.
func collectChecks(cfgPath string) (local, remote []doctor.Check, timeout time.Duration) {
	local = doctor.NewConfigChecks(cfgPath)

	cfg, _, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return local, nil, defaultDoctorTimeout
	}
	if apiURLArg != "" {
		cfg.API.URL = strings.TrimRight(strings.TrimSpace(apiURLArg), "/")
	}
	if config.Validate(cfg) != nil {
		return local, nil, defaultDoctorTimeout
	}

	client, source, err := newClient(cfg)
	if err != nil {
		return local, nil, defaultDoctorTimeout
	}

	timeout = cfg.API.Timeout
	if timeout <= 0 {
		timeout = defaultDoctorTimeout
	}
	return local, doctor.NewBackendChecks(cfg.API.URL, source, client), timeout
}

func doctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	out := DoctorOutput{Categories: make([]CategoryOutput, 0, len(doctorCategories))}
	for _, cat := range doctorCategories {
		if len(grouped[cat]) > 0 {
			out.Categories = append(out.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
		}
	}

	counts := doctor.CountByStatus(results)
	out.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}
	return out
}

// renderDoctor formats the report for a terminal.
func renderDoctor(out DoctorOutput, results []doctor.CheckResult) string {
	headerStyle := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString("\n" + ui.RenderHeader(ui.HeaderInfo{
		Version: GetVersion(),
		Tagline: "Diagnostic Report",
	}) + "\n")

	for _, cat := range out.Categories {
		b.WriteString(headerStyle.Render(cat.Name) + "\n")
		for _, r := range cat.Results {
			renderCheckResult(&b, r)
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", ui.HeaderWidth) + "\n\n")
	if out.Summary.AllClear {
		b.WriteString(ui.SuccessStyle().Render(ui.SymbolSuccess) + " " + doctor.Summary(results) + "\n")
	} else {
		b.WriteString(ui.ErrorStyle().Render(ui.SymbolFail) + " " + doctor.Summary(results) + "\n")
	}
	return b.String()
}

// renderCheckResult renders a single check result.
func renderCheckResult(b *strings.Builder, result doctor.CheckResult) {
	symbol, style := ui.SymbolComplete, ui.SuccessStyle()
	switch result.Status {
	case doctor.StatusWarn:
		style = ui.WarningStyle()
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(b, "  %s %s\n", style.Render(symbol), result.Message)
	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(b, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
