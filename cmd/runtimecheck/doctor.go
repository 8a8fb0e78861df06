package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odavlstudio/odavl/internal/doctor"
)

var (
	doctorOutput string

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the harness environment",
		Long: `Doctor probes everything a verification run depends on: the Go
toolchain, race detector support, the corpus directory and the history
database. It exits non-zero when a required piece is missing.`,
		RunE: runDoctor,
	}
)

func init() {
	doctorCmd.Flags().StringVarP(&doctorOutput, "output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rep := doctor.Diagnose(cmd.Context(), cfg, logger)

	switch doctorOutput {
	case "json":
		if err := printJSON(rep); err != nil {
			return err
		}
	case "text":
		fmt.Print(renderDoctorText(rep))
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json)", doctorOutput)
	}

	if !rep.Healthy() {
		os.Exit(1)
	}
	return nil
}

// renderDoctorText formats the diagnosis.
func renderDoctorText(rep *doctor.Report) string {
	var sb strings.Builder

	sb.WriteString("Harness Environment\n")
	sb.WriteString("===================\n")
	sb.WriteString("\n")

	for _, c := range rep.Checks {
		mark := "✓"
		switch c.Status {
		case doctor.StatusWarning:
			mark = "!"
		case doctor.StatusError:
			mark = "✗"
		}
		fmt.Fprintf(&sb, "%s %-16s %s\n", mark, c.Name, c.Detail)
	}

	sb.WriteString("\n")
	switch {
	case !rep.Healthy():
		fmt.Fprintf(&sb, "✗ %d error(s), %d warning(s)\n", rep.Errors, rep.Warnings)
	case rep.Warnings > 0:
		fmt.Fprintf(&sb, "! ready, %d warning(s)\n", rep.Warnings)
	default:
		sb.WriteString("✓ ready\n")
	}
	return sb.String()
}
