package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jordanfowler/dossier/task"
)

var (
	stateStyle = lipgloss.NewStyle().Bold(true).Width(18)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	termStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// stateLabel renders a state name for humans: "pending_approval" becomes
// "Pending Approval".
func stateLabel(st task.State) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(string(st), "_", " "))
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show task counts per workflow state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		for _, st := range task.States {
			tasks, err := a.machine.ListTasksIn(st)
			if err != nil {
				return err
			}
			label := stateStyle.Render(stateLabel(st))
			count := countStyle.Render(fmt.Sprintf("%3d", len(tasks)))
			line := fmt.Sprintf("%s %s", label, count)
			if st == task.StatePendingApproval && len(tasks) > 0 {
				line += " " + warnStyle.Render("awaiting decision")
			}
			if st.Terminal() {
				line += " " + termStyle.Render("(terminal)")
			}
			fmt.Println(line)
		}
		return nil
	},
}
