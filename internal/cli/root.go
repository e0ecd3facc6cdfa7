// Package cli implements the dossier operator commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/approval"
	"github.com/jordanfowler/dossier/audit"
	"github.com/jordanfowler/dossier/config"
	"github.com/jordanfowler/dossier/internal/version"
	"github.com/jordanfowler/dossier/task"
	"github.com/jordanfowler/dossier/workflow"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:     "dossier",
	Short:   "File-driven task workflow with a human approval gate",
	Long:    `Dossier drives task files through a fixed lifecycle by moving them between state directories. Sensitive actions are held at a human-approval checkpoint, and every transition lands in a hash-chained audit log.`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.BuildDate),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "dossier.yaml", "path to config file")
	rootCmd.AddCommand(
		initCmd,
		newCmd,
		statusCmd,
		listCmd,
		showCmd,
		moveCmd,
		requestCmd,
		approveCmd,
		rejectCmd,
		checkCmd,
		verifyCmd,
		logCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the wired control plane for command handlers.
type app struct {
	cfg     *config.Config
	store   *task.DirStore
	trail   *audit.Logger
	machine *workflow.Machine
	checker *approval.Checker
	log     *slog.Logger
}

// newApp loads configuration (defaults when no file exists) and wires the
// store, audit trail, state machine, and approval gate together.
func newApp() (*app, error) {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	store, err := task.NewDirStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	trail, err := audit.New(store.AuditDir(), logger)
	if err != nil {
		return nil, err
	}
	machine := workflow.NewMachine(store, trail, logger)
	checker := approval.NewChecker(store, machine, trail, logger)
	machine.SetGate(checker)

	return &app{
		cfg:     cfg,
		store:   store,
		trail:   trail,
		machine: machine,
		checker: checker,
		log:     logger,
	}, nil
}

// findTask locates a task by id and returns it with its current state.
func (a *app) findTask(id string) (*task.Task, task.State, error) {
	st, err := a.machine.CurrentState(id)
	if err != nil {
		return nil, "", err
	}
	t, err := a.store.Read(st, id)
	if err != nil {
		return nil, "", err
	}
	return t, st, nil
}
