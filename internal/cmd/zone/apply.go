package zone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zonepkg "zonectl/internal/zone"
)

func runApply(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("zone value cannot be empty")
	}

	desired, err := buildDesired(cmd, name)
	if err != nil {
		return err
	}
	if err := desired.Validate(); err != nil {
		return err
	}

	dir, err := buildDirectory(cmd)
	if err != nil {
		return err
	}

	dryRun := mustGetBoolFlag(cmd, "dry-run")
	result, err := zonepkg.Reconcile(dir, desired, zonepkg.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), summarizeResult(desired, result, dryRun))
	return writeResult(cmd, result)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("zone value cannot be empty")
	}

	desired, err := buildDesired(cmd, name)
	if err != nil {
		return err
	}
	if err := desired.Validate(); err != nil {
		return err
	}

	dir, err := buildDirectory(cmd)
	if err != nil {
		return err
	}

	result, err := zonepkg.Reconcile(dir, desired, zonepkg.Options{DryRun: true})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), summarizeResult(desired, result, true))
	return writeResult(cmd, result)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("zone value cannot be empty")
	}

	dryRun := mustGetBoolFlag(cmd, "dry-run")
	if !dryRun && !mustGetBoolFlag(cmd, "yes") {
		return errors.New("refusing to delete without --yes; rerun with --dry-run to preview")
	}

	desired := &zonepkg.DesiredState{Name: name, State: zonepkg.StateAbsent}
	dir, err := buildDirectory(cmd)
	if err != nil {
		return err
	}

	result, err := zonepkg.Reconcile(dir, desired, zonepkg.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), summarizeResult(desired, result, dryRun))
	return writeResult(cmd, result)
}
