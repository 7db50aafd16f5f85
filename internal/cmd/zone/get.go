package zone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zonepkg "zonectl/internal/zone"
	"zonectl/internal/zonedir"
)

func runGet(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("zone value cannot be empty")
	}

	dir, err := buildDirectory(cmd)
	if err != nil {
		return err
	}

	if mustGetBoolFlag(cmd, "resolve") {
		resolved, err := zonedir.ResolveZoneName(dir, name)
		if err != nil {
			return err
		}
		if resolved != name {
			fmt.Fprintf(cmd.ErrOrStderr(), "Resolved %s to zone %s\n", name, resolved)
		}
		name = resolved
	}

	remote, err := dir.Load(name)
	if err != nil {
		if zonepkg.IsNotFound(err) {
			return fmt.Errorf("zone %s does not exist", name)
		}
		return err
	}

	snapshot := zonepkg.NewSnapshot(remote)
	meta, err := parseMetadata(mustGetStringSliceFlag(cmd, "metadata"))
	if err != nil {
		return err
	}
	snapshot.Metadata = meta

	format := strings.ToLower(mustGetStringFlag(cmd, "format"))
	pretty := mustGetBoolFlag(cmd, "pretty")

	if output := mustGetStringFlag(cmd, "output"); output != "" {
		if err := zonepkg.SaveSnapshot(snapshot, output, format, pretty); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot saved to %s\n", output)
		return nil
	}

	payload, err := zonepkg.EncodeSnapshot(snapshot, format, pretty)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(payload); err != nil {
		return err
	}
	if len(payload) == 0 || payload[len(payload)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
