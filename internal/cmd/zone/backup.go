package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zonepkg "zonectl/internal/zone"
)

func runBackup(cmd *cobra.Command, args []string) error {
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
	uploadGlacier := mustGetBoolFlag(cmd, "upload-glacier")

	store := buildStore(cmd, uploadGlacier)
	key, err := store.UploadSnapshot(snapshot, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Zone backup stored as %s\n", key)

	if uploadGlacier {
		if err := store.UploadToGlacier(snapshot, format); err != nil {
			return err
		}
	}
	return nil
}

func runBackupsList(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	store := buildStore(cmd, false)
	backups, err := store.ListBackups(mustGetStringFlag(cmd, "prefix"), mustGetIntFlag(cmd, "limit"))
	if err != nil {
		return err
	}

	if mustGetBoolFlag(cmd, "json") {
		payload, err := json.MarshalIndent(backups, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(backups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No zone backups found")
		return nil
	}
	for _, backup := range backups {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\t%s\n",
			backup.Key, backup.ZoneName, backup.Size, backup.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runBackupsRead(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	store := buildStore(cmd, false)

	var key string
	if mustGetBoolFlag(cmd, "latest") {
		backups, err := store.ListBackups(mustGetStringFlag(cmd, "prefix"), 1)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return errors.New("no zone backups found")
		}
		key = backups[0].Key
	} else {
		if len(args) == 0 {
			return errors.New("object key is required unless --latest is used")
		}
		key = args[0]
	}

	snapshot, err := store.DownloadSnapshot(key)
	if err != nil {
		return err
	}

	format := strings.ToLower(mustGetStringFlag(cmd, "format"))
	if output := mustGetStringFlag(cmd, "output"); output != "" {
		if err := zonepkg.SaveSnapshot(snapshot, output, format, true); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot written to %s\n", output)
		return nil
	}

	payload, err := zonepkg.EncodeSnapshot(snapshot, format, true)
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

func runBackupsDelete(cmd *cobra.Command, args []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("at least one object key is required")
	}
	store := buildStore(cmd, false)
	return store.DeleteBackups(args, mustGetBoolFlag(cmd, "dry-run"))
}

func runBackupsMigrate(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFromFlag(cmd); err != nil {
		return err
	}
	store := buildStore(cmd, true)
	return store.MigrateToGlacier(mustGetFloat64Flag(cmd, "percent"), mustGetBoolFlag(cmd, "dry-run"))
}
