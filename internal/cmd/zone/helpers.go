package zone

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"zonectl/internal/archive"
	zonepkg "zonectl/internal/zone"
	"zonectl/internal/zonedir"
)

func findEnvArg(argv []string) string {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if strings.HasPrefix(arg, "--env=") {
			return strings.TrimPrefix(arg, "--env=")
		}
		if arg == "--env" && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// mustGetStringFlag retrieves a string flag value.
// Errors are ignored because cobra guarantees flags exist if they're defined.
func mustGetStringFlag(cmd *cobra.Command, name string) string {
	val, _ := cmd.Flags().GetString(name)
	return val
}

// mustGetBoolFlag retrieves a bool flag value.
func mustGetBoolFlag(cmd *cobra.Command, name string) bool {
	val, _ := cmd.Flags().GetBool(name)
	return val
}

// mustGetIntFlag retrieves an int flag value.
func mustGetIntFlag(cmd *cobra.Command, name string) int {
	val, _ := cmd.Flags().GetInt(name)
	return val
}

// mustGetFloat64Flag retrieves a float64 flag value.
func mustGetFloat64Flag(cmd *cobra.Command, name string) float64 {
	val, _ := cmd.Flags().GetFloat64(name)
	return val
}

// mustGetDurationFlag retrieves a duration flag value.
func mustGetDurationFlag(cmd *cobra.Command, name string) time.Duration {
	val, _ := cmd.Flags().GetDuration(name)
	return val
}

// mustGetStringSliceFlag retrieves a string slice flag value.
func mustGetStringSliceFlag(cmd *cobra.Command, name string) []string {
	val, _ := cmd.Flags().GetStringSlice(name)
	return val
}

// intFlagPtr returns the flag value when it was set on the command line,
// nil otherwise. Distinguishes "not provided" from zero.
func intFlagPtr(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	val := mustGetIntFlag(cmd, name)
	return &val
}

func loadEnvFromFlag(cmd *cobra.Command) error {
	path := mustGetStringFlag(cmd, "env")
	if path == "" {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func requireAPIKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("NS1 API key is required (set --api-key or NS1_APIKEY)")
	}
	return key, nil
}

// buildDirectory constructs the NS1 directory client from flags and env.
// The key itself is never printed.
func buildDirectory(cmd *cobra.Command) (*zonedir.NS1, error) {
	key, err := requireAPIKey(mustGetStringFlag(cmd, "api-key"))
	if err != nil {
		return nil, err
	}
	return zonedir.NewNS1(zonedir.NS1Config{
		APIKey:   key,
		Endpoint: mustGetStringFlag(cmd, "endpoint"),
		Timeout:  mustGetDurationFlag(cmd, "timeout"),
	})
}

// buildDesired merges the optional spec file with command-line flags.
// Flags win over file values; validation happens after the merge.
func buildDesired(cmd *cobra.Command, name string) (*zonepkg.DesiredState, error) {
	desired := &zonepkg.DesiredState{Name: name}
	if path := mustGetStringFlag(cmd, "spec"); path != "" {
		loaded, err := zonepkg.LoadSpecFile(path, mustGetStringFlag(cmd, "spec-format"))
		if err != nil {
			return nil, err
		}
		if loaded.Name != "" && loaded.Name != name {
			return nil, fmt.Errorf("zone spec is for %q but %q was requested", loaded.Name, name)
		}
		desired = loaded
		desired.Name = name
	}

	if cmd.Flags().Changed("state") || desired.State == "" {
		state, err := zonepkg.ParseState(mustGetStringFlag(cmd, "state"))
		if err != nil {
			return nil, err
		}
		desired.State = state
	}
	if val := intFlagPtr(cmd, "refresh"); val != nil {
		desired.Refresh = val
	}
	if val := intFlagPtr(cmd, "retry"); val != nil {
		desired.Retry = val
	}
	if val := intFlagPtr(cmd, "expiry"); val != nil {
		desired.Expiry = val
	}
	if val := intFlagPtr(cmd, "next-ttl"); val != nil {
		desired.NextTTL = val
	}
	if cmd.Flags().Changed("link") {
		link := mustGetStringFlag(cmd, "link")
		desired.Link = &link
	}
	if cmd.Flags().Changed("networks") {
		networks, _ := cmd.Flags().GetIntSlice("networks")
		desired.Networks = networks
	}
	return desired, nil
}

func parseMetadata(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	meta := make(map[string]any)
	for _, entry := range values {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid metadata entry %q, expected key=value", entry)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("metadata key cannot be empty (%q)", entry)
		}
		meta[key] = strings.TrimSpace(parts[1])
	}
	return meta, nil
}

// writeResult encodes the result document to stdout in the requested format.
func writeResult(cmd *cobra.Command, result *zonepkg.Result) error {
	payload, err := zonepkg.EncodeResult(result, mustGetStringFlag(cmd, "output"), mustGetBoolFlag(cmd, "pretty"))
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

func summarizeResult(desired *zonepkg.DesiredState, result *zonepkg.Result, dryRun bool) string {
	var action string
	switch {
	case !result.Changed:
		action = "up to date"
	case desired.State == zonepkg.StateAbsent:
		action = "delete"
	case result.ID == "" && result.Data == nil:
		action = "create"
	case len(result.Diff) == 0:
		action = "create"
	default:
		action = fmt.Sprintf("update (%d field(s))", len(result.Diff))
	}
	if dryRun && result.Changed {
		return fmt.Sprintf("zone %s: would %s", desired.Name, action)
	}
	return fmt.Sprintf("zone %s: %s", desired.Name, action)
}

func buildMinioConfig(cmd *cobra.Command) *archive.MinioConfig {
	return &archive.MinioConfig{
		Endpoint:         mustGetStringFlag(cmd, "minio-endpoint"),
		AccessKey:        mustGetStringFlag(cmd, "minio-access-key"),
		SecretKey:        mustGetStringFlag(cmd, "minio-secret-key"),
		Bucket:           mustGetStringFlag(cmd, "minio-bucket"),
		UseSSL:           mustGetBoolFlag(cmd, "minio-ssl"),
		BucketPath:       mustGetStringFlag(cmd, "bucket-path"),
		HTTPTimeout:      mustGetDurationFlag(cmd, "minio-http-timeout"),
		AutoCreateBucket: mustGetBoolFlag(cmd, "minio-auto-create-bucket"),
	}
}

func buildAWSConfig(cmd *cobra.Command) *archive.AWSConfig {
	return &archive.AWSConfig{
		Vault:       mustGetStringFlag(cmd, "aws-vault"),
		AccountID:   mustGetStringFlag(cmd, "aws-account-id"),
		AccessKey:   mustGetStringFlag(cmd, "aws-access-key"),
		SecretKey:   mustGetStringFlag(cmd, "aws-secret-access-key"),
		Region:      mustGetStringFlag(cmd, "aws-region"),
		HTTPTimeout: mustGetDurationFlag(cmd, "aws-http-timeout"),
	}
}

func buildStore(cmd *cobra.Command, withAWS bool) *archive.Store {
	minioConfig := buildMinioConfig(cmd)
	var store *archive.Store
	if withAWS {
		store = archive.NewStoreWithAWS(minioConfig, buildAWSConfig(cmd))
	} else {
		store = archive.NewStore(minioConfig)
	}
	if cmd.Flags().Lookup("capacity-guard") != nil && mustGetBoolFlag(cmd, "capacity-guard") {
		store.SetCapacityGuard(true, mustGetFloat64Flag(cmd, "capacity-threshold"))
	}
	return store
}
