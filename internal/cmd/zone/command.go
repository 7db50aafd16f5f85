package zone

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "zone",
	Short: "Reconcile NS1 zones against a desired state",
	Long: `Manage NS1-hosted DNS zones declaratively.

Use 'apply' to converge a zone to a desired state, 'plan' to preview the
change, 'delete' to remove a zone, 'get' to inspect one, and 'backup' to
snapshot zone configuration into object storage.`,
}

var applyCmd = &cobra.Command{
	Use:   "apply [zone]",
	Short: "Converge a zone to the desired state",
	Long: `Fetch the zone's current state, compute the minimal action (create,
update, delete or nothing), perform it, and report whether a change occurred.
With --dry-run no mutating call is made.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var planCmd = &cobra.Command{
	Use:   "plan [zone]",
	Short: "Preview the change apply would make",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [zone]",
	Short: "Remove a zone from the provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var getCmd = &cobra.Command{
	Use:   "get [zone|host]",
	Short: "Fetch a zone and print it as a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var backupCmd = &cobra.Command{
	Use:   "backup [zone]",
	Short: "Snapshot a zone and upload it to MinIO storage",
	Long: `Create a zone configuration backup by fetching the zone and uploading
the snapshot to MinIO. Optionally also upload to AWS Glacier for archival.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage stored zone backups",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List zone backups in MinIO",
	Args:  cobra.NoArgs,
	RunE:  runBackupsList,
}

var backupsReadCmd = &cobra.Command{
	Use:   "read [object]",
	Short: "Read/download a zone backup from MinIO",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupsRead,
}

var backupsDeleteCmd = &cobra.Command{
	Use:   "delete [object...]",
	Short: "Delete zone backup(s) from MinIO",
	Args:  cobra.ArbitraryArgs,
	RunE:  runBackupsDelete,
}

var backupsMigrateCmd = &cobra.Command{
	Use:   "migrate-aws",
	Short: "Migrate oldest zone backups from MinIO to AWS Glacier",
	Args:  cobra.NoArgs,
	RunE:  runBackupsMigrate,
}

func init() {
	if envPath := findEnvArg(os.Args); envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	Cmd.PersistentFlags().String("env", "", "Path to .env file to load before executing")
	Cmd.PersistentFlags().String("api-key", getEnvWithDefault("NS1_APIKEY", ""), "NS1 API key (env: NS1_APIKEY)")
	Cmd.PersistentFlags().String("endpoint", getEnvWithDefault("NS1_ENDPOINT", ""), "NS1 API endpoint override (env: NS1_ENDPOINT)")
	Cmd.PersistentFlags().Duration("timeout", 30*time.Second, "Per-call timeout when talking to NS1")

	Cmd.AddCommand(applyCmd)
	Cmd.AddCommand(planCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(backupCmd)
	Cmd.AddCommand(backupsCmd)

	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsReadCmd)
	backupsCmd.AddCommand(backupsDeleteCmd)
	backupsCmd.AddCommand(backupsMigrateCmd)

	initApplyFlags()
	initPlanFlags()
	initDeleteFlags()
	initGetFlags()
	initBackupFlags()
	initBackupsFlags()
}

func initApplyFlags() {
	addDesiredStateFlags(applyCmd)
	applyCmd.Flags().Bool("dry-run", false, "Report the would-be change without mutating anything")
	applyCmd.Flags().String("output", "json", "Result output format (json|yaml)")
	applyCmd.Flags().Bool("pretty", true, "Pretty-print the result document")
}

func initPlanFlags() {
	addDesiredStateFlags(planCmd)
	planCmd.Flags().String("output", "json", "Plan output format (json|yaml)")
	planCmd.Flags().Bool("pretty", true, "Pretty-print the plan output")
}

func initDeleteFlags() {
	deleteCmd.Flags().Bool("dry-run", false, "Preview the deletion without performing it")
	deleteCmd.Flags().Bool("yes", false, "Delete without prompting (required when not using --dry-run)")
	deleteCmd.Flags().String("output", "json", "Result output format (json|yaml)")
	deleteCmd.Flags().Bool("pretty", true, "Pretty-print the result document")
}

func initGetFlags() {
	getCmd.Flags().Bool("resolve", false, "Treat the argument as a hostname and resolve the owning zone")
	getCmd.Flags().String("output", "", "File to write the snapshot to (default: stdout)")
	getCmd.Flags().String("format", "json", "Snapshot format: json or yaml")
	getCmd.Flags().Bool("pretty", true, "Pretty-print JSON/YAML output")
	getCmd.Flags().StringSlice("metadata", nil, "Optional metadata key=value pairs to include in snapshot")
}

func initBackupFlags() {
	backupCmd.Flags().String("format", "json", "Backup format (json or yaml)")
	backupCmd.Flags().Bool("upload-glacier", false, "Also upload backup to AWS Glacier")
	backupCmd.Flags().StringSlice("metadata", nil, "Optional metadata key=value pairs to include in snapshot")
	addMinioFlags(backupCmd)
	addAWSFlags(backupCmd)
}

func initBackupsFlags() {
	backupsListCmd.Flags().String("prefix", "", "Filter by prefix")
	backupsListCmd.Flags().Int("limit", 100, "Maximum number of backups to list")
	backupsListCmd.Flags().Bool("json", false, "Output as JSON")
	addMinioFlags(backupsListCmd)

	backupsReadCmd.Flags().String("output", "", "Output file path")
	backupsReadCmd.Flags().String("format", "json", "Output format (json or yaml)")
	backupsReadCmd.Flags().Bool("latest", false, "Read most recent backup")
	backupsReadCmd.Flags().String("prefix", "", "Prefix to search when using --latest")
	addMinioFlags(backupsReadCmd)

	backupsDeleteCmd.Flags().Bool("dry-run", false, "Preview deletions without performing them")
	addMinioFlags(backupsDeleteCmd)

	backupsMigrateCmd.Flags().Float64("percent", 10.0, "Percentage of oldest backups to migrate")
	backupsMigrateCmd.Flags().Bool("dry-run", false, "Preview migrations without performing them")
	addMinioFlags(backupsMigrateCmd)
	addAWSFlags(backupsMigrateCmd)
}

func addDesiredStateFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", "present", "Desired presence: present, active, absent or deleted")
	cmd.Flags().Int("refresh", 0, "SOA refresh interval in seconds")
	cmd.Flags().Int("retry", 0, "SOA retry interval in seconds")
	cmd.Flags().Int("expiry", 0, "SOA expiry in seconds")
	cmd.Flags().Int("next-ttl", 0, "SOA NXDOMAIN TTL in seconds")
	cmd.Flags().String("link", "", "Link this zone to another zone's configuration")
	cmd.Flags().IntSlice("networks", nil, "Network IDs the zone is served on")
	cmd.Flags().String("spec", "", "Desired-state file (json or yaml); flags override file values")
	cmd.Flags().String("spec-format", "", "Desired-state file format override (json|yaml)")
}

func addMinioFlags(cmd *cobra.Command) {
	cmd.Flags().String("minio-endpoint", getEnvWithDefault("MINIO_ENDPOINT", ""), "MinIO endpoint (env: MINIO_ENDPOINT)")
	cmd.Flags().String("minio-access-key", getEnvWithDefault("MINIO_ACCESS_KEY", ""), "MinIO access key (env: MINIO_ACCESS_KEY)")
	cmd.Flags().String("minio-secret-key", getEnvWithDefault("MINIO_SECRET_KEY", ""), "MinIO secret key (env: MINIO_SECRET_KEY)")
	cmd.Flags().String("minio-bucket", defaultBackupBucket(), "MinIO bucket (env: MINIO_BUCKET, overrides with MINIO_ZONE_BUCKET)")
	cmd.Flags().Bool("minio-ssl", getEnvBoolWithDefault("MINIO_SSL", true), "Use SSL for MinIO (env: MINIO_SSL)")
	cmd.Flags().String("bucket-path", getEnvWithDefault("MINIO_BUCKET_PATH", ""), "Path prefix in bucket (env: MINIO_BUCKET_PATH)")
	cmd.Flags().Duration("minio-http-timeout", 0, "MinIO HTTP timeout (env: MINIO_HTTP_TIMEOUT)")
	cmd.Flags().Bool("minio-auto-create-bucket", getEnvBoolWithDefault("MINIO_AUTO_CREATE_BUCKET", false), "Create the bucket when missing (env: MINIO_AUTO_CREATE_BUCKET)")
	cmd.Flags().Bool("capacity-guard", getEnvBoolWithDefault("MINIO_CAPACITY_GUARD", false), "Check cluster capacity before uploading")
	cmd.Flags().Float64("capacity-threshold", 95.0, "Refuse uploads above this usage percentage")
}

func addAWSFlags(cmd *cobra.Command) {
	cmd.Flags().String("aws-vault", getEnvWithDefault("AWS_VAULT", ""), "AWS Glacier vault (env: AWS_VAULT)")
	cmd.Flags().String("aws-account-id", getEnvWithDefault("AWS_ACCOUNT_ID", "-"), "AWS account ID (env: AWS_ACCOUNT_ID)")
	cmd.Flags().String("aws-access-key", getEnvWithDefault("AWS_ACCESS_KEY", ""), "AWS access key (env: AWS_ACCESS_KEY)")
	cmd.Flags().String("aws-secret-access-key", getEnvWithDefault("AWS_SECRET_ACCESS_KEY", ""), "AWS secret key (env: AWS_SECRET_ACCESS_KEY)")
	cmd.Flags().String("aws-region", getEnvWithDefault("AWS_REGION", "us-east-1"), "AWS region (env: AWS_REGION)")
	cmd.Flags().Duration("aws-http-timeout", 0, "AWS HTTP timeout (env: AWS_HTTP_TIMEOUT)")
}

func defaultBackupBucket() string {
	if bucket := os.Getenv("MINIO_ZONE_BUCKET"); bucket != "" {
		return bucket
	}
	return getEnvWithDefault("MINIO_BUCKET", "backups")
}
