package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/metrics"
	"oci-compliance-report/internal/ocisource"
	"oci-compliance-report/internal/report"
	"oci-compliance-report/internal/scan"
	"oci-compliance-report/internal/scope"
)

var version = "0.1.0"

const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

// errPartialCoverage ends a run that produced a report with failed collections or partial records.
var errPartialCoverage = errors.New("report coverage is partial")

func main() {
	os.Exit(Execute(os.Args[1:], os.Stderr))
}

// Execute runs the CLI and maps the outcome to an exit status.
func Execute(args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	return exitCode(cmd.Execute(), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPartialCoverage):
		fmt.Fprintf(stderr, "Warning: %v\n", err)
		return exitPartial
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}
}

// cliFlags holds the raw flag values; only flags the user changed override the configuration.
type cliFlags struct {
	configFile string
	envFile    string

	compartmentID     string
	region            string
	instancePrincipal bool
	instanceGroupID   string
	ociConfig         string
	ociProfile        string
	showDetails       bool
	recursive         bool
	verbose           bool
	debug             bool

	format         string
	output         string
	logFormat      string
	kinds          string
	excludeKinds   string
	verboseTunnels bool
	namespace      string
	objectPrefix   string
	riskLevel      string
	maxWorkers     int
	pageSize       int
	timeout        int
	metricsFile    string
	progress       bool
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	cmd := &cobra.Command{
		Use:   "oci-compliance-report",
		Short: "OCI patch compliance and inventory report",
		Long: `oci-compliance-report walks a compartment tree of an OCI tenancy and reports
managed instances missing security patches, together with backups, file system
snapshots, Cloud Guard problems, database systems, load balancers, VPN tunnels
and compute utilization.

Exit status is 0 for a complete report, 2 when some collections failed or some
records are incomplete, and 1 when no report could be produced.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags)
		},
	}

	flags.register(cmd)
	cmd.AddCommand(newConfigCommand())
	return cmd
}

// register binds the report flags to cmd.
func (f *cliFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "configuration file (default: $"+ConfigFileEnv+" or the standard search path)")
	fs.StringVar(&f.envFile, "env-file", "", "load environment variables from this file (default: ./.env when present)")

	fs.StringVarP(&f.compartmentID, "compartment-ocid", "c", "", "compartment or tenancy OCID to report on (default: tenancy)")
	fs.StringVarP(&f.region, "region", "r", "", "region to connect to (default: from the OCI config)")
	fs.BoolVarP(&f.instancePrincipal, "use-instance-principals", "I", false, "authenticate with instance principals")
	fs.StringVarP(&f.instanceGroupID, "managed-instance-group-ocid", "g", "", "only report patches for this managed instance group")
	fs.StringVarP(&f.ociConfig, "oci-config", "C", "", "OCI config file")
	fs.StringVarP(&f.ociProfile, "oci-config-profile", "P", "", "OCI config profile")
	fs.BoolVarP(&f.showDetails, "show-details", "d", false, "print per-host updates and per-kind sections")
	fs.BoolVarP(&f.recursive, "recursive", "R", false, "include sub-compartments")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVar(&f.debug, "debug", false, "debug logging")
	_ = fs.MarkHidden("debug")

	fs.StringVarP(&f.format, "format", "f", "", "output format: text, json, csv")
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
	fs.StringVar(&f.kinds, "kinds", "", "comma-separated kinds to collect (default: all)")
	fs.StringVar(&f.excludeKinds, "exclude-kinds", "", "comma-separated kinds to skip")
	fs.BoolVar(&f.verboseTunnels, "verbose-tunnels", false, "fetch IKE phase one and two details for every VPN tunnel")
	fs.StringVar(&f.namespace, "namespace", "", "Object Storage namespace (default: looked up)")
	fs.StringVar(&f.objectPrefix, "object-prefix", "", "backup object prefix (default: "+inventory.BackupPrefix+"<yyyy_mm_dd>)")
	fs.StringVar(&f.riskLevel, "risk-level", "", "Cloud Guard risk level (default: "+inventory.DefaultRiskLevel+")")
	fs.IntVar(&f.maxWorkers, "max-workers", 0, "compartments processed concurrently")
	fs.IntVar(&f.pageSize, "page-size", 0, "items requested per page")
	fs.IntVar(&f.timeout, "timeout", 0, "overall timeout in seconds")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus run metrics to this textfile")
	fs.BoolVar(&f.progress, "progress", true, "show a progress bar on a terminal")

	cmd.MarkFlagsMutuallyExclusive("recursive", "managed-instance-group-ocid")
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "oci-compliance-report.yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			if _, err := os.Stat(filename); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
			}
			if err := GenerateDefaultConfigFile(filename); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

// overrides collects the flags the user set explicitly.
func (f *cliFlags) overrides(cmd *cobra.Command) CLIOverrides {
	changed := cmd.Flags().Changed
	var o CLIOverrides

	if changed("timeout") {
		o.Timeout = &f.timeout
	}
	if changed("format") {
		o.OutputFormat = &f.format
	}
	if changed("log-format") {
		o.LogFormat = &f.logFormat
	}
	if changed("progress") {
		o.Progress = &f.progress
	}
	if changed("max-workers") {
		o.MaxWorkers = &f.maxWorkers
	}
	if changed("output") {
		o.OutputFile = &f.output
	}
	if changed("metrics-file") {
		o.MetricsFile = &f.metricsFile
	}
	if changed("oci-config") {
		o.ConfigFile = &f.ociConfig
	}
	if changed("oci-config-profile") {
		o.Profile = &f.ociProfile
	}
	if changed("region") {
		o.Region = &f.region
	}
	if changed("use-instance-principals") {
		o.InstancePrincipal = &f.instancePrincipal
	}
	if changed("compartment-ocid") {
		o.CompartmentID = &f.compartmentID
	}
	if changed("recursive") {
		o.Recursive = &f.recursive
	}
	if changed("page-size") {
		o.PageSize = &f.pageSize
	}
	if changed("managed-instance-group-ocid") {
		o.InstanceGroupID = &f.instanceGroupID
	}
	if changed("show-details") {
		o.ShowDetails = &f.showDetails
	}
	if changed("verbose-tunnels") {
		o.VerboseTunnels = &f.verboseTunnels
	}
	if changed("namespace") {
		o.Namespace = &f.namespace
	}
	if changed("object-prefix") {
		o.ObjectPrefix = &f.objectPrefix
	}
	if changed("risk-level") {
		o.RiskLevel = &f.riskLevel
	}

	level := ""
	switch {
	case f.debug:
		level = "debug"
	case f.verbose:
		level = "verbose"
	}
	if level != "" {
		o.LogLevel = &level
	}

	o.Kinds = ParseList(f.kinds)
	o.ExcludeKinds = ParseList(f.excludeKinds)
	return o
}

// loadDotEnv loads an explicit env file, or ./.env when it exists.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// buildConfig resolves the effective configuration: defaults, then file, then flags.
func buildConfig(cmd *cobra.Command, flags *cliFlags) (*AppConfig, string, error) {
	if err := loadDotEnv(flags.envFile); err != nil {
		return nil, "", err
	}

	config, path, err := LoadConfig(flags.configFile)
	if err != nil {
		return nil, "", err
	}

	MergeWithCLIArgs(config, flags.overrides(cmd))
	config.Scan.RiskLevel = strings.ToUpper(config.Scan.RiskLevel)
	if err := validateConfig(config); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return config, path, nil
}

func runReport(cmd *cobra.Command, flags *cliFlags) error {
	config, configPath, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	level, err := ParseLogLevel(config.General.LogLevel)
	if err != nil {
		return err
	}
	log := NewLogger(level, config.General.LogFormat, cmd.ErrOrStderr())
	if configPath != "" {
		log.Debug().Str("path", configPath).Msg("loaded configuration file")
	}

	kinds, err := SelectKinds(config.Scan.Kinds, config.Filters)
	if err != nil {
		return err
	}
	compiled, err := CompileFilters(config.Filters)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.Timeout())
	defer cancel()

	clients, err := ocisource.NewClients(ctx, config.SourceConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize OCI clients: %w", err)
	}
	src := ocisource.NewSource(clients,
		ocisource.WithLogger(log),
		ocisource.WithMaxRetries(config.OCI.MaxRetries),
	)

	root := config.Scan.CompartmentID
	if root == "" {
		root = clients.TenancyID
	}
	log.Info().
		Str("root", root).
		Str("region", clients.Region).
		Bool("recursive", config.Scan.Recursive).
		Str("kinds", joinKinds(kinds)).
		Msg("starting compliance report")

	settings := collectionSettings(ctx, config, src, kinds, log)

	recorder := metrics.New()
	progress := NewProgressTracker(config.General.Progress, cmd.ErrOrStderr())
	scanner := scan.New(src, inventory.Aggregators(src.Sources(), kinds),
		scan.WithProgress(progress),
		scan.WithMetrics(recorder),
		scan.WithLogger(log),
	)

	rep, runErr := scanner.Run(ctx, scan.Options{
		Root:            root,
		Recursive:       config.Scan.Recursive,
		MaxDepth:        config.Scan.MaxDepth,
		MaxWorkers:      config.General.MaxWorkers,
		InstanceGroupID: config.Scan.InstanceGroupID,
		Settings:        settings,
		KeepScope:       ScopeFilter(config.Filters, root),
		KeepRecord:      RecordFilter(compiled),
	})
	progress.Stop()
	if rep == nil {
		return runErr
	}

	names := scope.NewNameCache(src, log)
	names.Preload(rep.Scopes())
	if err := writeOutputs(ctx, config, rep, recorder, names); err != nil {
		return err
	}
	if entries, hitRate := names.Stats(); entries > 0 {
		log.Debug().Int("entries", entries).Float64("hit_rate", hitRate).Msg("compartment name cache")
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted, report is incomplete: %w", runErr)
	}
	if rep.Coverage() == report.CoveragePartial {
		return errPartialCoverage
	}
	return nil
}

// collectionSettings looks up what the selected kinds need once per run. A failed
// lookup is logged and left empty; the affected kind then fails per compartment.
func collectionSettings(ctx context.Context, config *AppConfig, src *ocisource.Source, kinds []inventory.Kind, log zerolog.Logger) inventory.Settings {
	settings := inventory.Settings{
		Namespace:      config.Scan.Namespace,
		ObjectPrefix:   config.Scan.ObjectPrefix,
		RiskLevel:      config.Scan.RiskLevel,
		VerboseTunnels: config.Scan.VerboseTunnels,
		PageSize:       config.Scan.PageSize,
		Log:            log,
	}

	for _, k := range kinds {
		switch k {
		case inventory.KindObjectStorage:
			if settings.Namespace != "" {
				continue
			}
			ns, err := src.Namespace(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to look up Object Storage namespace")
				continue
			}
			settings.Namespace = ns
		case inventory.KindFileStorage:
			ads, err := src.AvailabilityDomains(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to list availability domains")
				continue
			}
			settings.AvailabilityDomains = ads
		}
	}
	return settings
}

func writeOutputs(ctx context.Context, config *AppConfig, rep *report.Report, recorder *metrics.Recorder, names *scope.NameCache) error {
	opts := TextOptions{ShowDetails: config.Scan.ShowDetails, Names: names}
	if err := outputReportToFile(ctx, rep, config.General.OutputFormat, config.Output.File, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if config.Output.MetricsFile != "" {
		if err := recorder.WriteTextfile(config.Output.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func joinKinds(kinds []inventory.Kind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ",")
}
