package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/config"
	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/context_values"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/forensic-dispatch/processor"
	"github.com/turbot/pipe-fittings/cmdconfig"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [flags]",
		Short: "Submit a disk for remote analysis, wait for it and collect the results",
		Args:  cobra.NoArgs,
		RunE:  runProcessCmd,
	}

	cmdconfig.OnCmd(cmd).
		AddStringFlag(flagConfig, "", "Path of an HCL config file").
		AddStringFlag(flagProject, "", "Project containing the disk").
		AddStringFlag(flagZone, "", "Zone containing the disk").
		AddStringFlag(flagDisk, "", "Name of the disk to process").
		AddStringFlag(flagInstance, "", "Name of the analysis service instance").
		AddStringFlag(flagRegion, "", "Region of the analysis service").
		AddStringFlag(flagApiUrl, "", "URL of the analysis API server").
		AddIntFlag(flagPollInterval, config.DefaultPollIntervalSecs, "Seconds between task status queries").
		AddIntFlag(flagMaxWait, 0, "Maximum seconds to wait for the tasks, 0 to wait indefinitely").
		AddStringFlag(flagStagingDir, "", "Directory remote artifacts are copied into (default a new temporary directory)").
		AddIntFlag(flagFetchConcurrency, config.DefaultFetchConcurrency, "Number of remote artifacts to fetch at once").
		AddStringFlag(flagReportFormat, string(containers.TextFormatPlainText), "Report format: plaintext or markdown").
		AddStringFlag(flagIndicator, "", "A threat intelligence pattern to filter the analysis with").
		AddBoolFlag(flagDryRun, false, "Replay a task script instead of contacting the analysis service").
		AddStringFlag(flagDryRunScript, "", "JSON file of task snapshots replayed by --dry-run").
		AddIntFlag(flagRetries, 0, "Re-run the whole request up to this many times after a dispatch, poll or retrieval failure")

	return cmd
}

func runProcessCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context_values.WithExecutionId(ctx, uuid.NewString())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var opts []processor.ProcessorOption
	if viper.GetBool(flagDryRun) {
		client, err := scriptedClient(viper.GetString(flagDryRunScript))
		if err != nil {
			return err
		}
		opts = append(opts, processor.WithClient(client))
	}

	output, err := runWithRetries(ctx, viper.GetInt(flagRetries), func() ([]containers.LabelledPath, error) {
		return runOnce(ctx, cfg, opts...)
	})
	if err != nil {
		return err
	}

	for _, o := range output {
		fmt.Printf("%s\t%s\n", o.Label, o.Path)
	}
	return nil
}

// loadConfig reads the config file, if any, then applies any flags which were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if path := viper.GetString(flagConfig); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	stringFlags := map[string]*string{
		flagProject:  &cfg.Project,
		flagZone:     &cfg.Zone,
		flagDisk:     &cfg.Disk,
		flagInstance: &cfg.Instance,
		flagRegion:   &cfg.Region,
		flagApiUrl:   &cfg.ApiUrl,
	}
	for name, target := range stringFlags {
		if changed(name) {
			*target = viper.GetString(name)
		}
	}
	if changed(flagPollInterval) {
		v := viper.GetInt(flagPollInterval)
		cfg.PollInterval = &v
	}
	if changed(flagMaxWait) {
		v := viper.GetInt(flagMaxWait)
		cfg.MaxWait = &v
	}
	if changed(flagFetchConcurrency) {
		v := viper.GetInt(flagFetchConcurrency)
		cfg.FetchConcurrency = &v
	}
	if changed(flagStagingDir) {
		v := viper.GetString(flagStagingDir)
		cfg.StagingDir = &v
	}
	if changed(flagReportFormat) {
		v := viper.GetString(flagReportFormat)
		cfg.ReportFormat = &v
	}
	if changed(flagIndicator) {
		cfg.Indicators = append(cfg.Indicators, config.Indicator{Name: "cli", Pattern: viper.GetString(flagIndicator)})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scriptedClient(path string) (*analysis_client.ScriptedClient, error) {
	if path == "" {
		return nil, error_types.NewConfigurationError("--%s requires --%s", flagDryRun, flagDryRunScript)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, error_types.NewConfigurationError("failed to open task script: %s", err.Error())
	}
	defer f.Close()

	snapshots, err := analysis_client.LoadScript(f)
	if err != nil {
		return nil, error_types.NewConfigurationError("%s", err.Error())
	}
	return analysis_client.NewScriptedClient(snapshots...), nil
}

// runOnce runs a single request against a fresh pipeline state
func runOnce(ctx context.Context, cfg *config.Config, opts ...processor.ProcessorOption) ([]containers.LabelledPath, error) {
	state := containers.NewState()
	for _, intel := range cfg.ThreatIntelligence() {
		if err := state.StoreContainer(intel); err != nil {
			return nil, error_types.NewConfigurationError("%s", err.Error())
		}
	}

	status := observable.NewStatusObserver("")
	opts = append(opts, processor.WithConsole(os.Stdout), processor.WithObserver(status))
	p := processor.New(cfg, state, opts...)
	defer func() {
		if err := p.Cleanup(); err != nil {
			slog.Warn("Cleanup failed", "error", err)
		}
	}()

	if err := p.Setup(ctx); err != nil {
		return nil, err
	}
	if err := p.Process(ctx); err != nil {
		return nil, err
	}

	s := status.Status()
	fmt.Fprintf(os.Stderr, "%d tasks (%d failed), %d artifacts collected, %d downloaded, %d excluded\n",
		s.TasksTotal, s.TasksFailed, s.ArtifactsCollected, s.ArtifactsDownloaded, s.ArtifactsExcluded)
	return state.Output(), nil
}

// initial delay before re-running a failed request
var retryInitialInterval = 10 * time.Second

// runWithRetries re-runs the whole request after a dispatch, poll or retrieval failure,
// with exponential backoff. Configuration and empty output failures are returned at once.
func runWithRetries(ctx context.Context, retries int, run func() ([]containers.LabelledPath, error)) ([]containers.LabelledPath, error) {
	if retries <= 0 {
		return run()
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = retryInitialInterval
	expBackoff.MaxElapsedTime = 0

	var output []containers.LabelledPath
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		output, err = run()
		if err == nil {
			return nil
		}
		if !error_types.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("Run failed, retrying", "attempt", attempt, "error", err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(retries)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return output, nil
}
