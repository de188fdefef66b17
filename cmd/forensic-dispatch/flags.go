package main

const (
	flagConfig           = "config"
	flagProject          = "project"
	flagZone             = "zone"
	flagDisk             = "disk"
	flagInstance         = "instance"
	flagRegion           = "region"
	flagApiUrl           = "api-url"
	flagPollInterval     = "poll-interval"
	flagMaxWait          = "max-wait"
	flagStagingDir       = "staging-dir"
	flagFetchConcurrency = "fetch-concurrency"
	flagReportFormat     = "report-format"
	flagDryRun           = "dry-run"
	flagDryRunScript     = "dry-run-script"
	flagRetries          = "retries"
	flagIndicator        = "indicator"
)
