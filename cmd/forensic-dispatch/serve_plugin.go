package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/analysis_plugin"
	"github.com/turbot/forensic-dispatch/config"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/pipe-fittings/cmdconfig"
)

// servePluginCmd serves an HTTP analysis client as a plugin, so that a host
// configured with analysis_plugin never holds the API credentials itself
func servePluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "serve-plugin [flags]",
		Short:  "Serve the analysis client as a plugin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runServePluginCmd,
	}

	cmdconfig.OnCmd(cmd).
		AddStringFlag(flagConfig, "", "Path of an HCL config file holding the analysis API settings")

	return cmd
}

func runServePluginCmd(_ *cobra.Command, _ []string) error {
	path := viper.GetString(flagConfig)
	if path == "" {
		return error_types.NewConfigurationError("--%s is required", flagConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	clientConfig := analysis_client.HTTPClientConfig{
		BaseURL:  cfg.ApiUrl,
		Instance: cfg.Instance,
		Region:   cfg.Region,
	}
	if cfg.Token != nil {
		clientConfig.Token = *cfg.Token
	}
	if cfg.Requester != nil {
		clientConfig.Requester = *cfg.Requester
	}
	client, err := analysis_client.NewHTTPClient(clientConfig)
	if err != nil {
		return error_types.NewConfigurationError("%s", err.Error())
	}

	analysis_plugin.Serve(client)
	return nil
}
