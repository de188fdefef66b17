package analysis_plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/logging"
	"github.com/turbot/go-kit/helpers"
)

const PluginStartupFailureMessage = "Plugin startup failed: "

// Serve serves impl to a plugin host. It is called from the main function of the plugin
// and blocks until the host disconnects.
func Serve(impl analysis_client.Client) {
	defer func() {
		if r := recover(); r != nil {
			// write to stdout so the host can extract the error message
			fmt.Println(PluginStartupFailureMessage + helpers.ToError(r).Error())
		}
	}()

	logging.Initialize("analysis-plugin")
	slog.Info("Serving analysis client plugin")

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         pluginMap(impl),
		// disable server logging
		Logger: hclog.New(&hclog.LoggerOptions{Level: hclog.Off}),
	})
}

// Client is an analysis client running in a plugin process
type Client struct {
	*RPCClient
	pluginClient *plugin.Client
}

// NewClient starts the plugin executable at path and dispenses its analysis client
func NewClient(path string, args ...string) (*Client, error) {
	if path == "" {
		return nil, errors.New("plugin path is required")
	}

	pluginClient := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          pluginMap(nil),
		Cmd:              exec.Command(path, args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "analysis-plugin",
			Output: os.Stderr,
			Level:  hclog.LevelFromString(os.Getenv(logging.EnvLogLevel)),
		}),
	})

	rpcClient, err := pluginClient.Client()
	if err != nil {
		pluginClient.Kill()
		return nil, fmt.Errorf("failed to start analysis plugin %s: %w", path, err)
	}
	raw, err := rpcClient.Dispense(PluginName)
	if err != nil {
		pluginClient.Kill()
		return nil, fmt.Errorf("failed to dispense analysis client from %s: %w", path, err)
	}
	c, ok := raw.(*RPCClient)
	if !ok {
		pluginClient.Kill()
		return nil, fmt.Errorf("analysis plugin %s returned unexpected type %T", path, raw)
	}
	return &Client{RPCClient: c, pluginClient: pluginClient}, nil
}

// Close stops the plugin process
func (c *Client) Close() error {
	c.pluginClient.Kill()
	return nil
}
