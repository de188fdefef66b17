package analysis_plugin

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
	"github.com/turbot/forensic-dispatch/analysis_client"
)

// PluginName is the name the analysis client is dispensed under
const PluginName = "analysis_client"

// Handshake is shared by the plugin host and the plugin
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FORENSIC_DISPATCH_ANALYSIS_PLUGIN",
	MagicCookieValue: "analysis client",
}

// AnalysisPlugin is the implementation of plugin.Plugin so an analysis_client.Client can be
// served and consumed over net/rpc
type AnalysisPlugin struct {
	// Impl is only set on the plugin side
	Impl analysis_client.Client
}

func (p *AnalysisPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (*AnalysisPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

func pluginMap(impl analysis_client.Client) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &AnalysisPlugin{Impl: impl},
	}
}
