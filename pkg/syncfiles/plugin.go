package syncfiles

import "context"

// Plugin is a long-running companion started by Watch.
// Plugins are initialized in registration order and shut down in reverse order.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to each plugin on Initialize.
type PluginConfig struct {
	OutgoingDir string
	ArchiveDir  string
	MediaDir    string
	Logger      Logger
}

// WithPlugin registers a plugin to run alongside Watch.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
