package skill

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"brainvoice/internal/config"
	applog "brainvoice/internal/log"
	"brainvoice/internal/security"
	"brainvoice/internal/tool"
)

// Loader discovers script tools in a plugins directory.
type Loader struct {
	cfg    config.PluginsConfig
	logger zerolog.Logger
}

// NewLoader creates a loader for the configured plugins directory.
func NewLoader(cfg config.PluginsConfig) *Loader {
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 10
	}
	return &Loader{cfg: cfg, logger: applog.WithComponent("skill")}
}

func (l *Loader) enabledSet() map[string]bool {
	set := make(map[string]bool, len(l.cfg.EnabledTools))
	for _, name := range l.cfg.EnabledTools {
		set[name] = true
	}
	return set
}

// manifests walks the plugins directory and returns every parseable manifest with its dir.
func (l *Loader) manifests() (map[string]*Manifest, []string, error) {
	if l.cfg.Dir == "" {
		return nil, nil, nil
	}
	entries, err := os.ReadDir(l.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read plugins dir: %w", err)
	}

	found := make(map[string]*Manifest)
	var order []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(l.cfg.Dir, entry.Name())
		m, err := parseManifest(filepath.Join(dir, "manifest.json"))
		if err != nil {
			l.logger.Warn().Err(err).Str("dir", dir).Msg("skipping plugin")
			continue
		}
		found[dir] = m
		order = append(order, dir)
	}
	return found, order, nil
}

// Load returns tools for every enabled script. With no enabled list, all are loaded.
func (l *Loader) Load() ([]tool.Tool, error) {
	if !l.cfg.Enabled {
		return nil, nil
	}
	if l.cfg.Dir != "" {
		if err := security.ValidateDir(l.cfg.Dir); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("plugins dir: %w", err)
		}
	}

	found, order, err := l.manifests()
	if err != nil {
		return nil, err
	}
	enabled := l.enabledSet()

	var tools []tool.Tool
	for _, dir := range order {
		m := found[dir]
		if len(enabled) > 0 && !enabled[m.Name] {
			continue
		}
		tools = append(tools, NewScriptTool(*m, dir, l.cfg.TimeoutSecs, l.cfg.SandboxEnabled))
	}
	return tools, nil
}

// LoadInto registers every loaded script tool. A name clash with an
// already registered tool is an error.
func (l *Loader) LoadInto(registry *tool.Registry) (int, error) {
	tools, err := l.Load()
	if err != nil {
		return 0, err
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return 0, fmt.Errorf("register %s: %w", t.Name(), err)
		}
		l.logger.Info().Str("tool", t.Name()).Msg("script tool registered")
	}
	return len(tools), nil
}

// List returns info about all installed scripts, enabled or not.
func (l *Loader) List() []Info {
	found, order, err := l.manifests()
	if err != nil {
		return nil
	}
	enabled := l.enabledSet()

	infos := make([]Info, 0, len(order))
	for _, dir := range order {
		m := found[dir]
		infos = append(infos, Info{
			Name:        m.Name,
			Version:     m.Version,
			Description: m.Description,
			Enabled:     l.cfg.Enabled && (len(enabled) == 0 || enabled[m.Name]),
		})
	}
	return infos
}
