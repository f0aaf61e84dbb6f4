package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/osesov/gerrit-cli/internal/config"
	"github.com/osesov/gerrit-cli/internal/gerrit"
	"github.com/osesov/gerrit-cli/internal/git"
	"github.com/osesov/gerrit-cli/internal/logging"
	"github.com/osesov/gerrit-cli/internal/refmap"
	"github.com/osesov/gerrit-cli/internal/squads"
)

// globalOptions carries the persistent root flags into each command
// constructor. The values are pointers because cobra binds them before
// any RunE fires.
type globalOptions struct {
	server     *string
	configPath *string
	verbose    *bool
}

// appContext bundles the per-invocation dependencies every command
// needs: loaded config, the git runner for the working directory, and
// the Gerrit client for the selected server. Commands build one at the
// start of RunE and never share it across invocations.
type appContext struct {
	cfg    *config.Config
	server *config.Server
	git    *git.Runner
	client *gerrit.Client
	mapper *refmap.Mapper
}

func newAppContext(opts *globalOptions) (*appContext, error) {
	path := *opts.configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Logging != nil {
		if err := logging.Init(cfg.Logging); err != nil {
			return nil, err
		}
	}
	// --verbose wins over the configured level.
	if opts.verbose != nil && *opts.verbose {
		logging.SetLevel("debug")
	}

	srv, err := cfg.Server(*opts.server)
	if err != nil {
		return nil, err
	}
	logging.WithServer(srv.Name).Debug("server selected", "url", srv.URL)

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	runner := git.NewRunner(wd)
	client := gerrit.NewClient(srv.URL, srv.Username, srv.Password)
	if srv.CookieFile != "" {
		client.UseCookieFile(srv.CookieFile)
	}

	return &appContext{
		cfg:    cfg,
		server: srv,
		git:    runner,
		client: client,
		mapper: refmap.New(runner, client),
	}, nil
}

// openSquads opens the squad registry scoped to the selected server.
// The caller must Close the returned store.
func (a *appContext) openSquads() (*squads.Registry, *squads.Store, error) {
	path, err := a.cfg.SquadDBPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating squad database directory: %w", err)
	}
	store, err := squads.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return squads.NewRegistry(store, a.server.Name), store, nil
}

// expandReviewers resolves squad markers in a reviewer list. Plain
// addresses pass through even when the squad database is unavailable.
func (a *appContext) expandReviewers(names []string) ([]string, error) {
	if !hasSquadMarker(names) {
		return names, nil
	}
	reg, store, err := a.openSquads()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return reg.ExpandReviewers(names)
}

func hasSquadMarker(names []string) bool {
	for _, n := range names {
		if len(n) > 0 && n[:1] == squads.Marker {
			return true
		}
	}
	return false
}
