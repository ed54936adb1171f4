package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/odvcencio/webgate/pkg/config"
	"github.com/odvcencio/webgate/pkg/permission"
	"github.com/odvcencio/webgate/pkg/settings"
	"github.com/odvcencio/webgate/pkg/storage"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "exceptions":
		err = runExceptions(args[1:])
	case "settings":
		err = runSettings(args[1:])
	case "audit":
		err = runAudit(args[1:])
	case "version":
		fmt.Printf("webgate %s (%s, built %s)\n", version, commit, buildDate)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `webgate - permission store inspection and maintenance

Usage:
  webgate [-config path] <command> [args]

Commands:
  exceptions list                 list persisted site exceptions
  exceptions add <url> <category>    add a site exception
  exceptions remove <url> <category> remove a site exception
  settings show                   show policy switches
  settings set <key> <value>      set a policy switch
  audit [-n count]                show recent permission verdicts
  version                         print version information
`)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func openStore() (*storage.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath()), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func runExceptions(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("exceptions: expected list, add, or remove")
	}
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch args[0] {
	case "list":
		records, err := store.QueryAll(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tCATEGORY\tLABEL")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.URL, r.Category, r.Label)
		}
		return w.Flush()

	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: exceptions add <url> <category>")
		}
		category, err := parseCategory(args[2])
		if err != nil {
			return err
		}
		return store.Insert(ctx, permission.SiteException{URL: args[1], Category: category})

	case "remove":
		if len(args) != 3 {
			return fmt.Errorf("usage: exceptions remove <url> <category>")
		}
		category, err := parseCategory(args[2])
		if err != nil {
			return err
		}
		return store.Delete(ctx, permission.SiteException{URL: args[1], Category: category})

	default:
		return fmt.Errorf("exceptions: unknown subcommand %q", args[0])
	}
}

func parseCategory(s string) (permission.Category, error) {
	switch permission.Category(s) {
	case permission.CategoryWebXR, permission.CategoryTracking,
		permission.CategoryDRM, permission.CategoryPopup:
		return permission.Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q (webxr, tracking, drm, popup)", s)
}

func runSettings(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("settings: expected show or set")
	}
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, err := settings.NewManager(store, settings.Defaults{
		AutoplayEnabled: cfg.Permissions.AutoplayEnabled,
		WebXREnabled:    cfg.Permissions.WebXREnabled,
	})
	if err != nil {
		return err
	}

	switch args[0] {
	case "show":
		fmt.Printf("autoplay_enabled: %t\n", mgr.AutoplayEnabled())
		fmt.Printf("webxr_enabled:    %t\n", mgr.WebXREnabled())
		fmt.Printf("drm_decision:     %s\n", mgr.DRMDecision())
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: settings set <key> <value>")
		}
		key, value := args[1], args[2]
		switch key {
		case "autoplay_enabled":
			return mgr.SetAutoplayEnabled(value == "true")
		case "webxr_enabled":
			return mgr.SetWebXREnabled(value == "true")
		case "drm_decision":
			switch value {
			case "allow":
				return mgr.SetDRMDecision(permission.DRMAllow)
			case "deny":
				return mgr.SetDRMDecision(permission.DRMDeny)
			case "unset":
				return mgr.SetDRMDecision(permission.DRMUnset)
			}
			return fmt.Errorf("drm_decision must be allow, deny, or unset")
		}
		return fmt.Errorf("unknown setting %q", key)

	default:
		return fmt.Errorf("settings: unknown subcommand %q", args[0])
	}
}

func runAudit(args []string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	count := fs.Int("n", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ListVerdicts(*count)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tURI\tKIND\tVERDICT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.DecidedAt.Format("2006-01-02 15:04:05"), e.SessionID, e.URI, e.Kind, e.Verdict)
	}
	return w.Flush()
}
