package gitstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	format "github.com/go-git/go-git/v6/plumbing/format/config"
)

const (
	sectionCore       = "core"
	optionExcludes    = "excludesfile"
	optionFileMode    = "filemode"
	keyCoreExcludes   = sectionCore + "." + optionExcludes
	keyCoreFileMode   = sectionCore + "." + optionFileMode
	keyOriginURL      = "remote." + originName + ".url"
	originName        = "origin"
	xdgConfigHomeEnv  = "XDG_CONFIG_HOME"
	defaultConfigDir  = ".config"
	globalConfigName  = ".gitconfig"
	defaultIgnoreName = "ignore"
)

// userDirs resolves the home and XDG config directories. An override
// replaces both so lookups never touch the invoking user's real files.
func userDirs(homeOverride string) (string, string, error) {
	if homeOverride != "" {
		return homeOverride, filepath.Join(homeOverride, defaultConfigDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	xdg := os.Getenv(xdgConfigHomeEnv)
	if xdg == "" {
		xdg = filepath.Join(home, defaultConfigDir)
	}

	return home, xdg, nil
}

// globalExcludesFile resolves core.excludesfile from the user-level config
// files, falling back to git's default location when it exists.
func globalExcludesFile(homeOverride string) (string, bool, error) {
	home, xdg, err := userDirs(homeOverride)
	if err != nil {
		return "", false, err
	}

	// git reads the XDG file first; ~/.gitconfig wins.
	var value, base string
	for _, path := range []string{
		filepath.Join(xdg, "git", "config"),
		filepath.Join(home, globalConfigName),
	} {
		v, ok, readErr := readConfigOption(path, sectionCore, optionExcludes)
		if readErr != nil {
			return "", false, readErr
		}
		if ok {
			value, base = v, filepath.Dir(path)
		}
	}

	if value != "" {
		return expandPath(value, home, base), true, nil
	}

	fallback := filepath.Join(xdg, "git", defaultIgnoreName)
	if _, err := os.Stat(fallback); err == nil {
		return fallback, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return "", false, nil
}

// readConfigOption reads section.name from a git config file. A missing file
// is an absent value.
func readConfigOption(path, section, name string) (string, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer f.Close()

	cfg := format.New()
	if err := format.NewDecoder(f).Decode(cfg); err != nil {
		return "", false, fmt.Errorf("%w: failed to parse %s: %w", ErrReadFailed, path, err)
	}

	if !cfg.HasSection(section) {
		return "", false, nil
	}

	value := cfg.Section(section).Option(name)
	return value, value != "", nil
}

// expandPath resolves "~" against home and relative paths against base.
func expandPath(p, home, base string) string {
	switch {
	case p == "~":
		return home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(home, p[2:])
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	default:
		return filepath.Join(base, p)
	}
}
