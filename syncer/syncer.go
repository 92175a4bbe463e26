// Package syncer reconciles a Steam shortcut store with the apps a Moonlight
// host currently offers.
//
// Ownership is decided by a single tag: every shortcut carrying SentinelTag
// was created by a previous run and is replaced wholesale; every other
// shortcut is left exactly as it was found.
package syncer

import (
	"fmt"
	"strings"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/shortcuts"
)

const (
	// SentinelTag marks a shortcut as managed by moonsync.
	SentinelTag = "moonlight"

	// DefaultVerb is the Moonlight subcommand that starts a stream.
	DefaultVerb = "stream"

	// Columns is the number of fields in one enumerated app row.
	Columns = 7

	titleColumn = 0
	iconColumn  = 6

	noImageMarker = "no_app_image"
	fileScheme    = "file://"
)

// LaunchSpec fixes the launch argument prefix for one run.
type LaunchSpec struct {
	Verb    string
	Address string
}

// Args renders the launch options for a title: <verb> <address> "<title>".
func (l LaunchSpec) Args(title string) string {
	verb := l.Verb
	if verb == "" {
		verb = DefaultVerb
	}
	return fmt.Sprintf("%s %s \"%s\"", verb, l.Address, title)
}

// Options configures a synchronization pass.
type Options struct {
	// SyncEnabled removes previously synced shortcuts before appending.
	SyncEnabled bool
	// Executable is the program every candidate launches.
	Executable string
	Launch     LaunchSpec
}

// IsOwned reports whether a shortcut belongs to moonsync.
func IsOwned(s shortcuts.Shortcut) bool {
	return s.HasTag(SentinelTag)
}

// FilterOwned returns the shortcuts that do not carry the sentinel tag,
// in their original order.
func FilterOwned(store shortcuts.Store) shortcuts.Store {
	kept := make(shortcuts.Store, 0, len(store))
	for _, s := range store {
		if !IsOwned(s) {
			kept = append(kept, s)
		}
	}
	return kept
}

// NormalizeIcon turns Moonlight's box art reference into a local path.
func NormalizeIcon(ref string) (string, error) {
	if strings.Contains(ref, noImageMarker) {
		return "", nil
	}
	path, ok := strings.CutPrefix(ref, fileScheme)
	if !ok {
		return "", fmt.Errorf("icon reference %q is neither a %s URL nor a placeholder", ref, fileScheme)
	}
	return path, nil
}

// Materialize builds one owned shortcut per row. It fails on the first row
// that is not a well-formed app description and returns nothing in that case.
func Materialize(rows [][]string, opts Options) (shortcuts.Store, error) {
	candidates := make(shortcuts.Store, 0, len(rows))
	for i, row := range rows {
		if len(row) != Columns {
			return nil, errors.MalformedCandidate(i, fmt.Sprintf("expected exactly %d columns, got %d", Columns, len(row))).
				WithDetail("columns", len(row))
		}

		title := row[titleColumn]
		icon, err := NormalizeIcon(row[iconColumn])
		if err != nil {
			return nil, errors.MalformedCandidate(i, err.Error()).
				WithDetail("title", title)
		}

		s := shortcuts.New(title, opts.Executable, icon, opts.Launch.Args(title))
		s.Tags = []string{SentinelTag}
		candidates = append(candidates, s)
	}
	return candidates, nil
}

// Sync applies the ownership filter and appends freshly materialized
// candidates. existing is never modified.
func Sync(existing shortcuts.Store, rows [][]string, opts Options) (shortcuts.Store, error) {
	candidates, err := Materialize(rows, opts)
	if err != nil {
		return nil, err
	}

	var kept shortcuts.Store
	if opts.SyncEnabled {
		kept = FilterOwned(existing)
	} else {
		kept = existing
	}

	result := make(shortcuts.Store, 0, len(kept)+len(candidates))
	result = append(result, kept...)
	result = append(result, candidates...)
	return result, nil
}
