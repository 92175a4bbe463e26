// Package steam locates the per-user Steam directory that holds the shortcut
// store.
package steam

import (
	"bufio"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// UserdataDirName is the directory holding one subdirectory per account.
	UserdataDirName = "userdata"
	// UnknownPersona is shown when an account's display name cannot be read.
	UnknownPersona = "UNKNOWN"

	personaKey = "PersonaName"
)

// User is one account directory under userdata.
type User struct {
	Dir         string `json:"dir"`
	ID          string `json:"id"`
	PersonaName string `json:"persona_name"`
}

// String renders the user the way choosers display it.
func (u User) String() string {
	return fmt.Sprintf("%s (%s)", u.Dir, u.PersonaName)
}

// Chooser picks one user when several accounts exist.
type Chooser interface {
	Choose(users []User) (User, error)
}

// Resolver finds the user directory to operate on.
type Resolver struct {
	FS      afero.Fs
	Chooser Chooser
	Logger  *logrus.Entry
}

// NewResolver creates a resolver on the real filesystem. A nil chooser makes
// multiple accounts an error.
func NewResolver(chooser Chooser, logger *logrus.Entry) *Resolver {
	return &Resolver{
		FS:      afero.NewOsFs(),
		Chooser: chooser,
		Logger:  logger,
	}
}

// ShortcutsPath returns the shortcut store inside a user directory.
func ShortcutsPath(userDir string) string {
	return filepath.Join(userDir, "config", "shortcuts.vdf")
}

// ResolveUserDir maps the --steam-userdata argument to a user directory.
// An empty path means Steam's default userdata directory. A path whose last
// element is "userdata" is searched for accounts; any other path is taken as
// the user directory itself.
func (r *Resolver) ResolveUserDir(path string) (string, error) {
	if path == "" {
		path = paths.SteamUserdataDir()
		if path == "" {
			return "", errors.UserDirNotFound(UserdataDirName, "cannot determine the data home directory; pass --steam-userdata")
		}
	} else if filepath.Base(filepath.Clean(path)) != UserdataDirName {
		return path, nil
	}

	users, err := ListUsers(r.FS, path)
	if err != nil {
		return "", err
	}

	switch len(users) {
	case 0:
		return "", errors.UserDirNotFound(path, "no user directories found")
	case 1:
		r.Logger.WithField("dir", users[0].Dir).Debug("Using only Steam user directory")
		return users[0].Dir, nil
	}

	if r.Chooser == nil {
		return "", errors.UserDirNotFound(path, fmt.Sprintf("found %d user directories; pass one with --steam-userdata", len(users))).
			WithDetail("users", len(users))
	}

	choice, err := r.Chooser.Choose(users)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeUserDirNotFound, "failed to select user directory").
			WithStep(errors.StepResolve)
	}
	r.Logger.WithFields(logrus.Fields{"dir": choice.Dir, "persona": choice.PersonaName}).Debug("Selected Steam user directory")
	return choice.Dir, nil
}

// ListUsers returns the account directories under a userdata directory,
// sorted by path, with their persona names.
func ListUsers(fs afero.Fs, userdataDir string) ([]User, error) {
	entries, err := afero.ReadDir(fs, userdataDir)
	if err != nil {
		return nil, errors.IOError("read Steam user dir", userdataDir, err).
			WithStep(errors.StepResolve)
	}

	var users []User
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(userdataDir, entry.Name())
		users = append(users, User{
			Dir:         dir,
			ID:          entry.Name(),
			PersonaName: PersonaName(fs, dir),
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Dir < users[j].Dir })
	return users, nil
}

// PersonaName reads the display name from config/localconfig.vdf. Exactly one
// line may mention PersonaName; the name is its fourth quote-separated field.
func PersonaName(fs afero.Fs, userDir string) string {
	f, err := fs.Open(filepath.Join(userDir, "config", "localconfig.vdf"))
	if err != nil {
		return UnknownPersona
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); strings.Contains(line, personaKey) {
			lines = append(lines, line)
		}
	}
	if scanner.Err() != nil || len(lines) != 1 {
		return UnknownPersona
	}

	fields := strings.Split(strings.TrimSpace(lines[0]), `"`)
	if len(fields) < 4 {
		return UnknownPersona
	}
	return fields[3]
}
