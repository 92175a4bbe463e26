package shortcuts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/internal/vdf"
	"github.com/spf13/afero"
)

const defaultFileMode os.FileMode = 0644

// Decode parses a shortcuts.vdf document. An empty input is an empty store.
func Decode(data []byte) (Store, error) {
	if len(data) == 0 {
		return Store{}, nil
	}

	nodes, err := vdf.Decode(data)
	if err != nil {
		return nil, err
	}

	var root *vdf.Node
	for _, n := range nodes {
		if strings.EqualFold(n.Key, rootKey) {
			root = n
			break
		}
	}
	if root == nil {
		return nil, errors.FormatError(0, "missing \"shortcuts\" root")
	}
	if root.Type != vdf.TypeMap {
		return nil, errors.FormatError(root.Offset, "\"shortcuts\" root is not a map")
	}

	store := make(Store, 0, len(root.Children))
	for _, entry := range root.Children {
		s, err := fromNode(entry)
		if err != nil {
			return nil, err
		}
		store = append(store, s)
	}
	return store, nil
}

// Encode serializes the store. Entries are re-keyed by position.
func Encode(store Store) ([]byte, error) {
	root := vdf.NewMap(rootKey)
	for i, s := range store {
		n, err := s.toNode(i)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, n)
	}

	data, err := vdf.Encode([]*vdf.Node{root})
	if err != nil {
		if errors.GetStep(err) == "" {
			if syncErr, ok := errors.As(err); ok {
				syncErr.WithStep(errors.StepWrite)
			}
		}
		return nil, err
	}
	return data, nil
}

// Load reads the store at path. A missing file yields an empty store and
// existed=false.
func Load(fs afero.Fs, path string) (store Store, existed bool, err error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, false, nil
		}
		return nil, false, errors.IOError("read", path, err).WithStep(errors.StepLoad)
	}

	store, err = Decode(data)
	if err != nil {
		if syncErr, ok := errors.As(err); ok {
			syncErr.WithDetail("path", path)
		}
		return nil, true, err
	}
	return store, true, nil
}

// Save encodes the store and replaces the file at path, creating the parent
// directory when needed. The file is written to a temporary sibling first and
// renamed into place.
func Save(fs afero.Fs, path string, store Store) error {
	data, err := Encode(store)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.IOError("create directory", dir, err).WithStep(errors.StepWrite)
	}

	mode := defaultFileMode
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fs, dir, ".shortcuts-*.vdf.tmp")
	if err != nil {
		return errors.IOError("create temporary file in", dir, err).WithStep(errors.StepWrite)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return errors.IOError("write", tmpName, err).WithStep(errors.StepWrite)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return errors.IOError("close", tmpName, err).WithStep(errors.StepWrite)
	}
	if err := fs.Chmod(tmpName, mode); err != nil {
		fs.Remove(tmpName)
		return errors.IOError("set permissions on", tmpName, err).WithStep(errors.StepWrite)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return errors.IOError("replace", path, fmt.Errorf("rename %s: %w", tmpName, err)).WithStep(errors.StepWrite)
	}
	return nil
}
