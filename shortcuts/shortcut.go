// Package shortcuts decodes and encodes Steam's non-Steam game store
// (userdata/<id>/config/shortcuts.vdf).
//
// Records decoded from disk remember the node they came from. Encoding such a
// record only rewrites values that differ from what was read, so entries this
// tool does not touch are written back byte for byte, including keys and value
// types it does not know about.
package shortcuts

import (
	"fmt"
	"hash/crc32"
	"slices"
	"unicode/utf8"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/internal/vdf"
)

const (
	rootKey = "shortcuts"
	tagsKey = "tags"
)

// Shortcut is one entry in the store.
type Shortcut struct {
	AppID               uint32   `json:"appid"`
	AppName             string   `json:"app_name"`
	Exe                 string   `json:"exe"`
	StartDir            string   `json:"start_dir"`
	Icon                string   `json:"icon"`
	ShortcutPath        string   `json:"shortcut_path"`
	LaunchOptions       string   `json:"launch_options"`
	IsHidden            bool     `json:"is_hidden"`
	AllowDesktopConfig  bool     `json:"allow_desktop_config"`
	AllowOverlay        bool     `json:"allow_overlay"`
	OpenVR              bool     `json:"openvr"`
	Devkit              bool     `json:"devkit"`
	DevkitGameID        string   `json:"devkit_game_id"`
	DevkitOverrideAppID uint32   `json:"devkit_override_app_id"`
	LastPlayTime        uint32   `json:"last_play_time"`
	FlatpakAppID        string   `json:"flatpak_app_id"`
	Tags                []string `json:"tags"`

	source *vdf.Node
}

// Store is the ordered list of shortcuts. Order is Steam's display order.
type Store []Shortcut

// New returns a shortcut with Steam's defaults for a freshly added entry.
func New(appName, exe, icon, launchOptions string) Shortcut {
	return Shortcut{
		AppName:            appName,
		Exe:                exe,
		Icon:               icon,
		LaunchOptions:      launchOptions,
		AllowDesktopConfig: true,
		AllowOverlay:       true,
	}
}

// AppIDFor computes the id Steam assigns to a non-Steam shortcut.
func AppIDFor(exe, appName string) uint32 {
	return crc32.ChecksumIEEE([]byte(exe+appName)) | 0x80000000
}

// HasTag reports whether tag is in the shortcut's tag list.
func (s *Shortcut) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Decoded reports whether the shortcut was read from a store.
func (s *Shortcut) Decoded() bool {
	return s.source != nil
}

// field binds a store key to exactly one of the typed struct fields.
type field struct {
	key  string
	str  *string
	flag *bool
	u32  *uint32
}

// fields lists the known keys in the order Steam writes them.
func (s *Shortcut) fields() []field {
	return []field{
		{key: "appid", u32: &s.AppID},
		{key: "AppName", str: &s.AppName},
		{key: "Exe", str: &s.Exe},
		{key: "StartDir", str: &s.StartDir},
		{key: "icon", str: &s.Icon},
		{key: "ShortcutPath", str: &s.ShortcutPath},
		{key: "LaunchOptions", str: &s.LaunchOptions},
		{key: "IsHidden", flag: &s.IsHidden},
		{key: "AllowDesktopConfig", flag: &s.AllowDesktopConfig},
		{key: "AllowOverlay", flag: &s.AllowOverlay},
		{key: "OpenVR", flag: &s.OpenVR},
		{key: "Devkit", flag: &s.Devkit},
		{key: "DevkitGameID", str: &s.DevkitGameID},
		{key: "DevkitOverrideAppID", u32: &s.DevkitOverrideAppID},
		{key: "LastPlayTime", u32: &s.LastPlayTime},
		{key: "FlatpakAppID", str: &s.FlatpakAppID},
	}
}

func (f field) read(n *vdf.Node) error {
	switch {
	case f.str != nil:
		if n.Type != vdf.TypeString {
			return errors.FormatError(n.Offset, fmt.Sprintf("%q must be a string", n.Key))
		}
		*f.str = n.Value
	case f.flag != nil:
		if n.Type != vdf.TypeInt32 {
			return errors.FormatError(n.Offset, fmt.Sprintf("%q must be an int32", n.Key))
		}
		*f.flag = n.Bits != 0
	case f.u32 != nil:
		if n.Type != vdf.TypeInt32 {
			return errors.FormatError(n.Offset, fmt.Sprintf("%q must be an int32", n.Key))
		}
		*f.u32 = n.Uint32()
	}
	return nil
}

// matches reports whether n already holds the field's value.
func (f field) matches(n *vdf.Node) bool {
	switch {
	case f.str != nil:
		return n.Type == vdf.TypeString && n.Value == *f.str
	case f.flag != nil:
		return n.Type == vdf.TypeInt32 && (n.Bits != 0) == *f.flag
	default:
		return n.Type == vdf.TypeInt32 && n.Uint32() == *f.u32
	}
}

func (f field) isZero() bool {
	switch {
	case f.str != nil:
		return *f.str == ""
	case f.flag != nil:
		return !*f.flag
	default:
		return *f.u32 == 0
	}
}

func (f field) node() (*vdf.Node, error) {
	switch {
	case f.str != nil:
		if !utf8.ValidString(*f.str) {
			return nil, errors.New(errors.ErrCodeIO, fmt.Sprintf("%s is not valid UTF-8 and cannot be stored", f.key)).
				WithDetail("field", f.key).
				WithStep(errors.StepWrite)
		}
		return vdf.NewString(f.key, *f.str), nil
	case f.flag != nil:
		var v uint32
		if *f.flag {
			v = 1
		}
		return vdf.NewInt32(f.key, v), nil
	default:
		return vdf.NewInt32(f.key, *f.u32), nil
	}
}

func fromNode(n *vdf.Node) (Shortcut, error) {
	var s Shortcut
	if n.Type != vdf.TypeMap {
		return s, errors.FormatError(n.Offset, fmt.Sprintf("shortcut entry %q is not a map", n.Key))
	}

	for _, f := range s.fields() {
		if child := n.Child(f.key); child != nil {
			if err := f.read(child); err != nil {
				return s, err
			}
		}
	}

	if tags := n.Child(tagsKey); tags != nil {
		if tags.Type != vdf.TypeMap {
			return s, errors.FormatError(tags.Offset, "tags must be a map")
		}
		for _, tag := range tags.Children {
			if tag.Type != vdf.TypeString {
				return s, errors.FormatError(tag.Offset, "tag values must be strings")
			}
			s.Tags = append(s.Tags, tag.Value)
		}
	}

	s.source = n
	return s, nil
}

// toNode renders the shortcut as the index-th entry of the store.
func (s Shortcut) toNode(index int) (*vdf.Node, error) {
	key := fmt.Sprintf("%d", index)

	if s.source == nil {
		if s.AppID == 0 {
			s.AppID = AppIDFor(s.Exe, s.AppName)
		}
		n := vdf.NewMap(key)
		for _, f := range s.fields() {
			child, err := f.node()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		tags, err := tagsNode(s.Tags)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, tags)
		return n, nil
	}

	n := s.source.Clone()
	n.Key = key
	for _, f := range s.fields() {
		child := n.Child(f.key)
		if child != nil && f.matches(child) {
			continue
		}
		if child == nil && f.isZero() {
			continue
		}
		replacement, err := f.node()
		if err != nil {
			return nil, err
		}
		if child != nil {
			replacement.Key = child.Key
			*child = *replacement
			continue
		}
		insertBeforeTags(n, replacement)
	}

	existing := n.Child(tagsKey)
	if existing != nil && slices.Equal(tagValues(existing), s.Tags) {
		return n, nil
	}
	if existing == nil && len(s.Tags) == 0 {
		return n, nil
	}
	tags, err := tagsNode(s.Tags)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		tags.Key = existing.Key
		*existing = *tags
	} else {
		n.Children = append(n.Children, tags)
	}
	return n, nil
}

func insertBeforeTags(n *vdf.Node, child *vdf.Node) {
	i := n.IndexOf(tagsKey)
	if i < 0 {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = slices.Insert(n.Children, i, child)
}

func tagValues(n *vdf.Node) []string {
	var values []string
	for _, c := range n.Children {
		values = append(values, c.Value)
	}
	return values
}

func tagsNode(tags []string) (*vdf.Node, error) {
	n := vdf.NewMap(tagsKey)
	for i, tag := range tags {
		if !utf8.ValidString(tag) {
			return nil, errors.New(errors.ErrCodeIO, fmt.Sprintf("tag %q is not valid UTF-8 and cannot be stored", tag)).
				WithStep(errors.StepWrite)
		}
		n.Children = append(n.Children, vdf.NewString(fmt.Sprintf("%d", i), tag))
	}
	return n, nil
}
