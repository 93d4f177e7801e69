package brand

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
)

// profilesFile is the TOML shape of a brand profiles file:
//
//	[[profiles]]
//	name = "acme"
//	keywords = ["acme"]
//	patterns = ['acme\s*corp']
//
//	[profiles.colors]
//	primary = ["#FF4F00"]
//	secondary = ["#FFFFFF"]
//	accent = []
type profilesFile struct {
	Profiles []Profile `toml:"profiles"`
}

// LoadFile reads brand profiles from a TOML file.
func LoadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "brand profiles file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "read brand profiles %s", path)
	}

	var f profilesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "parse brand profiles %s", path)
	}
	return f.Profiles, nil
}

// LoadRegistry builds a registry from the builtin profiles plus an optional
// TOML profiles file. File profiles are appended after the builtins, so the
// builtin tie-break order is preserved and custom profiles extend it.
func LoadRegistry(path string) (*Registry, error) {
	profiles := builtinProfiles()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, extra...)
	}
	return NewRegistry(profiles...)
}
