package profile

import "testing"

func TestValidateName(t *testing.T) {
	valid := []string{"main", "work", "a", "my-profile", "under_score", "abc123"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "UPPER", "has space", "dot.name", "slash/name", "ünïcode"}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}

func TestPathsAreUnderProfileDir(t *testing.T) {
	dir := Dir("main")
	for _, p := range []string{LockPath("main"), DBPath("main"), LogPath("main"), ProfileConfigPath("main")} {
		if len(p) <= len(dir) || p[:len(dir)] != dir {
			t.Errorf("path %q is not under profile dir %q", p, dir)
		}
	}
}
