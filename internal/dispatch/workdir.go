// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"crypto/md5"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// DeriveName builds the working-directory name for a run. The name is unique
// per program, user, and base-input combination, with an optional suffix to
// separate simultaneous runs sharing all three:
//
//	_<prog>_<user>_<hash8>_<suffix>
//
// hash8 is the first 8 hex chars of the md5 of the base-input values, so reruns
// with the same inputs land in the same directory and can reuse cached step
// outputs, while different inputs never collide.
func DeriveName(prog string, baseInputs []string, suffix string) string {
	sum := md5.Sum([]byte(strings.Join(baseInputs, "\x00")))
	return fmt.Sprintf("_%s_%s_%x_%s", prog, userName(), sum[:4], suffix)
}

func userName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// CommonParent returns the closest common ancestor directory of the given
// paths. When the shared string prefix is itself an existing directory and
// every path continues below it with a separator, that prefix is the answer;
// otherwise the prefix is cut back to its parent directory.
func CommonParent(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	prefix := paths[0]
	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}

	if info, err := os.Stat(prefix); err == nil && info.IsDir() {
		all := true
		for _, p := range paths {
			if len(p) <= len(prefix) || p[len(prefix)] != os.PathSeparator {
				all = false
				break
			}
		}
		if all {
			return prefix
		}
	}
	return filepath.Dir(prefix)
}

// ResolveWorkDir determines the working directory for one invocation.
// An explicit override wins and is marked non-derived (exempt from cleanup).
// Otherwise the directory name is derived and placed under root, falling back
// to destDir when no root is configured.
func ResolveWorkDir(explicit, root, destDir, prog string, baseInputs []string, suffix string) (workDir string, derived bool) {
	if explicit != "" {
		return explicit, false
	}
	base := root
	if base == "" {
		base = destDir
	}
	return filepath.Join(base, DeriveName(prog, baseInputs, suffix)), true
}

// ResolveDestDir determines the destination directory: the explicit flag
// value, else the common parent of the configured destination paths, else the
// current working directory.
func ResolveDestDir(explicit string, destPaths []string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if len(destPaths) > 0 {
		abs := make([]string, 0, len(destPaths))
		for _, p := range destPaths {
			a, err := filepath.Abs(p)
			if err != nil {
				return "", err
			}
			abs = append(abs, a)
		}
		if parent := CommonParent(abs); parent != "" {
			return parent, nil
		}
	}
	return os.Getwd()
}
