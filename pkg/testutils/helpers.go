package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SystemBindings is a trimmed copy of a LyX system bind file.
const SystemBindings = `# file math.bind
Format 5

\bind_file cua

\bind "M-m e"		"math-insert \epsilon"
\bind "M-m d"		"math-insert \delta"
\bind "M-m f"		"math-insert \frac"
\bind "C-m"		"math-mode"
\bind "~S-a"		"self-insert a"
\unbind "C-q"		"quote-insert"
`

// UserBindings overrides and extends SystemBindings.
const UserBindings = `\bind "M-m S-D"	"math-insert \Delta"
\bind "C-S-e"		"math-insert \varepsilon"
`

// CreateTestFilesWithContent creates test files with specific content.
// Names may contain subdirectories.
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CreateBindingDirs lays out root/system/math.bind and root/user/user.bind
// with the sample bindings and returns both directories.
func CreateBindingDirs(t *testing.T, root string) (systemDir, userDir string) {
	t.Helper()
	systemDir = filepath.Join(root, "system")
	userDir = filepath.Join(root, "user")
	CreateTestFilesWithContent(t, systemDir, map[string]string{"math.bind": SystemBindings})
	CreateTestFilesWithContent(t, userDir, map[string]string{"user.bind": UserBindings})
	return systemDir, userDir
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
