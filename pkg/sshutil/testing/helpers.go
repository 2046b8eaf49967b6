package testing

import "os"

// WithFiles pre-populates the mock filesystem with 0600 files.
// Keys are paths, values are file contents.
func WithFiles(fs *MockFS, files map[string]string) {
	for p, content := range files {
		fs.WriteFile(p, []byte(content), 0600)
	}
}

// WithDirs pre-populates the mock filesystem with 0755 directories.
func WithDirs(fs *MockFS, dirs []string) {
	for _, dir := range dirs {
		fs.MkdirAll(dir, os.FileMode(0755))
	}
}
