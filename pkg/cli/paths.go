package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the per-user dot directory (~/.<app>).
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// AppDir returns the app directory (~/.<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.HomeDir, "."+p.AppName)
}
