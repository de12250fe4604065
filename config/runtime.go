package config

import "sync"

// runtimeState holds the two runtime-mutable globals: the default
// download path and the default filename template. They are loaded once
// at startup (persisted value, falling back to the config file) and
// changed only through the boundary config operations, which call the
// setters here after persisting.
type runtimeState struct {
	mu               sync.RWMutex
	downloadPath     string
	filenameTemplate string
}

var runtime runtimeState

// LoadRuntime seeds the runtime defaults. Called exactly once during
// startup, before the scheduler or matcher run.
func LoadRuntime(downloadPath, filenameTemplate string) {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	runtime.downloadPath = downloadPath
	runtime.filenameTemplate = filenameTemplate
}

func DefaultDownloadPath() string {
	runtime.mu.RLock()
	defer runtime.mu.RUnlock()
	return runtime.downloadPath
}

func SetDefaultDownloadPath(path string) {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	runtime.downloadPath = path
}

func DefaultFilenameTemplate() string {
	runtime.mu.RLock()
	defer runtime.mu.RUnlock()
	return runtime.filenameTemplate
}

func SetDefaultFilenameTemplate(template string) {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	runtime.filenameTemplate = template
}
