// Package types provides type-safe constants shared across the updater,
// replacing magic strings with typed values that carry their own validation.
package types

import (
	"fmt"
	"path"
	"strings"
)

// ClientType identifies the launcher flavor to the update authority.
type ClientType string

const (
	// ClientTypeLauncher is the full desktop launcher.
	ClientTypeLauncher ClientType = "launcher"
	// ClientTypeEditor is the in-editor tooling client.
	ClientTypeEditor ClientType = "editor"
	// ClientTypeHeadless is a CI or server-side client.
	ClientTypeHeadless ClientType = "headless"
)

// AllClientTypes returns all valid client types.
func AllClientTypes() []ClientType {
	return []ClientType{ClientTypeLauncher, ClientTypeEditor, ClientTypeHeadless}
}

// Validate checks if the ClientType is a valid value.
func (c ClientType) Validate() error {
	switch c {
	case ClientTypeLauncher, ClientTypeEditor, ClientTypeHeadless:
		return nil
	case "":
		return fmt.Errorf("client type is required")
	default:
		return fmt.Errorf("invalid client type '%s' (must be launcher, editor, or headless)", c)
	}
}

// String returns the string representation of the ClientType.
func (c ClientType) String() string {
	return string(c)
}

// FileKind classifies a file by what a live edit to it should trigger.
type FileKind int

const (
	// FileKindOther needs no reload action.
	FileKindOther FileKind = iota
	// FileKindScript is re-evaluated by the host runtime in place.
	FileKindScript
	// FileKindConfig raises a reload notification for the UI layer.
	FileKindConfig
)

var scriptExtensions = map[string]bool{
	".lua": true,
	".js":  true,
	".py":  true,
}

var configExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".ini":  true,
	".cfg":  true,
}

// KindForPath classifies a file path by extension.
func KindForPath(p string) FileKind {
	ext := strings.ToLower(path.Ext(p))
	switch {
	case scriptExtensions[ext]:
		return FileKindScript
	case configExtensions[ext]:
		return FileKindConfig
	default:
		return FileKindOther
	}
}

// String returns a human-readable kind name.
func (k FileKind) String() string {
	switch k {
	case FileKindScript:
		return "script"
	case FileKindConfig:
		return "config"
	default:
		return "other"
	}
}
