// Package api is the REST client for the update authority. Every response
// type owns its own UnmarshalJSON so that snake_case, camelCase, and legacy
// field spellings are folded into one canonical shape at the transport
// boundary instead of at each call site.
package api

import "encoding/json"

// UpdateCheckResult is the normalized answer to a version check.
type UpdateCheckResult struct {
	UpdateAvailable bool
	LatestVersion   string
	Changelog       string
	ForceUpdate     bool
	DownloadURL     string
}

func (r *UpdateCheckResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		UpdateAvailableSnake *bool  `json:"update_available"`
		UpdateAvailableCamel *bool  `json:"updateAvailable"`
		LatestVersionSnake   string `json:"latest_version"`
		LatestVersionCamel   string `json:"latestVersion"`
		Changelog            string `json:"changelog"`
		ChangelogSnake       string `json:"change_log"`
		ForceUpdateSnake     *bool  `json:"force_update"`
		ForceUpdateCamel     *bool  `json:"forceUpdate"`
		DownloadURLSnake     string `json:"download_url"`
		DownloadURLCamel     string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.UpdateAvailable = firstBool(false, raw.UpdateAvailableSnake, raw.UpdateAvailableCamel)
	r.LatestVersion = firstString(raw.LatestVersionSnake, raw.LatestVersionCamel)
	r.Changelog = firstString(raw.Changelog, raw.ChangelogSnake)
	r.ForceUpdate = firstBool(false, raw.ForceUpdateSnake, raw.ForceUpdateCamel)
	r.DownloadURL = firstString(raw.DownloadURLSnake, raw.DownloadURLCamel)
	return nil
}

// FileDescriptor describes one file in a manifest or delta changeset.
// Path is relative to the install root; Hash is the expected SHA-256 hex
// digest of the file's bytes after transfer.
type FileDescriptor struct {
	Path            string
	Hash            string
	Size            uint64
	IsScript        bool
	IsConfig        bool
	RequiresRestart bool
}

func (f *FileDescriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path                 string `json:"path"`
		FilePathSnake        string `json:"file_path"`
		FilePathCamel        string `json:"filePath"`
		Hash                 string `json:"hash"`
		Checksum             string `json:"checksum"`
		Size                 uint64 `json:"size"`
		IsScriptSnake        *bool  `json:"is_script"`
		IsScriptCamel        *bool  `json:"isScript"`
		IsConfigSnake        *bool  `json:"is_config"`
		IsConfigCamel        *bool  `json:"isConfig"`
		RequiresRestartSnake *bool  `json:"requires_restart"`
		RequiresRestartCamel *bool  `json:"requiresRestart"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Path = firstString(raw.Path, raw.FilePathSnake, raw.FilePathCamel)
	f.Hash = firstString(raw.Hash, raw.Checksum)
	f.Size = raw.Size
	f.IsScript = firstBool(false, raw.IsScriptSnake, raw.IsScriptCamel)
	f.IsConfig = firstBool(false, raw.IsConfigSnake, raw.IsConfigCamel)
	f.RequiresRestart = firstBool(false, raw.RequiresRestartSnake, raw.RequiresRestartCamel)
	return nil
}

// VersionInfo is a complete version manifest.
type VersionInfo struct {
	Version     string
	ReleaseDate string
	Files       []FileDescriptor
	Changelog   string
	ForceUpdate bool
}

func (v *VersionInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version          string           `json:"version"`
		ReleaseDateSnake string           `json:"release_date"`
		ReleaseDateCamel string           `json:"releaseDate"`
		Files            []FileDescriptor `json:"files"`
		Changelog        string           `json:"changelog"`
		ChangelogSnake   string           `json:"change_log"`
		ForceUpdateSnake *bool            `json:"force_update"`
		ForceUpdateCamel *bool            `json:"forceUpdate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Version = raw.Version
	v.ReleaseDate = firstString(raw.ReleaseDateSnake, raw.ReleaseDateCamel)
	v.Files = raw.Files
	v.Changelog = firstString(raw.Changelog, raw.ChangelogSnake)
	v.ForceUpdate = firstBool(false, raw.ForceUpdateSnake, raw.ForceUpdateCamel)
	return nil
}

// Delta plan modes reported by the authority.
const (
	PlanModeDelta        = "delta"
	PlanModeFullDownload = "full_download"
)

// DeltaPatch is a changeset transforming FromVersion into ToVersion.
// DeltaAvailable defaults to true when the authority omits the field;
// Mode may instead mark the plan as a full download.
type DeltaPatch struct {
	FromVersion    string
	ToVersion      string
	Added          map[string]FileDescriptor
	Modified       map[string]FileDescriptor
	Removed        []string
	CreatedAt      string
	Mode           string
	DeltaAvailable bool
}

func (p *DeltaPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		FromVersionSnake    string                    `json:"from_version"`
		FromVersionCamel    string                    `json:"fromVersion"`
		From                string                    `json:"from"`
		ToVersionSnake      string                    `json:"to_version"`
		ToVersionCamel      string                    `json:"toVersion"`
		To                  string                    `json:"to"`
		Added               map[string]FileDescriptor `json:"added"`
		Modified            map[string]FileDescriptor `json:"modified"`
		Removed             []string                  `json:"removed"`
		CreatedAtSnake      string                    `json:"created_at"`
		CreatedAtCamel      string                    `json:"createdAt"`
		Mode                string                    `json:"mode"`
		Plan                string                    `json:"plan"`
		DeltaAvailableSnake *bool                     `json:"delta_available"`
		DeltaAvailableCamel *bool                     `json:"deltaAvailable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.FromVersion = firstString(raw.FromVersionSnake, raw.FromVersionCamel, raw.From)
	p.ToVersion = firstString(raw.ToVersionSnake, raw.ToVersionCamel, raw.To)
	p.Added = raw.Added
	p.Modified = raw.Modified
	p.Removed = raw.Removed
	p.CreatedAt = firstString(raw.CreatedAtSnake, raw.CreatedAtCamel)
	p.Mode = firstString(raw.Mode, raw.Plan)
	// Absent delta_available means the delta is usable.
	p.DeltaAvailable = firstBool(true, raw.DeltaAvailableSnake, raw.DeltaAvailableCamel)
	return nil
}

// IsFullDownload reports whether the authority wants the client to skip
// incremental patching and fetch the complete version instead.
func (p *DeltaPatch) IsFullDownload() bool {
	return p.Mode == PlanModeFullDownload || !p.DeltaAvailable
}

func firstString(candidates ...string) string {
	for _, s := range candidates {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstBool(def bool, candidates ...*bool) bool {
	for _, b := range candidates {
		if b != nil {
			return *b
		}
	}
	return def
}
