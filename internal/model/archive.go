// Package model holds records shared by the manifest store, the downloader
// and the CLI.
package model

import "time"

// Archive describes one downloaded source archive.
type Archive struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Month        string    `json:"month,omitempty"`
	Year         string    `json:"year,omitempty"`
	Bytes        int64     `json:"bytes"`
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// BuildSource says which tier produced a region dataset.
type BuildSource string

const (
	BuildSourceParse BuildSource = "parse"
	BuildSourceDisk  BuildSource = "disk"
)

// Build records one region dataset build or cache load.
type Build struct {
	ID           string            `json:"id"`
	Region       string            `json:"region"`
	Source       BuildSource       `json:"source"`
	Rows         int               `json:"rows"`
	Skipped      int               `json:"skipped"`
	Archives     int               `json:"archives"`
	FailedFields map[string]string `json:"failed_fields,omitempty"`
	BuiltAt      time.Time         `json:"built_at"`
}
