package server

import (
	"github.com/matthewsawatzky/filelist/internal/auth"
	"github.com/matthewsawatzky/filelist/internal/listing"
)

type Options struct {
	DataDir  string
	PagesDir string
	Bind     string
	Host     string
	Port     int
	BasePath string
	LogLevel string
	HTTPS    bool
	CertFile string
	KeyFile  string
	Version  string

	// Paths, Extensions and Defaults are the raw configuration values of the
	// same names.
	Paths      string
	Extensions string
	Defaults   string
	Ignores    []string
	// InstallDir is added to the host-controlled jail next to DataDir and
	// PagesDir.
	InstallDir string

	Credentials auth.Credentials
}

type listResponse struct {
	Root    string              `json:"root"`
	Local   string              `json:"local"`
	Web     string              `json:"web"`
	Pattern string              `json:"pattern"`
	Count   int                 `json:"count"`
	Zip     string              `json:"zip"`
	Entries []listing.FileEntry `json:"entries"`
}

type pageLink struct {
	Name string
	URL  string
}
