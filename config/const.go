package config

import "strings"

// AppVersion is the version of the application.
var AppVersion string // Set with -ldflags "-X github.com/fitfinder/fitfinder/config.AppVersion=..."

// AppName is the name of the application.
const AppName = "FitFinder"

// AppID is the unique Fyne application ID.
const AppID = "io.github.fitfinder." + AppName

// WinSubDir is the app directory under the user config directory on windows.
var WinSubDir = AppName

// SubDir is the app directory under the user home directory elsewhere.
var SubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// Repository the update checker looks for releases in.
const (
	GitHubOwner = "fitfinder"
	GitHubRepo  = "fitfinder"
)
