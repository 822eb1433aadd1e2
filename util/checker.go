package util

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fitfinder/fitfinder/config"
	"github.com/google/go-github/v63/github"
	"golang.org/x/mod/semver"
)

// CheckForUpdatesResult holds the outcome of the update check.
type CheckForUpdatesResult struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
	ReleaseNotes    string
}

// CheckForUpdates polls GitHub for the latest stable release and compares it
// with config.AppVersion. A nil client uses http.DefaultClient. Builds
// without a semantic version never report an update.
func CheckForUpdates(ctx context.Context, client *http.Client) (*CheckForUpdatesResult, error) {
	gh := github.NewClient(client)

	release, _, err := gh.Repositories.GetLatestRelease(ctx, config.GitHubOwner, config.GitHubRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest GitHub release: %w", err)
	}

	current := withV(config.AppVersion)
	latest := withV(release.GetTagName())

	result := &CheckForUpdatesResult{
		CurrentVersion: current,
		LatestVersion:  latest,
		ReleaseURL:     release.GetHTMLURL(),
		ReleaseNotes:   release.GetBody(),
	}

	if semver.IsValid(current) && semver.Compare(latest, current) > 0 {
		result.UpdateAvailable = true
	}

	return result, nil
}

func withV(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
