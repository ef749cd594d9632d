package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

const updateRepo = "Fepozopo/milk"

// githubRelease is the subset of the GitHub releases API we read.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// fetchReleases lists the releases of repo via the GitHub API.
func fetchReleases(repo string) ([]githubRelease, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/releases", repo)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to decode github releases: %w", err)
	}
	return releases, nil
}

// releaseVersion finds a semver in the tag, falling back to the release name.
func releaseVersion(r githubRelease) (semver.Version, bool) {
	for _, s := range []string{r.TagName, r.Name} {
		match := semverRe.FindString(s)
		if match == "" {
			continue
		}
		if v, err := semver.ParseTolerant(match); err == nil {
			return v, true
		}
	}
	return semver.Version{}, false
}

// pickAsset prefers an asset built for goos/goarch, then any asset naming
// goos, then the first asset.
func pickAsset(r githubRelease, goos, goarch string) string {
	best, score := "", -1
	for _, a := range r.Assets {
		name := strings.ToLower(a.Name)
		s := 0
		if strings.Contains(name, goos) {
			s++
			if strings.Contains(name, goarch) {
				s++
			}
		}
		if s > score {
			best, score = a.BrowserDownloadURL, s
		}
	}
	return best
}

// pickLatestRelease returns the highest published, non-prerelease version.
func pickLatestRelease(releases []githubRelease, goos, goarch string) (*selfupdate.Release, bool) {
	type candidate struct {
		ver semver.Version
		rel githubRelease
	}
	var candidates []candidate
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		v, ok := releaseVersion(r)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{ver: v, rel: r})
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ver.GT(candidates[j].ver)
	})
	best := candidates[0]
	return &selfupdate.Release{
		Version:  best.ver,
		AssetURL: pickAsset(best.rel, goos, goarch),
		URL:      best.rel.HTMLURL,
		Name:     best.rel.Name,
	}, true
}

// CheckForUpdates compares Version with the latest GitHub release and, after
// confirmation, replaces the running binary and restarts it.
func CheckForUpdates() error {
	fmt.Printf("Current version: %s\n", Version)
	releases, err := fetchReleases(updateRepo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	latest, found := pickLatestRelease(releases, runtime.GOOS, runtime.GOARCH)
	if !found {
		fmt.Printf("No releases found for %s.\n", updateRepo)
		return nil
	}
	fmt.Printf("Latest version: %s\n", latest.Version)

	currentVer, parseErr := semver.ParseTolerant(Version)
	if parseErr != nil {
		fmt.Printf("warning: could not parse current version %q: %v\n", Version, parseErr)
	} else if latest.Version.LTE(currentVer) {
		fmt.Printf("You are already running the latest version: %s.\n", currentVer)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Printf("A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		if latest.URL != "" {
			fmt.Printf("Download it from %s\n", latest.URL)
		}
		return nil
	}

	answer, perr := PromptLine(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if perr != nil {
		return fmt.Errorf("failed reading input: %w", perr)
	}
	answer = strings.ToLower(answer)
	if answer != "y" && answer != "yes" {
		fmt.Println("Update cancelled.")
		return nil
	}

	fmt.Println("Updating...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	// Exec only returns on error; fall back to starting the new binary as a child.
	argv := append([]string{exe}, os.Args[1:]...)
	if err := syscall.Exec(exe, argv, os.Environ()); err != nil {
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if startErr := cmd.Start(); startErr != nil {
			fmt.Printf("Updated to version %s, but failed to restart automatically: %v\n", latest.Version, startErr)
			fmt.Println("Please restart the application manually.")
			return nil
		}
		os.Exit(0)
	}
	return nil
}
