package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

// versionConfig holds parsed version command configuration
type versionConfig struct {
	format string
}

// versionInfo is reported by the version command
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

// Build info keys stamped by the go command
const (
	buildInfoDevel       = "(devel)"
	buildSettingRevision = "vcs.revision"
	buildSettingTime     = "vcs.time"
)

// versionFileSearchPaths are tried in order; the first readable file wins
var versionFileSearchPaths = []string{"versions.yaml", "../versions.yaml", "../../versions.yaml"}

func runVersion(args []string, _ io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseVersionFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFormat, err)
		return ExitCodeUsageError
	}

	vInfo := getVersionInfo(versionFileSearchPaths)

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(vInfo, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
		return ExitCodeSuccess
	}

	fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline,
		vInfo.Version, vInfo.Commit, vInfo.Branch, vInfo.BuildTime, vInfo.GoVersion)
	return ExitCodeSuccess
}

func parseVersionFlags(args []string) (*versionConfig, error) {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &versionConfig{}
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// getVersionInfo starts from the binary's embedded build info and lets
// the first readable versions file in paths override it.
func getVersionInfo(paths []string) *versionInfo {
	info := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if v := bi.Main.Version; v != buildInfoDevel {
			setIfPresent(&info.Version, v)
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case buildSettingRevision:
				setIfPresent(&info.Commit, setting.Value)
			case buildSettingTime:
				setIfPresent(&info.BuildTime, setting.Value)
			}
		}
	}

	vy, ok := readVersionsFile(paths)
	if !ok {
		return info
	}
	setIfPresent(&info.Version, vy.Project.Version)
	setIfPresent(&info.Commit, vy.Git.Commit)
	setIfPresent(&info.Branch, vy.Git.Branch)
	setIfPresent(&info.BuildTime, vy.Build.Time)
	setIfPresent(&info.GoVersion, vy.Build.GoVersion)
	return info
}

func readVersionsFile(paths []string) (*versionsYAML, bool) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}
		return &vy, true
	}
	return nil, false
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
