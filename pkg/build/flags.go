// SPDX-License-Identifier: MIT
//
// Package build exposes metadata stamped into the binary with -ldflags:
//
//	go build -ldflags "-X tonecoach/pkg/build.buildName=tonecoach \
//	  -X tonecoach/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds carry no flags; Initialize reports what is missing and
// the "dev" defaults remain in place.
package build

import (
	"errors"
	"fmt"
)

// Info is the build metadata shown by --version.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the one-line version banner.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:        "tonecoach",
		Description: "Thai tone pronunciation coach",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the ldflags variables into the build info. Every missing
// flag is reported; fields whose flag is set are copied regardless.
func Initialize() error {
	var errs []error
	set := func(dst *string, src, flag string) {
		if src == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = src
	}

	set(&buildInfo.Name, buildName, "BuildName")
	set(&buildInfo.Time, buildTime, "BuildTime")
	set(&buildInfo.Commit, buildCommit, "BuildCommit")
	set(&buildInfo.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildInfo
}
