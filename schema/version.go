package schema

import (
	"encoding/json"
	"sort"
)

// LatestProtocolVersion is the newest protocol revision this client speaks;
// it is the version offered on the first initialize attempt.
const LatestProtocolVersion = "2025-06-18"

// SupportedProtocolVersions lists every revision the client can speak,
// newest first. Revisions are date coded, so string comparison orders them.
var SupportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// IsSupportedProtocolVersion reports whether the client speaks version.
func IsSupportedProtocolVersion(version string) bool {
	for _, candidate := range SupportedProtocolVersions {
		if candidate == version {
			return true
		}
	}
	return false
}

// HighestCommonVersion returns the newest version present in both the
// client's supported set and the server's declared set, or "" when the sets
// are disjoint.
func HighestCommonVersion(serverVersions []string) string {
	ours := make(map[string]bool, len(SupportedProtocolVersions))
	for _, v := range SupportedProtocolVersions {
		ours[v] = true
	}
	var common []string
	for _, v := range serverVersions {
		if ours[v] {
			common = append(common, v)
		}
	}
	if len(common) == 0 {
		return ""
	}
	sort.Strings(common)
	return common[len(common)-1]
}

// ParseSupportedVersions extracts a server's declared version set from the
// data field of an initialize error. Servers emit either a bare array of
// version strings or an object with a "supported" member.
func ParseSupportedVersions(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var versions []string
	if err := json.Unmarshal(data, &versions); err == nil {
		return versions
	}
	var wrapped struct {
		Supported []string `json:"supported"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return wrapped.Supported
	}
	return nil
}
