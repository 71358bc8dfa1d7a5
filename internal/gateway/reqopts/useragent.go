package reqopts

import (
	"strings"

	"github.com/mssola/useragent"
)

// UserAgent is the structured view of a parsed User-Agent header.
type UserAgent struct {
	UA      string      `json:"ua,omitempty"`
	Browser BrowserInfo `json:"browser"`
	Engine  EngineInfo  `json:"engine"`
	OS      OSInfo      `json:"os"`
	CPU     CPUInfo     `json:"cpu"`
}

type BrowserInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Major   string `json:"major,omitempty"`
}

type EngineInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type OSInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type CPUInfo struct {
	Architecture string `json:"architecture,omitempty"`
}

// ParseUserAgent parses a User-Agent string into a best-effort structure.
// It never fails the request: absent or malformed strings yield a partial
// (possibly empty) structure.
func ParseUserAgent(raw string) (parsed UserAgent) {
	if raw == "" {
		return UserAgent{}
	}
	defer func() {
		if r := recover(); r != nil {
			parsed = UserAgent{UA: raw}
		}
	}()

	ua := useragent.New(raw)
	parsed.UA = raw

	name, version := ua.Browser()
	parsed.Browser = BrowserInfo{
		Name:    name,
		Version: version,
		Major:   majorOf(version),
	}
	// mssola misreads Chromium builds (Safari plus the distribution
	// version); the Chromium product token wins when present.
	if chromiumVersion, ok := productVersion(raw, "Chromium/"); ok {
		parsed.Browser = BrowserInfo{
			Name:    "Chromium",
			Version: chromiumVersion,
			Major:   majorOf(chromiumVersion),
		}
	}

	engineName, engineVersion := ua.Engine()
	parsed.Engine = EngineInfo{Name: engineName, Version: engineVersion}

	osInfo := ua.OSInfo()
	parsed.OS = OSInfo{Name: osInfo.Name, Version: osInfo.Version}

	parsed.CPU = CPUInfo{Architecture: cpuArchitecture(raw)}
	return parsed
}

// productVersion extracts the version of a product token like "Chromium/"
// from the raw string.
func productVersion(raw, token string) (string, bool) {
	idx := strings.Index(raw, token)
	if idx < 0 {
		return "", false
	}
	version := raw[idx+len(token):]
	if sp := strings.IndexByte(version, ' '); sp >= 0 {
		version = version[:sp]
	}
	return version, version != ""
}

func majorOf(version string) string {
	if version == "" {
		return ""
	}
	if i := strings.IndexByte(version, '.'); i > 0 {
		return version[:i]
	}
	return version
}

func cpuArchitecture(raw string) string {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "x86_64"), strings.Contains(lowered, "amd64"),
		strings.Contains(lowered, "win64"), strings.Contains(lowered, "wow64"):
		return "amd64"
	case strings.Contains(lowered, "aarch64"), strings.Contains(lowered, "arm64"):
		return "arm64"
	case strings.Contains(lowered, "arm"):
		return "arm"
	case strings.Contains(lowered, "i686"), strings.Contains(lowered, "i386"):
		return "ia32"
	default:
		return ""
	}
}
