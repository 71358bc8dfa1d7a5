package reqopts

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restfront-gateway/internal/common/config"
)

const chromiumUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/535.2 " +
	"(KHTML, like Gecko) Ubuntu/11.10 Chromium/15.0.874.106 Chrome/15.0.874.106 Safari/535.2"

func standardTable() Table {
	return TableFromConfig(config.DefaultRequestOptions())
}

func TestExtract_StandardHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-Request-Id", "52160bbb-cac5-405f-a1e9-a55323b17938")
	req.Header.Set("X-App-Type", "agent")
	req.Header.Set("X-App-Version", "0.1.0")
	req.Header.Set("X-Tier-Type", "UAT")
	req.Header.Set("X-User-Type", "DEMO")

	var missing []string
	options := Extract(req, standardTable(), ExtractOpts{}, &missing)

	assert.Empty(t, missing)
	assert.Equal(t, "52160bbb-cac5-405f-a1e9-a55323b17938", options["requestId"])
	assert.Equal(t, "agent", options["clientType"])
	assert.Equal(t, "0.1.0", options["clientVersion"])
	assert.Equal(t, "UAT", options["appTierType"])
	assert.Equal(t, "DEMO", options["appUserType"])

	// every table key appears, absent headers as nil
	assert.Len(t, options, len(standardTable()))
	assert.Contains(t, options, "segmentId")
	assert.Nil(t, options["segmentId"])
}

func TestExtract_RequiredOptionMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-App-Type", "agent")

	var missing []string
	Extract(req, standardTable(), ExtractOpts{}, &missing)

	assert.Equal(t, []string{"requestId"}, missing)
}

func TestExtract_ExtensionsOverrideHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-Request-Id", "52160bbb-cac5-405f-a1e9-a55323b17938")

	var missing []string
	options := Extract(req, standardTable(), ExtractOpts{
		Extensions: map[string]interface{}{
			"requestId": "7f36af79-077b-448e-9c66-fc177996fd10",
			"timeout":   1000,
		},
	}, &missing)

	assert.Equal(t, "7f36af79-077b-448e-9c66-fc177996fd10", options["requestId"])
	assert.Equal(t, 1000, options["timeout"])
}

func TestExtract_NilExtensionDoesNotErase(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-Request-Id", "52160bbb-cac5-405f-a1e9-a55323b17938")

	options := Extract(req, standardTable(), ExtractOpts{
		Extensions: map[string]interface{}{
			"requestId": nil,
			"timeout":   1000,
		},
	}, nil)

	assert.Equal(t, "52160bbb-cac5-405f-a1e9-a55323b17938", options["requestId"])
	assert.Equal(t, 1000, options["timeout"])
}

func TestExtract_OptionNameStoresUnderDifferentKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-Lang-Code", "vi")

	table := Table{
		"languageCode": {HeaderName: "X-Lang-Code", OptionName: "language"},
	}
	options := Extract(req, table, ExtractOpts{}, nil)

	assert.Equal(t, "vi", options["language"])
	assert.NotContains(t, options, "languageCode")
}

func TestNormalizeTable(t *testing.T) {
	table := NormalizeTable(map[string]interface{}{
		"requestId": "X-Request-Id",
		"clientType": map[string]interface{}{
			"headerName": "X-App-Type",
			"optionName": "appType",
			"required":   true,
		},
		"segmentId": Descriptor{HeaderName: "X-Segment-Id"},
	})

	assert.Equal(t, Descriptor{HeaderName: "X-Request-Id"}, table["requestId"])
	assert.Equal(t, Descriptor{HeaderName: "X-App-Type", OptionName: "appType", Required: true}, table["clientType"])
	assert.Equal(t, Descriptor{HeaderName: "X-Segment-Id"}, table["segmentId"])
}

func TestMerge_OverridesFieldByField(t *testing.T) {
	base := Table{
		"requestId": {HeaderName: "X-Request-Id"},
		"mockSuite": {HeaderName: "X-Mock-Suite"},
	}
	merged := Merge(base, Table{
		"requestId": {Required: true},
		"actionId":  {HeaderName: "X-Action-Id"},
	})

	assert.Equal(t, Descriptor{HeaderName: "X-Request-Id", Required: true}, merged["requestId"])
	assert.Equal(t, Descriptor{HeaderName: "X-Mock-Suite"}, merged["mockSuite"])
	assert.Equal(t, Descriptor{HeaderName: "X-Action-Id"}, merged["actionId"])
}

func TestExtract_UserAgentParsing(t *testing.T) {
	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("User-Agent", chromiumUA)

	options := Extract(req, standardTable(), ExtractOpts{UserAgentEnabled: true}, nil)
	ua, ok := options["userAgent"].(UserAgent)
	require.True(t, ok)
	assert.Contains(t, ua.Browser.Name, "Chrom")
	assert.NotEmpty(t, ua.OS.Name)
	assert.Equal(t, "amd64", ua.CPU.Architecture)
}

func TestParseUserAgent_NeverPanics(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "Any string, wrong format"},
		{name: "chromium", raw: chromiumUA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				parsed := ParseUserAgent(tt.raw)
				if tt.raw == "" {
					assert.Equal(t, UserAgent{}, parsed)
				} else {
					assert.Equal(t, tt.raw, parsed.UA)
				}
			})
		})
	}
}

func TestParseUserAgent_ChromiumBuild(t *testing.T) {
	parsed := ParseUserAgent(chromiumUA)
	assert.Equal(t, "Chromium", parsed.Browser.Name)
	assert.Equal(t, "15.0.874.106", parsed.Browser.Version)
	assert.Equal(t, "15", parsed.Browser.Major)
	assert.Equal(t, "Linux", parsed.OS.Name)
}

func TestParseUserAgent_ChromeDesktop(t *testing.T) {
	parsed := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "Chrome", parsed.Browser.Name)
	assert.Equal(t, "120", parsed.Browser.Major)
	assert.NotEmpty(t, parsed.OS.Name)
	assert.Equal(t, "amd64", parsed.CPU.Architecture)
}
