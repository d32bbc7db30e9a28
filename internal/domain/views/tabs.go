package views

import "github.com/GriffinCanCode/netinternals/internal/domain/bridge"

// TabID identifies a tab.
type TabID string

const (
	TabCapture          TabID = "capture"
	TabExport           TabID = "export"
	TabImport           TabID = "import"
	TabProxy            TabID = "proxy"
	TabEvents           TabID = "events"
	TabTimeline         TabID = "timeline"
	TabDNS              TabID = "dns"
	TabSockets          TabID = "sockets"
	TabSpdy             TabID = "spdy"
	TabHTTPPipeline     TabID = "httpPipeline"
	TabHTTPCache        TabID = "httpCache"
	TabServiceProviders TabID = "serviceProviders"
	TabTests            TabID = "tests"
	TabHSTS             TabID = "hsts"
	TabLogs             TabID = "logs"
	TabBandwidth        TabID = "bandwidth"
	TabPrerender        TabID = "prerender"
	TabChromeOS         TabID = "chromeos"
)

// DefaultTab is selected by an empty hash.
const DefaultTab = TabExport

type tabSpec struct {
	id       TabID
	title    string
	feeds    []bridge.FeedName
	platform string // empty means every platform
}

// tabSpecs lists the tabs in display order. Tabs for other platforms are
// still created, hidden.
var tabSpecs = []tabSpec{
	{id: TabCapture, title: "Capture"},
	{id: TabExport, title: "Export"},
	{id: TabImport, title: "Import"},
	{id: TabProxy, title: "Proxy", feeds: []bridge.FeedName{bridge.FeedProxySettings, bridge.FeedBadProxies}},
	{id: TabEvents, title: "Events"},
	{id: TabTimeline, title: "Timeline"},
	{id: TabDNS, title: "DNS", feeds: []bridge.FeedName{bridge.FeedHostResolverInfo}},
	{id: TabSockets, title: "Sockets", feeds: []bridge.FeedName{bridge.FeedSocketPoolInfo}},
	{id: TabSpdy, title: "SPDY", feeds: []bridge.FeedName{
		bridge.FeedSpdySessionInfo,
		bridge.FeedSpdyStatus,
		bridge.FeedSpdyAlternateProtocolMappings,
	}},
	{id: TabHTTPPipeline, title: "HTTP Pipelining", feeds: []bridge.FeedName{bridge.FeedHTTPPipeliningStatus}},
	{id: TabHTTPCache, title: "Cache", feeds: []bridge.FeedName{bridge.FeedHTTPCacheInfo}},
	{id: TabServiceProviders, title: "SPIs", feeds: []bridge.FeedName{bridge.FeedServiceProviders}, platform: bridge.PlatformWindows},
	{id: TabTests, title: "Tests"},
	{id: TabHSTS, title: "HSTS"},
	{id: TabLogs, title: "Logs", platform: bridge.PlatformChromeOS},
	{id: TabBandwidth, title: "Bandwidth", feeds: []bridge.FeedName{
		bridge.FeedSessionNetworkStats,
		bridge.FeedHistoricNetworkStats,
	}},
	{id: TabPrerender, title: "Prerender", feeds: []bridge.FeedName{bridge.FeedPrerenderInfo}},
	{id: TabChromeOS, title: "ChromeOS", platform: bridge.PlatformChromeOS},
}

// Anchor returns the URL hash that selects the tab.
func (id TabID) Anchor() string {
	return "#" + string(id)
}
