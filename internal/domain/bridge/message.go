package bridge

import "fmt"

// Command names a request sent to the host.
type Command string

const (
	CmdNotifyReady                      Command = "notifyReady"
	CmdGetProxySettings                 Command = "getProxySettings"
	CmdReloadProxySettings              Command = "reloadProxySettings"
	CmdGetBadProxies                    Command = "getBadProxies"
	CmdClearBadProxies                  Command = "clearBadProxies"
	CmdGetHostResolverInfo              Command = "getHostResolverInfo"
	CmdClearHostResolverCache           Command = "clearHostResolverCache"
	CmdRunIPv6Probe                     Command = "onRunIPv6Probe"
	CmdEnableIPv6                       Command = "enableIPv6"
	CmdClearBrowserCache                Command = "clearBrowserCache"
	CmdStartConnectionTests             Command = "startConnectionTests"
	CmdHSTSQuery                        Command = "hstsQuery"
	CmdHSTSAdd                          Command = "hstsAdd"
	CmdHSTSDelete                       Command = "hstsDelete"
	CmdGetHTTPCacheInfo                 Command = "getHttpCacheInfo"
	CmdGetSocketPoolInfo                Command = "getSocketPoolInfo"
	CmdCloseIdleSockets                 Command = "closeIdleSockets"
	CmdFlushSocketPools                 Command = "flushSocketPools"
	CmdGetSessionNetworkStats           Command = "getSessionNetworkStats"
	CmdGetHistoricNetworkStats          Command = "getHistoricNetworkStats"
	CmdGetSpdySessionInfo               Command = "getSpdySessionInfo"
	CmdGetSpdyStatus                    Command = "getSpdyStatus"
	CmdGetSpdyAlternateProtocolMappings Command = "getSpdyAlternateProtocolMappings"
	CmdGetServiceProviders              Command = "getServiceProviders"
	CmdGetPrerenderInfo                 Command = "getPrerenderInfo"
	CmdGetHTTPPipeliningStatus          Command = "getHttpPipeliningStatus"
	CmdSetLogLevel                      Command = "setLogLevel"
	CmdRefreshSystemLogs                Command = "refreshSystemLogs"
	CmdGetSystemLog                     Command = "getSystemLog"
	CmdImportONCFile                    Command = "importONCFile"
	CmdStoreDebugLogs                   Command = "storeDebugLogs"
	CmdSetNetworkDebugMode              Command = "setNetworkDebugMode"
)

// commandArity is the number of arguments each command carries.
var commandArity = map[Command]int{
	CmdNotifyReady:                      0,
	CmdGetProxySettings:                 0,
	CmdReloadProxySettings:              0,
	CmdGetBadProxies:                    0,
	CmdClearBadProxies:                  0,
	CmdGetHostResolverInfo:              0,
	CmdClearHostResolverCache:           0,
	CmdRunIPv6Probe:                     0,
	CmdEnableIPv6:                       0,
	CmdClearBrowserCache:                0,
	CmdStartConnectionTests:             1, // url
	CmdHSTSQuery:                        1, // domain
	CmdHSTSAdd:                          3, // domain, include subdomains, pins
	CmdHSTSDelete:                       1, // domain
	CmdGetHTTPCacheInfo:                 0,
	CmdGetSocketPoolInfo:                0,
	CmdCloseIdleSockets:                 0,
	CmdFlushSocketPools:                 0,
	CmdGetSessionNetworkStats:           0,
	CmdGetHistoricNetworkStats:          0,
	CmdGetSpdySessionInfo:               0,
	CmdGetSpdyStatus:                    0,
	CmdGetSpdyAlternateProtocolMappings: 0,
	CmdGetServiceProviders:              0,
	CmdGetPrerenderInfo:                 0,
	CmdGetHTTPPipeliningStatus:          0,
	CmdSetLogLevel:                      1, // level, as a string
	CmdRefreshSystemLogs:                0,
	CmdGetSystemLog:                     2, // log key, cell id
	CmdImportONCFile:                    2, // file content, passcode
	CmdStoreDebugLogs:                   0,
	CmdSetNetworkDebugMode:              1, // subsystem
}

// ParseCommand resolves a command name.
func ParseCommand(name string) (Command, error) {
	cmd := Command(name)
	if _, ok := commandArity[cmd]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// Arity returns the argument count of a known command.
func (c Command) Arity() (int, bool) {
	n, ok := commandArity[c]
	return n, ok
}

// Outbound is one request frame to the host.
type Outbound struct {
	Command Command `json:"command"`
	Args    []any  `json:"args,omitempty"`
}

// Kind names a message received from the host.
type Kind string

const (
	KindConstants                         Kind = "receivedConstants"
	KindLogEntries                        Kind = "receivedLogEntries"
	KindProxySettings                     Kind = "receivedProxySettings"
	KindBadProxies                        Kind = "receivedBadProxies"
	KindHostResolverInfo                  Kind = "receivedHostResolverInfo"
	KindSocketPoolInfo                    Kind = "receivedSocketPoolInfo"
	KindSessionNetworkStats               Kind = "receivedSessionNetworkStats"
	KindHistoricNetworkStats              Kind = "receivedHistoricNetworkStats"
	KindSpdySessionInfo                   Kind = "receivedSpdySessionInfo"
	KindSpdyStatus                        Kind = "receivedSpdyStatus"
	KindSpdyAlternateProtocolMappings     Kind = "receivedSpdyAlternateProtocolMappings"
	KindServiceProviders                  Kind = "receivedServiceProviders"
	KindStartConnectionTestSuite          Kind = "receivedStartConnectionTestSuite"
	KindStartConnectionTestExperiment     Kind = "receivedStartConnectionTestExperiment"
	KindCompletedConnectionTestExperiment Kind = "receivedCompletedConnectionTestExperiment"
	KindCompletedConnectionTestSuite      Kind = "receivedCompletedConnectionTestSuite"
	KindHSTSResult                        Kind = "receivedHSTSResult"
	KindONCFileParse                      Kind = "receivedONCFileParse"
	KindStoreDebugLogs                    Kind = "receivedStoreDebugLogs"
	KindSetNetworkDebugMode               Kind = "receivedSetNetworkDebugMode"
	KindHTTPCacheInfo                     Kind = "receivedHttpCacheInfo"
	KindPrerenderInfo                     Kind = "receivedPrerenderInfo"
	KindHTTPPipeliningStatus              Kind = "receivedHttpPipeliningStatus"
)

var kinds = map[Kind]struct{}{
	KindConstants:                         {},
	KindLogEntries:                        {},
	KindProxySettings:                     {},
	KindBadProxies:                        {},
	KindHostResolverInfo:                  {},
	KindSocketPoolInfo:                    {},
	KindSessionNetworkStats:               {},
	KindHistoricNetworkStats:              {},
	KindSpdySessionInfo:                   {},
	KindSpdyStatus:                        {},
	KindSpdyAlternateProtocolMappings:     {},
	KindServiceProviders:                  {},
	KindStartConnectionTestSuite:          {},
	KindStartConnectionTestExperiment:     {},
	KindCompletedConnectionTestExperiment: {},
	KindCompletedConnectionTestSuite:      {},
	KindHSTSResult:                        {},
	KindONCFileParse:                      {},
	KindStoreDebugLogs:                    {},
	KindSetNetworkDebugMode:               {},
	KindHTTPCacheInfo:                     {},
	KindPrerenderInfo:                     {},
	KindHTTPPipeliningStatus:              {},
}

// ParseKind resolves an inbound message name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return k, nil
}

// Message is one inbound message from the host.
type Message struct {
	Kind    Kind
	Payload any
}

// FeedName identifies a pollable category of host state.
type FeedName string

const (
	FeedProxySettings                 FeedName = "proxySettings"
	FeedBadProxies                    FeedName = "badProxies"
	FeedHTTPCacheInfo                 FeedName = "httpCacheInfo"
	FeedHostResolverInfo              FeedName = "hostResolverInfo"
	FeedSocketPoolInfo                FeedName = "socketPoolInfo"
	FeedSessionNetworkStats           FeedName = "sessionNetworkStats"
	FeedHistoricNetworkStats          FeedName = "historicNetworkStats"
	FeedSpdySessionInfo               FeedName = "spdySessionInfo"
	FeedSpdyStatus                    FeedName = "spdyStatus"
	FeedSpdyAlternateProtocolMappings FeedName = "spdyAlternateProtocolMappings"
	FeedServiceProviders              FeedName = "serviceProviders"
	FeedPrerenderInfo                 FeedName = "prerenderInfo"
	FeedHTTPPipeliningStatus          FeedName = "httpPipeliningStatus"
)

// feedSpec ties a feed to the request that refreshes it and the message
// that answers it.
type feedSpec struct {
	name        FeedName
	refresh     Command
	answer      Kind
	windowsOnly bool
}

var feedSpecs = []feedSpec{
	{name: FeedProxySettings, refresh: CmdGetProxySettings, answer: KindProxySettings},
	{name: FeedBadProxies, refresh: CmdGetBadProxies, answer: KindBadProxies},
	{name: FeedHTTPCacheInfo, refresh: CmdGetHTTPCacheInfo, answer: KindHTTPCacheInfo},
	{name: FeedHostResolverInfo, refresh: CmdGetHostResolverInfo, answer: KindHostResolverInfo},
	{name: FeedSocketPoolInfo, refresh: CmdGetSocketPoolInfo, answer: KindSocketPoolInfo},
	{name: FeedSessionNetworkStats, refresh: CmdGetSessionNetworkStats, answer: KindSessionNetworkStats},
	{name: FeedHistoricNetworkStats, refresh: CmdGetHistoricNetworkStats, answer: KindHistoricNetworkStats},
	{name: FeedSpdySessionInfo, refresh: CmdGetSpdySessionInfo, answer: KindSpdySessionInfo},
	{name: FeedSpdyStatus, refresh: CmdGetSpdyStatus, answer: KindSpdyStatus},
	{name: FeedSpdyAlternateProtocolMappings, refresh: CmdGetSpdyAlternateProtocolMappings, answer: KindSpdyAlternateProtocolMappings},
	{name: FeedServiceProviders, refresh: CmdGetServiceProviders, answer: KindServiceProviders, windowsOnly: true},
	{name: FeedPrerenderInfo, refresh: CmdGetPrerenderInfo, answer: KindPrerenderInfo},
	{name: FeedHTTPPipeliningStatus, refresh: CmdGetHTTPPipeliningStatus, answer: KindHTTPPipeliningStatus},
}
