package bridge

// Outbound helpers, one per host request. Feed refreshes go through
// Feed.Poll and are not repeated here.

func (b *Bridge) SendReloadProxySettings() error {
	return b.Send(CmdReloadProxySettings)
}

func (b *Bridge) SendClearBadProxies() error {
	return b.Send(CmdClearBadProxies)
}

func (b *Bridge) SendClearHostResolverCache() error {
	return b.Send(CmdClearHostResolverCache)
}

// SendRunIPv6Probe asks the host to probe IPv6 support again.
func (b *Bridge) SendRunIPv6Probe() error {
	return b.Send(CmdRunIPv6Probe)
}

func (b *Bridge) SendEnableIPv6() error {
	return b.Send(CmdEnableIPv6)
}

func (b *Bridge) SendClearBrowserCache() error {
	return b.Send(CmdClearBrowserCache)
}

// SendClearAllCache clears the host resolver cache and the browser cache.
func (b *Bridge) SendClearAllCache() error {
	if err := b.SendClearHostResolverCache(); err != nil {
		return err
	}
	return b.SendClearBrowserCache()
}

// SendStartConnectionTests runs the connection test suite against url.
// Progress arrives on ConnectionTestsObservers.
func (b *Bridge) SendStartConnectionTests(url string) error {
	return b.Send(CmdStartConnectionTests, url)
}

// SendHSTSQuery looks up a domain. The answer arrives on HSTSObservers.
func (b *Bridge) SendHSTSQuery(domain string) error {
	return b.Send(CmdHSTSQuery, domain)
}

// SendHSTSAdd adds a domain. hashes is a comma separated list of public
// key pins.
func (b *Bridge) SendHSTSAdd(domain string, includeSubdomains bool, hashes string) error {
	return b.Send(CmdHSTSAdd, domain, includeSubdomains, hashes)
}

func (b *Bridge) SendHSTSDelete(domain string) error {
	return b.Send(CmdHSTSDelete, domain)
}

func (b *Bridge) SendCloseIdleSockets() error {
	return b.Send(CmdCloseIdleSockets)
}

func (b *Bridge) SendFlushSocketPools() error {
	return b.Send(CmdFlushSocketPools)
}

// SendSetLogLevel changes the host's capture detail. The level travels as
// a string.
func (b *Bridge) SendSetLogLevel(level string) error {
	return b.Send(CmdSetLogLevel, level)
}

func (b *Bridge) SendRefreshSystemLogs() error {
	return b.Send(CmdRefreshSystemLogs)
}

func (b *Bridge) SendGetSystemLog(logKey, cellID string) error {
	return b.Send(CmdGetSystemLog, logKey, cellID)
}

// SendImportONCFile imports a network configuration. The parse result
// arrives on ONCFileParseObservers.
func (b *Bridge) SendImportONCFile(content, passcode string) error {
	return b.Send(CmdImportONCFile, content, passcode)
}

func (b *Bridge) SendStoreDebugLogs() error {
	return b.Send(CmdStoreDebugLogs)
}

func (b *Bridge) SendSetNetworkDebugMode(subsystem string) error {
	return b.Send(CmdSetNetworkDebugMode, subsystem)
}
