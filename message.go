package ssdp

import (
	"strconv"
	"strings"
)

// Outbound messages are prepared once at construction time so that the send
// paths do not rebuild them per datagram. Headers are written in the order
// SSDP peers conventionally expect; the optional SM_ID and DEV_TYPE headers
// are left out when empty, every other header is always written.
//
// The SERVER and USER-AGENT values intentionally carry no "UPnP/1.1" token.

// serverToken renders "<os>/<os version> <product>/<product version>".
func serverToken(productName, productVersion string) string {
	osName, osVersion := hostOSInfo()
	return osName + "/" + osVersion + " " + productName + "/" + productVersion
}

// buildNotifyAlive renders the periodic NOTIFY ssdp:alive advertisement.
func buildNotifyAlive(host string, maxAgeSeconds int, desc ServiceDescription) string {
	var b strings.Builder
	b.WriteString(startLineNotify)
	b.WriteString("HOST:" + host + "\r\n")
	b.WriteString("CACHE-CONTROL:max-age=" + strconv.Itoa(maxAgeSeconds) + "\r\n")
	b.WriteString("LOCATION:" + desc.LocationURL + "\r\n")
	b.WriteString("SERVER:" + serverToken(desc.ProductName, desc.ProductVersion) + "\r\n")
	b.WriteString("NT:" + desc.SearchTarget + "\r\n")
	b.WriteString("NTS:" + ntsAlive + "\r\n")
	b.WriteString("USN:" + desc.UniqueServiceName + "\r\n")
	if desc.SMID != "" {
		b.WriteString("SM_ID:" + desc.SMID + "\r\n")
	}
	if desc.DeviceType != "" {
		b.WriteString("DEV_TYPE:" + desc.DeviceType + "\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

// buildNotifyByeBye renders the NOTIFY ssdp:byebye shutdown advertisement.
func buildNotifyByeBye(host string, desc ServiceDescription) string {
	var b strings.Builder
	b.WriteString(startLineNotify)
	b.WriteString("HOST:" + host + "\r\n")
	b.WriteString("NT:" + desc.SearchTarget + "\r\n")
	b.WriteString("NTS:" + ntsByeBye + "\r\n")
	b.WriteString("USN:" + desc.UniqueServiceName + "\r\n")
	b.WriteString("\r\n")
	return b.String()
}

// buildMSearch renders the M-SEARCH discovery request.
func buildMSearch(host, searchTarget, productName, productVersion string) string {
	var b strings.Builder
	b.WriteString(startLineMSearch)
	b.WriteString("HOST:" + host + "\r\n")
	b.WriteString("MAN:\"ssdp:discover\"\r\n")
	b.WriteString("MX:5\r\n")
	b.WriteString("ST:" + searchTarget + "\r\n")
	b.WriteString("USER-AGENT:" + serverToken(productName, productVersion) + "\r\n")
	b.WriteString("\r\n")
	return b.String()
}

// buildResponse renders the 200 OK answer to a matching M-SEARCH.
//
// The space after the SM_ID and DEV_TYPE colons is kept as peers accept the
// value either way and existing consumers expect this exact form.
func buildResponse(maxAgeSeconds int, desc ServiceDescription) string {
	var b strings.Builder
	b.WriteString(startLineResponse)
	b.WriteString("CACHE-CONTROL:max-age=" + strconv.Itoa(maxAgeSeconds) + "\r\n")
	b.WriteString("DATE:\r\n")
	b.WriteString("EXT:\r\n")
	b.WriteString("LOCATION:" + desc.LocationURL + "\r\n")
	b.WriteString("SERVER:" + serverToken(desc.ProductName, desc.ProductVersion) + "\r\n")
	b.WriteString("ST:" + desc.SearchTarget + "\r\n")
	b.WriteString("USN:" + desc.UniqueServiceName + "\r\n")
	if desc.SMID != "" {
		b.WriteString("SM_ID: " + desc.SMID + "\r\n")
	}
	if desc.DeviceType != "" {
		b.WriteString("DEV_TYPE: " + desc.DeviceType + "\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}
