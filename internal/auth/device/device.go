package device

import (
	"net"

	"github.com/mssola/useragent"

	"github.com/novalane/auth-service/internal/auth/domain"
)

const unknown = "Unknown"

// Parse extracts browser/OS/device class from a User-Agent header.
// Best effort: an empty or garbled value yields Unknown fields.
func Parse(userAgentHeader string) domain.DeviceInfo {
	info := domain.DeviceInfo{Browser: unknown, OS: unknown, Device: unknown}
	if userAgentHeader == "" {
		return info
	}

	ua := useragent.New(userAgentHeader)

	if name, _ := ua.Browser(); name != "" {
		info.Browser = name
	}
	if os := ua.OS(); os != "" {
		info.OS = os
	}

	switch {
	case ua.Bot():
		info.Device = "Bot"
	case ua.Mobile():
		info.Device = "Mobile"
	default:
		info.Device = "Desktop"
	}

	return info
}

// Locate classifies the client IP. Without a GeoIP database this only
// distinguishes local/private traffic from the public internet; the fields
// are advisory metadata, never used for auth decisions.
func Locate(ipAddress string) domain.Location {
	loc := domain.Location{Country: unknown, City: unknown, Region: unknown}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return loc
	}

	if ip.IsLoopback() {
		return domain.Location{Country: "Local", City: "Localhost", Region: "Local"}
	}
	if ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return domain.Location{Country: "Local", City: "Private Network", Region: "Local"}
	}

	return loc
}
