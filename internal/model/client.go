package model

// Client connection types
const (
	ConnectionWired    = "Wired"
	ConnectionWireless = "Wireless"
)

// Client statuses
const (
	ClientOnline  = "Online"
	ClientOffline = "Offline"
)

// Usage is a byte (or kilobyte, for device clients) counter pair
type Usage struct {
	Sent  int64 `json:"sent"`
	Recv  int64 `json:"recv"`
	Total int64 `json:"total,omitempty"`
}

// NetworkClient is the full client record served per network
type NetworkClient struct {
	ID                     string  `json:"id"`
	MAC                    string  `json:"mac"`
	IP                     string  `json:"ip"`
	IP6                    *string `json:"ip6"`
	IP6Local               *string `json:"ip6Local"`
	Description            string  `json:"description"`
	FirstSeen              int64   `json:"firstSeen"`
	LastSeen               int64   `json:"lastSeen"`
	Manufacturer           string  `json:"manufacturer"`
	OS                     string  `json:"os"`
	DeviceTypePrediction   string  `json:"deviceTypePrediction"`
	User                   *string `json:"user"`
	VLAN                   string  `json:"vlan"`
	NamedVLAN              string  `json:"namedVlan"`
	SSID                   *string `json:"ssid"`
	Switchport             *string `json:"switchport"`
	WirelessCapabilities   *string `json:"wirelessCapabilities"`
	SMInstalled            bool    `json:"smInstalled"`
	RecentDeviceSerial     string  `json:"recentDeviceSerial"`
	RecentDeviceName       string  `json:"recentDeviceName"`
	RecentDeviceMAC        string  `json:"recentDeviceMac"`
	RecentDeviceConnection string  `json:"recentDeviceConnection"`
	Notes                  *string `json:"notes"`
	GroupPolicy8021x       *string `json:"groupPolicy8021x"`
	AdaptivePolicyGroup    *string `json:"adaptivePolicyGroup"`
	PSKGroup               *string `json:"pskGroup"`
	Status                 string  `json:"status"`
	Usage                  Usage   `json:"usage"`

	// NetworkID is carried for key construction and is not part of the served document
	NetworkID string `json:"-"`
}

// DeviceClient is the trimmed client record served per device
type DeviceClient struct {
	ID                     string  `json:"id"`
	MAC                    string  `json:"mac"`
	Description            string  `json:"description"`
	MDNSName               string  `json:"mdnsName"`
	DHCPHostname           string  `json:"dhcpHostname"`
	User                   *string `json:"user"`
	IP                     string  `json:"ip"`
	VLAN                   string  `json:"vlan"`
	NamedVLAN              string  `json:"namedVlan"`
	Switchport             *string `json:"switchport"`
	AdaptivePolicyGroup    *string `json:"adaptivePolicyGroup"`
	RecentDeviceSerial     string  `json:"recentDeviceSerial"`
	RecentDeviceConnection string  `json:"recentDeviceConnection"`
	Usage                  Usage   `json:"usage"`

	NetworkID string `json:"-"`
}
