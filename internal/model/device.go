package model

// Device is a managed hardware device
type Device struct {
	Serial                 string      `json:"serial"`
	Name                   string      `json:"name"`
	MAC                    string      `json:"mac"`
	NetworkID              string      `json:"networkId"`
	OrganizationID         string      `json:"organizationId"`
	Model                  string      `json:"model"`
	ProductType            string      `json:"productType"`
	Firmware               string      `json:"firmware"`
	LanIP                  string      `json:"lanIp"`
	Tags                   []string    `json:"tags"`
	Lat                    float64     `json:"lat"`
	Lng                    float64     `json:"lng"`
	TimeZone               string      `json:"timeZone"`
	Address                string      `json:"address"`
	Notes                  *string     `json:"notes"`
	URL                    string      `json:"url"`
	ConfigurationUpdatedAt string      `json:"configurationUpdatedAt"`
	Details                []NameValue `json:"details"`
	Wan1IP                 string      `json:"wan1Ip,omitempty"`
	Wan2IP                 string      `json:"wan2Ip,omitempty"`
	IMEI                   string      `json:"imei,omitempty"`
}

// Availability statuses
const (
	StatusOnline   = "online"
	StatusAlerting = "alerting"
	StatusOffline  = "offline"
	StatusDormant  = "dormant"
)

// DeviceAvailability is the availability view of one device
type DeviceAvailability struct {
	Serial      string     `json:"serial"`
	Name        string     `json:"name"`
	MAC         string     `json:"mac"`
	Network     NetworkRef `json:"network"`
	ProductType string     `json:"productType"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags"`
}

// NetworkRef is an embedded {"id": ...} network reference
type NetworkRef struct {
	ID string `json:"id"`
}
