package model

// Product types a network or device can carry
const (
	ProductAppliance       = "appliance"
	ProductSwitch          = "switch"
	ProductWireless        = "wireless"
	ProductCellularGateway = "cellularGateway"
	ProductSensor          = "sensor"
	ProductCamera          = "camera"
)

// ProductTypes lists every known product type in API order
var ProductTypes = []string{
	ProductAppliance,
	ProductSwitch,
	ProductWireless,
	ProductCellularGateway,
	ProductSensor,
	ProductCamera,
}

// IsProductType reports whether p is a known product type
func IsProductType(p string) bool {
	for _, known := range ProductTypes {
		if p == known {
			return true
		}
	}
	return false
}

// Network belongs to one organization and owns devices, VLANs and VPN settings
type Network struct {
	ID                      string   `json:"id"`
	OrganizationID          string   `json:"organizationId"`
	Name                    string   `json:"name"`
	ProductTypes            []string `json:"productTypes"`
	TimeZone                string   `json:"timeZone"`
	Tags                    []string `json:"tags"`
	EnrollmentString        *string  `json:"enrollmentString"`
	URL                     string   `json:"url"`
	Notes                   *string  `json:"notes"`
	Details                 []string `json:"details"`
	IsBoundToConfigTemplate bool     `json:"isBoundToConfigTemplate"`
	IsVirtual               bool     `json:"isVirtual"`
}

// VLAN is an appliance VLAN of a network
type VLAN struct {
	ID                     string            `json:"id"`
	InterfaceID            string            `json:"interfaceId"`
	NetworkID              string            `json:"networkId"`
	Name                   string            `json:"name"`
	ApplianceIP            string            `json:"applianceIp"`
	Subnet                 string            `json:"subnet"`
	FixedIPAssignments     map[string]string `json:"fixedIpAssignments"`
	ReservedIPRanges       []IPRange         `json:"reservedIpRanges"`
	DNSNameservers         string            `json:"dnsNameservers"`
	DHCPHandling           string            `json:"dhcpHandling"`
	DHCPLeaseTime          string            `json:"dhcpLeaseTime"`
	DHCPBootOptionsEnabled bool              `json:"dhcpBootOptionsEnabled"`
	DHCPRelayServerIPs     []string          `json:"dhcpRelayServerIps"`
	VPNNatSubnet           string            `json:"vpnNatSubnet"`
	MandatoryDHCP          Toggle            `json:"mandatoryDhcp"`
	IPv6                   Toggle            `json:"ipv6"`
	TemplateVLANType       string            `json:"templateVlanType"`
	CIDR                   string            `json:"cidr"`
	Mask                   int               `json:"mask"`
}

// IPRange is a reserved DHCP range
type IPRange struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Comment string `json:"comment"`
}

// Toggle is the {"enabled": bool} object used throughout the API
type Toggle struct {
	Enabled bool `json:"enabled"`
}

// VLANProfile groups VLAN names for switch port assignment
type VLANProfile struct {
	NetworkID  string            `json:"networkId"`
	IName      string            `json:"iname"`
	Name       string            `json:"name"`
	IsDefault  bool              `json:"isDefault"`
	VLANNames  []VLANProfileName `json:"vlanNames"`
	VLANGroups []string          `json:"vlanGroups"`
}

type VLANProfileName struct {
	Name                string  `json:"name"`
	AdaptivePolicyGroup *string `json:"adaptivePolicyGroup"`
}

// VPN modes
const (
	VPNModeHub   = "hub"
	VPNModeSpoke = "spoke"
)

// VPNConfig is the site-to-site VPN configuration of one network
type VPNConfig struct {
	NetworkID        string      `json:"networkId"`
	Mode             string      `json:"mode"`
	Hubs             []VPNHub    `json:"hubs"`
	Subnets          []VPNSubnet `json:"subnets"`
	LocalStatusPages *Toggle     `json:"localStatusPages,omitempty"`
}

type VPNHub struct {
	HubID           string `json:"hubId"`
	UseDefaultRoute bool   `json:"useDefaultRoute"`
}

type VPNSubnet struct {
	LocalSubnet string `json:"localSubnet"`
	UseVPN      bool   `json:"useVpn"`
	NAT         Toggle `json:"nat"`
}

// CellularSubnetPool is the routed subnet pool of a cellular gateway network
type CellularSubnetPool struct {
	NetworkID      string           `json:"networkId"`
	DeploymentMode string           `json:"deploymentMode"`
	CIDR           string           `json:"cidr"`
	Mask           int              `json:"mask"`
	Subnets        []CellularSubnet `json:"subnets"`
}

type CellularSubnet struct {
	Serial      *string `json:"serial"`
	Name        string  `json:"name"`
	ApplianceIP string  `json:"applianceIp"`
	Subnet      string  `json:"subnet"`
}
