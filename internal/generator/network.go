// Package generator synthesises organizations, networks, devices and clients.
//
// Every generator owns its own random.Source built from the topology seed and
// a stream name, so the draws of one generator never shift another's output.
// Generators never log and never return partial output alongside an error.
package generator

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/random"
)

const (
	mockBaseURL   = "https://mock.meraki.com"
	defaultRegion = "North America"
	digits        = "0123456789"
)

func itoa(i int) string { return strconv.Itoa(i) }

// NetworkGenerator builds organizations, networks, VLANs and VPN settings
type NetworkGenerator struct {
	src *random.Source
}

func NewNetworkGenerator(seed int64) *NetworkGenerator {
	return &NetworkGenerator{src: random.New(seed, "network")}
}

// GenerateOrganization builds an organization. The customer number is derived
// from id so the result does not depend on call order.
func (g *NetworkGenerator) GenerateOrganization(id, name, region string) model.Organization {
	if region == "" {
		region = defaultRegion
	}
	host := region
	if region == defaultRegion {
		host = "United States"
	}
	customer := 10_000_000 + random.Hash("organization", id)%90_000_000

	return model.Organization{
		ID:        id,
		Name:      name,
		URL:       fmt.Sprintf("%s/o/%s/manage/organization/overview", mockBaseURL, slug(name, "-", true)),
		API:       model.OrganizationAPI{Enabled: true},
		Licensing: model.OrganizationLicensing{Model: "co-term"},
		Cloud: model.OrganizationCloud{
			Region: model.CloudRegion{Name: region, Host: model.CloudRegionHost{Name: host}},
		},
		Management: model.OrganizationManagement{
			Details: []model.NameValue{{Name: "customer number", Value: fmt.Sprintf("%08d", customer)}},
		},
	}
}

// GenerateNetwork builds a network. productTypes must be non-empty and known.
func (g *NetworkGenerator) GenerateNetwork(id, organizationID, name string, productTypes []string, timeZone string, tags []string, notes string) (model.Network, error) {
	const op = "generate_network"
	if id == "" {
		return model.Network{}, invalid(op, "id", "", "must not be empty")
	}
	if organizationID == "" {
		return model.Network{}, invalid(op, "organizationId", "", "must not be empty")
	}
	if len(productTypes) == 0 {
		return model.Network{}, invalid(op, "productTypes", "", "must not be empty")
	}
	seen := make(map[string]bool, len(productTypes))
	for _, p := range productTypes {
		if !model.IsProductType(p) {
			return model.Network{}, invalid(op, "productTypes", p, "unknown product type")
		}
		if seen[p] {
			return model.Network{}, invalid(op, "productTypes", p, "duplicate product type")
		}
		seen[p] = true
	}

	n := model.Network{
		ID:             id,
		OrganizationID: organizationID,
		Name:           name,
		ProductTypes:   append([]string{}, productTypes...),
		TimeZone:       timeZone,
		Tags:           copyStrings(tags),
		URL:            fmt.Sprintf("%s/%s/manage/clients", mockBaseURL, slug(name, "-", false)),
		Details:        []string{},
	}
	if notes != "" {
		n.Notes = &notes
	}
	return n, nil
}

// GenerateVLANsForNetwork builds one VLAN per requested type. All VLANs of a
// network share 192.168.{octet}.0/24 and are told apart by VLAN id.
func (g *NetworkGenerator) GenerateVLANsForNetwork(networkID string, vlanTypes []string, octet int) ([]model.VLAN, error) {
	const op = "generate_vlans_for_network"
	if octet < 0 || octet > 255 {
		return nil, invalid(op, "baseThirdOctet", itoa(octet), "must be within 0..255")
	}

	// validate everything before drawing so a rejected call leaves the stream untouched
	templates := make([]VLANTemplate, 0, len(vlanTypes))
	seen := make(map[string]bool, len(vlanTypes))
	for _, t := range vlanTypes {
		tmpl, ok := VLANTemplates[t]
		if !ok {
			return nil, invalid(op, "vlanTypes", t, "unknown VLAN type")
		}
		if seen[t] {
			return nil, invalid(op, "vlanTypes", t, "duplicate VLAN type")
		}
		seen[t] = true
		templates = append(templates, tmpl)
	}

	subnet := fmt.Sprintf("192.168.%d.0/24", octet)
	vlans := make([]model.VLAN, 0, len(templates))
	for _, tmpl := range templates {
		vlans = append(vlans, model.VLAN{
			ID:                 itoa(tmpl.ID),
			InterfaceID:        g.src.Chars(digits, 13),
			NetworkID:          networkID,
			Name:               tmpl.Name,
			ApplianceIP:        fmt.Sprintf("192.168.%d.1", octet),
			Subnet:             subnet,
			FixedIPAssignments: map[string]string{},
			ReservedIPRanges:   []model.IPRange{},
			DNSNameservers:     "upstream_dns",
			DHCPHandling:       tmpl.DHCPHandling,
			DHCPLeaseTime:      "1 day",
			DHCPRelayServerIPs: []string{},
			VPNNatSubnet:       subnet,
			TemplateVLANType:   "same",
			CIDR:               subnet,
			Mask:               24,
		})
	}
	return vlans, nil
}

// GenerateVLANProfile groups vlanNames under one profile
func (g *NetworkGenerator) GenerateVLANProfile(networkID, iname, name string, vlanNames []string, isDefault bool) model.VLANProfile {
	names := make([]model.VLANProfileName, 0, len(vlanNames))
	for _, n := range vlanNames {
		names = append(names, model.VLANProfileName{Name: n})
	}
	return model.VLANProfile{
		NetworkID:  networkID,
		IName:      iname,
		Name:       name,
		IsDefault:  isDefault,
		VLANNames:  names,
		VLANGroups: []string{},
	}
}

// GenerateVPNConfig builds a site-to-site VPN configuration. Hub mode ignores
// hubs; spoke mode needs at least one. Whether a hub exists is checked by the
// assembler.
func (g *NetworkGenerator) GenerateVPNConfig(networkID, mode string, subnets []model.VPNSubnet, hubs []model.VPNHub) (model.VPNConfig, error) {
	const op = "generate_vpn_config"
	cfg := model.VPNConfig{
		NetworkID: networkID,
		Mode:      mode,
		Hubs:      []model.VPNHub{},
		Subnets:   append([]model.VPNSubnet{}, subnets...),
	}

	switch mode {
	case model.VPNModeHub:
		cfg.LocalStatusPages = &model.Toggle{Enabled: true}
	case model.VPNModeSpoke:
		if len(hubs) == 0 {
			return model.VPNConfig{}, invalid(op, "hubs", "", "spoke mode requires at least one hub")
		}
		for _, h := range hubs {
			if h.HubID == "" {
				return model.VPNConfig{}, invalid(op, "hubs", "", "hub id must not be empty")
			}
			if h.HubID == networkID {
				return model.VPNConfig{}, invalid(op, "hubs", h.HubID, "network cannot be its own hub")
			}
		}
		cfg.Hubs = append(cfg.Hubs, hubs...)
	default:
		return model.VPNConfig{}, invalid(op, "mode", mode, "must be hub or spoke")
	}
	return cfg, nil
}

// VPNSubnetsForVLANs returns one VPN subnet entry per distinct VLAN subnet
func VPNSubnetsForVLANs(vlans []model.VLAN) []model.VPNSubnet {
	subnets := []model.VPNSubnet{}
	seen := map[string]bool{}
	for _, v := range vlans {
		if seen[v.Subnet] {
			continue
		}
		seen[v.Subnet] = true
		subnets = append(subnets, model.VPNSubnet{LocalSubnet: v.Subnet, UseVPN: true})
	}
	return subnets
}

// GenerateCellularSubnetPool builds a routed pool. cidr is a prefix such as
// 10.200.0.0/16; its second /24 is handed out as "Subnet 1".
func (g *NetworkGenerator) GenerateCellularSubnetPool(networkID, cidr string) (model.CellularSubnetPool, error) {
	const op = "generate_cellular_subnet_pool"
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return model.CellularSubnetPool{}, invalid(op, "cidr", cidr, "must be an IPv4 prefix")
	}
	if prefix.Bits() > 23 {
		return model.CellularSubnetPool{}, invalid(op, "cidr", cidr, "must be /23 or larger")
	}
	prefix = prefix.Masked()
	a := prefix.Addr().As4()
	a[2]++
	first := netip.PrefixFrom(netip.AddrFrom4(a), 24)
	a[3] = 1

	return model.CellularSubnetPool{
		NetworkID:      networkID,
		DeploymentMode: "routed",
		CIDR:           prefix.String(),
		Mask:           prefix.Bits(),
		Subnets: []model.CellularSubnet{{
			Name:        "Subnet 1",
			ApplianceIP: netip.AddrFrom4(a).String(),
			Subnet:      first.String(),
		}},
	}, nil
}

func slug(s, sep string, lower bool) string {
	if lower {
		s = strings.ToLower(s)
	}
	return strings.ReplaceAll(s, " ", sep)
}

func copyStrings(in []string) []string {
	return append([]string{}, in...)
}
