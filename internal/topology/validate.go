package topology

import (
	"net/netip"

	"github.com/martinsuchenak/toposeed/internal/generator"
	"github.com/martinsuchenak/toposeed/internal/model"
)

// Validate checks that g is closed under reference and internally consistent.
// It returns nil or an IntegrityErrors listing every problem in graph order.
func Validate(g *model.TopologyGraph) error {
	v := &validator{
		g:        g,
		orgs:     map[string]bool{},
		networks: map[string]model.Network{},
		devices:  map[string]model.Device{},
		subnets:  map[string][]netip.Prefix{},
		vlans:    map[[2]string]model.VLAN{},
		macs:     map[string]string{},
	}

	v.required()
	v.organizations()
	v.networkList()
	v.vlanList()
	v.deviceList()
	v.availability()
	v.networkClients()
	v.deviceClients()
	v.vpnConfigs()
	v.profilesAndPools()

	if stats := g.ComputeStats(); stats != g.Stats {
		v.fail("graph", g.TopologyName, "stats", "", "does not match the entity lists")
	}

	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	g        *model.TopologyGraph
	errs     IntegrityErrors
	orgs     map[string]bool
	networks map[string]model.Network
	devices  map[string]model.Device
	subnets  map[string][]netip.Prefix
	vlans    map[[2]string]model.VLAN
	macs     map[string]string
}

func (v *validator) fail(entity, id, field, missing, reason string) {
	v.errs = append(v.errs, &IntegrityError{Entity: entity, ID: id, Field: field, Missing: missing, Reason: reason})
}

func (v *validator) dangling(entity, id, field, missing string) {
	v.fail(entity, id, field, missing, "")
}

func (v *validator) required() {
	g := v.g
	if g.TopologyName == "" {
		v.fail("graph", "", "topology_name", "", "must not be empty")
	}
	for _, list := range []struct {
		field string
		n     int
	}{
		{"organizations", len(g.Organizations)},
		{"networks", len(g.Networks)},
		{"devices", len(g.Devices)},
		{"vlans", len(g.VLANs)},
	} {
		if list.n == 0 {
			v.fail("graph", g.TopologyName, list.field, "", "must not be empty")
		}
	}
}

func (v *validator) organizations() {
	for _, o := range v.g.Organizations {
		if o.ID == "" {
			v.fail("organization", o.Name, "id", "", "must not be empty")
			continue
		}
		if v.orgs[o.ID] {
			v.fail("organization", o.ID, "id", o.ID, "is not unique")
		}
		v.orgs[o.ID] = true
	}
}

func (v *validator) networkList() {
	for _, n := range v.g.Networks {
		if n.ID == "" {
			v.fail("network", n.Name, "id", "", "must not be empty")
			continue
		}
		if _, dup := v.networks[n.ID]; dup {
			v.fail("network", n.ID, "id", n.ID, "is not unique")
		}
		v.networks[n.ID] = n
		if !v.orgs[n.OrganizationID] {
			v.dangling("network", n.ID, "organizationId", n.OrganizationID)
		}
		if len(n.ProductTypes) == 0 {
			v.fail("network", n.ID, "productTypes", "", "must not be empty")
		}
		for _, p := range n.ProductTypes {
			if !model.IsProductType(p) {
				v.fail("network", n.ID, "productTypes", p, "is not a product type")
			}
		}
	}
}

type ownedPrefix struct {
	prefix    netip.Prefix
	networkID string
}

func (v *validator) vlanList() {
	var owned []ownedPrefix
	for _, vl := range v.g.VLANs {
		id := vl.NetworkID + "#" + vl.ID
		if _, ok := v.networks[vl.NetworkID]; !ok {
			v.dangling("vlan", id, "networkId", vl.NetworkID)
		}
		key := [2]string{vl.NetworkID, vl.ID}
		if _, dup := v.vlans[key]; dup {
			v.fail("vlan", id, "id", vl.ID, "is not unique in its network")
		}
		v.vlans[key] = vl

		prefix, err := netip.ParsePrefix(vl.Subnet)
		if err != nil {
			v.fail("vlan", id, "subnet", vl.Subnet, "is not a prefix")
			continue
		}
		prefix = prefix.Masked()
		appliance, err := netip.ParseAddr(vl.ApplianceIP)
		if err != nil || !prefix.Contains(appliance) {
			v.fail("vlan", id, "applianceIp", vl.ApplianceIP, "is outside "+vl.Subnet)
		}
		seen := false
		for _, o := range owned {
			if o.networkID != vl.NetworkID && o.prefix.Overlaps(prefix) {
				v.fail("vlan", id, "subnet", vl.Subnet, "overlaps a subnet of network "+o.networkID)
			}
			seen = seen || o.prefix == prefix
		}
		if !seen {
			owned = append(owned, ownedPrefix{prefix, vl.NetworkID})
			v.subnets[vl.NetworkID] = append(v.subnets[vl.NetworkID], prefix)
		}
	}
}

func (v *validator) deviceList() {
	for _, d := range v.g.Devices {
		if d.Serial == "" {
			v.fail("device", d.Name, "serial", "", "must not be empty")
			continue
		}
		if _, dup := v.devices[d.Serial]; dup {
			v.fail("device", d.Serial, "serial", d.Serial, "is not unique")
		}
		v.devices[d.Serial] = d
		v.mac("device", d.Serial, d.MAC)

		n, ok := v.networks[d.NetworkID]
		if !ok {
			v.dangling("device", d.Serial, "networkId", d.NetworkID)
		} else if n.OrganizationID != d.OrganizationID {
			v.fail("device", d.Serial, "organizationId", d.OrganizationID, "differs from its network's organization")
		}
		family, ok := generator.ProductCatalog[d.ProductType]
		if !ok {
			v.fail("device", d.Serial, "productType", d.ProductType, "is not a product type")
		} else if _, ok := family.Models[d.Model]; !ok {
			v.fail("device", d.Serial, "model", d.Model, "is not a "+d.ProductType+" model")
		}
		if !v.inNetwork(d.NetworkID, d.LanIP) {
			v.fail("device", d.Serial, "lanIp", d.LanIP, "is outside the network's subnets")
		}
	}
}

func (v *validator) availability() {
	seen := map[string]bool{}
	for _, a := range v.g.DeviceAvailabilities {
		if seen[a.Serial] {
			v.fail("device_availability", a.Serial, "serial", a.Serial, "is not unique")
		}
		seen[a.Serial] = true
		d, ok := v.devices[a.Serial]
		if !ok {
			v.dangling("device_availability", a.Serial, "serial", a.Serial)
			continue
		}
		if a.Network.ID != d.NetworkID {
			v.fail("device_availability", a.Serial, "network.id", a.Network.ID, "differs from the device's network")
		}
	}
}

func (v *validator) networkClients() {
	ids := map[string]bool{}
	for _, c := range v.g.NetworkClients {
		if ids[c.ID] {
			v.fail("network_client", c.ID, "id", c.ID, "is not unique")
		}
		ids[c.ID] = true
		v.mac("network_client", c.ID, c.MAC)

		networkID := v.clientNetwork(c.NetworkID, c.RecentDeviceSerial)
		vl, ok := v.vlans[[2]string{networkID, c.VLAN}]
		if !ok {
			v.dangling("network_client", c.ID, "vlan", c.VLAN)
		} else if !contains(vl.Subnet, c.IP) {
			v.fail("network_client", c.ID, "ip", c.IP, "is outside "+vl.Subnet)
		}
		if c.RecentDeviceSerial != "" {
			d, ok := v.devices[c.RecentDeviceSerial]
			if !ok {
				v.dangling("network_client", c.ID, "recentDeviceSerial", c.RecentDeviceSerial)
			} else if d.NetworkID != networkID {
				v.fail("network_client", c.ID, "recentDeviceSerial", c.RecentDeviceSerial, "is in another network")
			}
		}
		if len(c.MAC) >= 8 {
			family, ok := generator.FamilyByOUI(c.MAC[:8])
			if !ok || family.Manufacturer != c.Manufacturer {
				v.fail("network_client", c.ID, "manufacturer", c.Manufacturer, "does not match the mac family")
			}
		}
		if c.FirstSeen > c.LastSeen {
			v.fail("network_client", c.ID, "firstSeen", "", "is after lastSeen")
		}
	}
}

func (v *validator) deviceClients() {
	for _, serial := range v.g.DeviceClientSerials() {
		d, ok := v.devices[serial]
		if !ok {
			v.dangling("device_client", serial, "serial", serial)
			continue
		}
		ids := map[string]bool{}
		for _, c := range v.g.DeviceClients[serial] {
			id := serial + "#" + c.ID
			if ids[c.ID] {
				v.fail("device_client", id, "id", c.ID, "is not unique for the device")
			}
			ids[c.ID] = true
			if c.RecentDeviceSerial != serial {
				v.fail("device_client", id, "recentDeviceSerial", c.RecentDeviceSerial, "differs from the device it is listed under")
			}
			if c.NetworkID != "" && c.NetworkID != d.NetworkID {
				v.fail("device_client", id, "networkId", c.NetworkID, "differs from the device's network")
			}
			if !v.inNetwork(d.NetworkID, c.IP) {
				v.fail("device_client", id, "ip", c.IP, "is outside the network's subnets")
			}
		}
	}
}

func (v *validator) vpnConfigs() {
	seen := map[string]bool{}
	for _, cfg := range v.g.VPNConfigs {
		if seen[cfg.NetworkID] {
			v.fail("vpn_config", cfg.NetworkID, "networkId", cfg.NetworkID, "has more than one VPN config")
		}
		seen[cfg.NetworkID] = true
		if _, ok := v.networks[cfg.NetworkID]; !ok {
			v.dangling("vpn_config", cfg.NetworkID, "networkId", cfg.NetworkID)
		}
		if cfg.Mode == model.VPNModeSpoke && len(cfg.Hubs) == 0 {
			v.fail("vpn_config", cfg.NetworkID, "hubs", "", "spoke has no hub")
		}
		for _, h := range cfg.Hubs {
			if _, ok := v.networks[h.HubID]; !ok {
				v.dangling("vpn_config", cfg.NetworkID, "hubs", h.HubID)
			}
		}
	}
}

func (v *validator) profilesAndPools() {
	profiles := map[[2]string]bool{}
	for _, p := range v.g.VLANProfiles {
		if _, ok := v.networks[p.NetworkID]; !ok {
			v.dangling("vlan_profile", p.IName, "networkId", p.NetworkID)
		}
		key := [2]string{p.NetworkID, p.IName}
		if profiles[key] {
			v.fail("vlan_profile", p.IName, "iname", p.IName, "is not unique in its network")
		}
		profiles[key] = true
	}
	pools := map[string]bool{}
	for _, p := range v.g.CellularSubnetPools {
		if _, ok := v.networks[p.NetworkID]; !ok {
			v.dangling("cellular_subnet_pool", p.NetworkID, "networkId", p.NetworkID)
		}
		if pools[p.NetworkID] {
			v.fail("cellular_subnet_pool", p.NetworkID, "networkId", p.NetworkID, "has more than one pool")
		}
		pools[p.NetworkID] = true
		for _, s := range p.Subnets {
			if !contains(p.CIDR, s.ApplianceIP) || !within(p.CIDR, s.Subnet) {
				v.fail("cellular_subnet_pool", p.NetworkID, "subnets", s.Subnet, "is outside "+p.CIDR)
			}
		}
	}
}

func (v *validator) mac(entity, id, mac string) {
	if mac == "" {
		v.fail(entity, id, "mac", "", "must not be empty")
		return
	}
	if owner, dup := v.macs[mac]; dup {
		v.fail(entity, id, "mac", mac, "is also used by "+owner)
		return
	}
	v.macs[mac] = entity + " " + id
}

// clientNetwork returns the network of a client, falling back to its device
// when the network id was not carried
func (v *validator) clientNetwork(networkID, serial string) string {
	if networkID != "" {
		return networkID
	}
	return v.devices[serial].NetworkID
}

// inNetwork reports whether ip lies in one of the network's VLAN subnets. A
// network without VLANs has no addressing to check against.
func (v *validator) inNetwork(networkID, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	if len(v.subnets[networkID]) == 0 {
		return true
	}
	for _, p := range v.subnets[networkID] {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func contains(subnet, ip string) bool {
	prefix, err := netip.ParsePrefix(subnet)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	return err == nil && prefix.Masked().Contains(addr)
}

func within(outer, inner string) bool {
	o, err := netip.ParsePrefix(outer)
	if err != nil {
		return false
	}
	i, err := netip.ParsePrefix(inner)
	return err == nil && i.Bits() >= o.Bits() && o.Masked().Contains(i.Addr())
}
