package topology

import (
	"fmt"
	"strings"

	"github.com/martinsuchenak/toposeed/internal/generator"
	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/registry"
)

// Assemble builds the graph declared by def. Every id in the graph is taken
// from def or from an entity already placed, and VPN hubs are resolved after
// all networks exist.
func Assemble(def Definition) (*model.TopologyGraph, error) {
	if err := checkDefinition(def); err != nil {
		return nil, err
	}

	ref := def.reference()
	a := &assembly{
		graph:    model.NewTopologyGraph(def.Name, def.Description, def.Seed),
		networks: generator.NewNetworkGenerator(def.Seed),
		devices:  generator.NewDeviceGenerator(def.Seed, ref),
		clients:  generator.NewClientGenerator(def.Seed, ref),
		vlans:    map[string][]model.VLAN{},
	}

	for _, od := range def.Organizations {
		a.graph.Organizations = append(a.graph.Organizations, a.networks.GenerateOrganization(od.ID, od.Name, od.Region))
		for _, nd := range od.Networks {
			if err := a.network(od.ID, nd); err != nil {
				return nil, fmt.Errorf("topology %s: network %s: %w", def.Name, nd.ID, err)
			}
		}
	}

	for _, od := range def.Organizations {
		for _, nd := range od.Networks {
			if nd.VPN == nil {
				continue
			}
			if err := a.vpn(nd); err != nil {
				return nil, fmt.Errorf("topology %s: network %s: %w", def.Name, nd.ID, err)
			}
		}
	}

	a.graph.Stats = a.graph.ComputeStats()
	return a.graph, nil
}

// Registered wraps def as a registry entry whose default seed is def.Seed
func Registered(def Definition) registry.Topology {
	return registry.Topology{
		Name:        def.Name,
		Description: def.Description,
		DefaultSeed: def.Seed,
		Assemble: func(seed int64) (*model.TopologyGraph, error) {
			return Assemble(def.WithSeed(seed))
		},
	}
}

type assembly struct {
	graph    *model.TopologyGraph
	networks *generator.NetworkGenerator
	devices  *generator.DeviceGenerator
	clients  *generator.ClientGenerator
	vlans    map[string][]model.VLAN
}

func (a *assembly) network(orgID string, nd NetworkDef) error {
	loc := generator.LocationAt(nd.Location)
	productTypes := nd.ProductTypes
	if len(productTypes) == 0 {
		productTypes = nd.Devices.ProductTypes()
	}

	n, err := a.networks.GenerateNetwork(nd.ID, orgID, nd.Name, productTypes, loc.TimeZone, nd.Tags, nd.Notes)
	if err != nil {
		return err
	}
	vlans, err := a.networks.GenerateVLANsForNetwork(nd.ID, nd.VLANs, nd.Octet)
	if err != nil {
		return err
	}
	devices, availability, err := a.devices.GenerateDevicesForNetwork(nd.ID, orgID, loc, nd.Devices, nd.Octet)
	if err != nil {
		return err
	}
	clients, byDevice, err := a.clients.GenerateClientsForNetwork(nd.ID, vlans, nd.Clients, devices, nd.RequiredClients)
	if err != nil {
		return err
	}

	g := a.graph
	g.Networks = append(g.Networks, n)
	g.VLANs = append(g.VLANs, vlans...)
	g.Devices = append(g.Devices, devices...)
	g.DeviceAvailabilities = append(g.DeviceAvailabilities, availability...)
	g.NetworkClients = append(g.NetworkClients, clients...)
	for serial, dc := range byDevice {
		g.DeviceClients[serial] = append(g.DeviceClients[serial], dc...)
	}
	a.vlans[nd.ID] = vlans

	if p := nd.VLANProfile; p != nil {
		g.VLANProfiles = append(g.VLANProfiles, a.networks.GenerateVLANProfile(nd.ID, p.IName, p.Name, p.VLANNames, true))
	}
	if nd.CellularPool != "" {
		pool, err := a.networks.GenerateCellularSubnetPool(nd.ID, nd.CellularPool)
		if err != nil {
			return err
		}
		g.CellularSubnetPools = append(g.CellularSubnetPools, pool)
	}
	return nil
}

func (a *assembly) vpn(nd NetworkDef) error {
	hubs := make([]model.VPNHub, 0, len(nd.VPN.Hubs))
	for _, h := range nd.VPN.Hubs {
		if _, placed := a.vlans[h.Network]; !placed {
			return &IntegrityError{Entity: "vpn_config", ID: nd.ID, Field: "hubs", Missing: h.Network}
		}
		hubs = append(hubs, model.VPNHub{HubID: h.Network, UseDefaultRoute: h.UseDefaultRoute})
	}

	cfg, err := a.networks.GenerateVPNConfig(nd.ID, nd.VPN.Mode, generator.VPNSubnetsForVLANs(a.vlans[nd.ID]), hubs)
	if err != nil {
		return err
	}
	a.graph.VPNConfigs = append(a.graph.VPNConfigs, cfg)
	return nil
}

// reservedNames are store partitions that live outside every topology namespace
var reservedNames = map[string]bool{"CONFIG": true, "TOPOLOGY": true}

func checkDefinition(def Definition) error {
	if def.Name == "" {
		return definitionError("name is required")
	}
	if strings.ContainsAny(def.Name, "#/") {
		return definitionError("%q: name must not contain '#' or '/'", def.Name)
	}
	if reservedNames[def.Name] {
		return definitionError("%q: name is reserved", def.Name)
	}
	if len(def.Organizations) == 0 {
		return definitionError("%s: at least one organization is required", def.Name)
	}
	if def.NetworkCount() == 0 {
		return definitionError("%s: at least one network is required", def.Name)
	}

	orgs := map[string]bool{}
	networks := map[string]bool{}
	octets := map[int]string{}
	for _, od := range def.Organizations {
		if od.ID == "" {
			return definitionError("%s: organization id is required", def.Name)
		}
		if orgs[od.ID] {
			return definitionError("%s: duplicate organization %s", def.Name, od.ID)
		}
		orgs[od.ID] = true

		for _, nd := range od.Networks {
			if nd.ID == "" {
				return definitionError("%s: network id is required in organization %s", def.Name, od.ID)
			}
			if networks[nd.ID] {
				return definitionError("%s: duplicate network %s", def.Name, nd.ID)
			}
			networks[nd.ID] = true
			if nd.Octet < 0 || nd.Octet > 255 {
				return definitionError("%s: network %s octet %d out of range", def.Name, nd.ID, nd.Octet)
			}
			if owner, taken := octets[nd.Octet]; taken {
				return definitionError("%s: networks %s and %s share octet %d", def.Name, owner, nd.ID, nd.Octet)
			}
			octets[nd.Octet] = nd.ID
			if nd.Location < 0 {
				return definitionError("%s: network %s location must not be negative", def.Name, nd.ID)
			}
		}
	}
	return nil
}
