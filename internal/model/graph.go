package model

import "sort"

// Stats summarises a TopologyGraph. It is always derived from the entity lists.
type Stats struct {
	Organizations        int `json:"organizations"`
	Networks             int `json:"networks"`
	Devices              int `json:"devices"`
	DeviceAvailabilities int `json:"device_availabilities"`
	VLANs                int `json:"vlans"`
	VLANProfiles         int `json:"vlan_profiles"`
	Clients              int `json:"clients"`
	DeviceClients        int `json:"device_clients"`
	VPNConfigs           int `json:"vpn_configs"`
	CellularSubnetPools  int `json:"cellular_subnet_pools"`
}

// TopologyGraph is one complete, closed inventory produced from a single seed
type TopologyGraph struct {
	TopologyName         string                    `json:"topology_name"`
	Description          string                    `json:"description"`
	Seed                 int64                     `json:"seed"`
	Organizations        []Organization            `json:"organizations"`
	Networks             []Network                 `json:"networks"`
	Devices              []Device                  `json:"devices"`
	DeviceAvailabilities []DeviceAvailability      `json:"device_availabilities"`
	VLANs                []VLAN                    `json:"vlans"`
	VLANProfiles         []VLANProfile             `json:"vlan_profiles"`
	NetworkClients       []NetworkClient           `json:"network_clients"`
	DeviceClients        map[string][]DeviceClient `json:"device_clients"`
	VPNConfigs           []VPNConfig               `json:"vpn_configs"`
	CellularSubnetPools  []CellularSubnetPool      `json:"cellular_subnet_pools"`
	Stats                Stats                     `json:"stats"`
}

// NewTopologyGraph returns a graph with every list present and empty
func NewTopologyGraph(name, description string, seed int64) *TopologyGraph {
	return &TopologyGraph{
		TopologyName:         name,
		Description:          description,
		Seed:                 seed,
		Organizations:        []Organization{},
		Networks:             []Network{},
		Devices:              []Device{},
		DeviceAvailabilities: []DeviceAvailability{},
		VLANs:                []VLAN{},
		VLANProfiles:         []VLANProfile{},
		NetworkClients:       []NetworkClient{},
		DeviceClients:        map[string][]DeviceClient{},
		VPNConfigs:           []VPNConfig{},
		CellularSubnetPools:  []CellularSubnetPool{},
	}
}

// ComputeStats counts the entity lists
func (g *TopologyGraph) ComputeStats() Stats {
	deviceClients := 0
	for _, clients := range g.DeviceClients {
		deviceClients += len(clients)
	}
	return Stats{
		Organizations:        len(g.Organizations),
		Networks:             len(g.Networks),
		Devices:              len(g.Devices),
		DeviceAvailabilities: len(g.DeviceAvailabilities),
		VLANs:                len(g.VLANs),
		VLANProfiles:         len(g.VLANProfiles),
		Clients:              len(g.NetworkClients),
		DeviceClients:        deviceClients,
		VPNConfigs:           len(g.VPNConfigs),
		CellularSubnetPools:  len(g.CellularSubnetPools),
	}
}

// DeviceClientSerials returns the keys of DeviceClients in sorted order
func (g *TopologyGraph) DeviceClientSerials() []string {
	serials := make([]string, 0, len(g.DeviceClients))
	for serial := range g.DeviceClients {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}
