// Package topology declares named inventories and assembles them into graphs.
//
// A Definition is plain data: organizations, their networks and the per
// network device, VLAN, client and VPN settings. Assemble turns a Definition
// into a closed TopologyGraph with one pass over the generators. The built-in
// topologies and any YAML definitions go through the same Assemble.
package topology

import (
	"time"

	"github.com/martinsuchenak/toposeed/internal/generator"
)

// DefaultReference is the instant every generated timestamp is measured back from
var DefaultReference = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Definition is the declarative form of one topology
type Definition struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Seed          int64             `yaml:"seed"`
	Reference     time.Time         `yaml:"reference_time,omitempty"`
	Organizations []OrganizationDef `yaml:"organizations"`
}

// OrganizationDef declares one organization and its networks
type OrganizationDef struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Region   string       `yaml:"region,omitempty"`
	Networks []NetworkDef `yaml:"networks"`
}

// NetworkDef declares one network. Octet is the third octet of every address
// in the network and must be unique within the definition.
type NetworkDef struct {
	ID              string                 `yaml:"id"`
	Name            string                 `yaml:"name"`
	Location        int                    `yaml:"location"`
	Octet           int                    `yaml:"octet"`
	ProductTypes    []string               `yaml:"product_types,omitempty"`
	Tags            []string               `yaml:"tags,omitempty"`
	Notes           string                 `yaml:"notes,omitempty"`
	Devices         generator.DeviceConfig `yaml:"devices"`
	VLANs           []string               `yaml:"vlans"`
	VLANProfile     *VLANProfileDef        `yaml:"vlan_profile,omitempty"`
	Clients         int                    `yaml:"clients,omitempty"`
	RequiredClients []string               `yaml:"required_clients,omitempty"`
	VPN             *VPNDef                `yaml:"vpn,omitempty"`
	CellularPool    string                 `yaml:"cellular_pool,omitempty"`
}

// VLANProfileDef declares the default VLAN profile of a network
type VLANProfileDef struct {
	IName     string   `yaml:"iname"`
	Name      string   `yaml:"name"`
	VLANNames []string `yaml:"vlan_names"`
}

// VPNDef declares the site-to-site role of a network. Hubs name networks of
// the same definition.
type VPNDef struct {
	Mode string   `yaml:"mode"`
	Hubs []HubDef `yaml:"hubs,omitempty"`
}

type HubDef struct {
	Network         string `yaml:"network"`
	UseDefaultRoute bool   `yaml:"use_default_route"`
}

// WithSeed returns a copy of d that assembles with seed
func (d Definition) WithSeed(seed int64) Definition {
	d.Seed = seed
	return d
}

func (d Definition) reference() time.Time {
	if d.Reference.IsZero() {
		return DefaultReference
	}
	return d.Reference
}

// NetworkCount returns the number of declared networks
func (d Definition) NetworkCount() int {
	n := 0
	for _, o := range d.Organizations {
		n += len(o.Networks)
	}
	return n
}
