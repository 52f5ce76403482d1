package seed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/storage"
)

// Entity types stored in Record.EntityType
const (
	EntityOrganization       = "organization"
	EntityNetwork            = "network"
	EntityDevice             = "device"
	EntityDeviceAvailability = "device_availability"
	EntityVLAN               = "vlan"
	EntityVLANProfile        = "vlan_profile"
	EntityNetworkClient      = "network_client"
	EntityDeviceClient       = "client"
	EntityVPNConfig          = "vpn_config"
	EntityCellularPool       = "cellular_subnet_pool"
	EntityConfig             = "config"
	EntityTopology           = "topology"
)

var ErrDuplicateKey = errors.New("duplicate record key")

// Namespace returns the partition key prefix that isolates one topology
func Namespace(topology string) string {
	return topology + "#"
}

// PartitionKey returns the partition holding every entity of one type
func PartitionKey(topology, entity string) string {
	return Namespace(topology) + entity
}

// IndexKey returns the secondary index partition of a parent entity
func IndexKey(topology, parent, id string) string {
	return Namespace(topology) + parent + "#" + id
}

type flattener struct {
	topology string
	records  []storage.Record
	keys     map[storage.Key]bool
}

// Flatten converts every entity list of g into store records. The secondary
// index keys let a reader walk client, device, network and organization
// without scanning.
func Flatten(g *model.TopologyGraph) ([]storage.Record, error) {
	if g.TopologyName == "" {
		return nil, errors.New("flatten: graph has no topology name")
	}
	f := &flattener{topology: g.TopologyName, keys: map[storage.Key]bool{}}
	t := g.TopologyName

	for _, o := range g.Organizations {
		if err := f.add(EntityOrganization, o.ID, "", "", o); err != nil {
			return nil, err
		}
	}
	for _, n := range g.Networks {
		if err := f.add(EntityNetwork, n.ID, IndexKey(t, EntityOrganization, n.OrganizationID), "network#"+n.ID, n); err != nil {
			return nil, err
		}
	}

	orgOf := make(map[string]string, len(g.Devices))
	for _, d := range g.Devices {
		orgOf[d.Serial] = d.OrganizationID
		if err := f.add(EntityDevice, d.Serial, IndexKey(t, EntityOrganization, d.OrganizationID), "device#"+d.Serial, d); err != nil {
			return nil, err
		}
	}
	for _, a := range g.DeviceAvailabilities {
		if err := f.add(EntityDeviceAvailability, a.Serial, IndexKey(t, EntityOrganization, orgOf[a.Serial]), "device_availability#"+a.Serial, a); err != nil {
			return nil, err
		}
	}
	for _, v := range g.VLANs {
		if err := f.add(EntityVLAN, v.NetworkID+"#"+v.ID, IndexKey(t, EntityNetwork, v.NetworkID), "vlan#"+v.ID, v); err != nil {
			return nil, err
		}
	}
	for _, p := range g.VLANProfiles {
		if err := f.add(EntityVLANProfile, p.NetworkID+"#"+p.IName, IndexKey(t, EntityNetwork, p.NetworkID), "vlan_profile#"+p.IName, p); err != nil {
			return nil, err
		}
	}
	for _, c := range g.NetworkClients {
		if err := f.add(EntityNetworkClient, c.ID, IndexKey(t, EntityNetwork, c.NetworkID), "network_client#"+c.ID, c); err != nil {
			return nil, err
		}
	}
	for _, serial := range g.DeviceClientSerials() {
		for _, c := range g.DeviceClients[serial] {
			if err := f.add(EntityDeviceClient, serial+"#"+c.ID, IndexKey(t, EntityDevice, serial), "client#"+c.ID, c); err != nil {
				return nil, err
			}
		}
	}
	for _, v := range g.VPNConfigs {
		if err := f.add(EntityVPNConfig, v.NetworkID, IndexKey(t, EntityNetwork, v.NetworkID), "vpn_config#"+v.NetworkID, v); err != nil {
			return nil, err
		}
	}
	for _, p := range g.CellularSubnetPools {
		if err := f.add(EntityCellularPool, p.NetworkID, IndexKey(t, EntityNetwork, p.NetworkID), "cellular_subnet_pool#"+p.NetworkID, p); err != nil {
			return nil, err
		}
	}
	return f.records, nil
}

func (f *flattener) add(entity, sk, gsi1pk, gsi1sk string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("flatten %s %s: %w", entity, sk, err)
	}

	r := storage.Record{
		PK:         PartitionKey(f.topology, entity),
		SK:         sk,
		GSI1PK:     gsi1pk,
		GSI1SK:     gsi1sk,
		EntityType: entity,
		Topology:   f.topology,
		Data:       data,
	}
	if f.keys[r.Key()] {
		return fmt.Errorf("flatten: %s: %w", r.Key(), ErrDuplicateKey)
	}
	f.keys[r.Key()] = true
	f.records = append(f.records, r)
	return nil
}
