package seed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/storage"
	"github.com/martinsuchenak/toposeed/internal/topology"
)

func TestFlatten_RecordCounts(t *testing.T) {
	g := assemble(t, topology.HubSpoke())
	records, err := Flatten(g)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	counts := map[string]int{}
	for _, r := range records {
		counts[r.EntityType]++
		if r.Topology != "hub_spoke" {
			t.Fatalf("record %s has topology %q", r.Key(), r.Topology)
		}
	}

	st := g.Stats
	want := map[string]int{
		EntityOrganization:       st.Organizations,
		EntityNetwork:            st.Networks,
		EntityDevice:             st.Devices,
		EntityDeviceAvailability: st.DeviceAvailabilities,
		EntityVLAN:               st.VLANs,
		EntityVLANProfile:        st.VLANProfiles,
		EntityNetworkClient:      st.Clients,
		EntityDeviceClient:       st.DeviceClients,
		EntityVPNConfig:          st.VPNConfigs,
		EntityCellularPool:       st.CellularSubnetPools,
	}
	for entity, n := range want {
		if counts[entity] != n {
			t.Errorf("%s records = %d, want %d", entity, counts[entity], n)
		}
	}
}

func TestFlatten_KeySchema(t *testing.T) {
	g := assemble(t, labDefinition("lab"))
	records, err := Flatten(g)
	if err != nil {
		t.Fatal(err)
	}

	byKey := map[storage.Key]storage.Record{}
	for _, r := range records {
		byKey[r.Key()] = r
	}

	d := g.Devices[0]
	c := g.NetworkClients[0]
	v := g.VLANs[0]
	tests := []struct {
		name   string
		key    storage.Key
		gsi1pk string
		gsi1sk string
	}{
		{"organization", storage.Key{PK: "lab#organization", SK: "O1"}, "", ""},
		{"network", storage.Key{PK: "lab#network", SK: "N1"}, "lab#organization#O1", "network#N1"},
		{"device", storage.Key{PK: "lab#device", SK: d.Serial}, "lab#organization#O1", "device#" + d.Serial},
		{"availability", storage.Key{PK: "lab#device_availability", SK: d.Serial}, "lab#organization#O1", "device_availability#" + d.Serial},
		{"vlan", storage.Key{PK: "lab#vlan", SK: v.NetworkID + "#" + v.ID}, "lab#network#" + v.NetworkID, "vlan#" + v.ID},
		{"network client", storage.Key{PK: "lab#network_client", SK: c.ID}, "lab#network#" + c.NetworkID, "network_client#" + c.ID},
		{"device client", storage.Key{PK: "lab#client", SK: c.RecentDeviceSerial + "#" + c.ID}, "lab#device#" + c.RecentDeviceSerial, "client#" + c.ID},
		{"vpn", storage.Key{PK: "lab#vpn_config", SK: "N2"}, "lab#network#N2", "vpn_config#N2"},
		{"profile", storage.Key{PK: "lab#vlan_profile", SK: "N1#Default"}, "lab#network#N1", "vlan_profile#Default"},
		{"cellular pool", storage.Key{PK: "lab#cellular_subnet_pool", SK: "N1"}, "lab#network#N1", "cellular_subnet_pool#N1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := byKey[tt.key]
			if !ok {
				t.Fatalf("no record %s", tt.key)
			}
			if r.GSI1PK != tt.gsi1pk || r.GSI1SK != tt.gsi1sk {
				t.Errorf("index = %s/%s, want %s/%s", r.GSI1PK, r.GSI1SK, tt.gsi1pk, tt.gsi1sk)
			}
			if !json.Valid(r.Data) {
				t.Errorf("data is not JSON: %s", r.Data)
			}
		})
	}
}

func TestFlatten_DuplicateKey(t *testing.T) {
	g := assemble(t, labDefinition("lab"))
	g.Devices = append(g.Devices, g.Devices[0])

	if _, err := Flatten(g); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Flatten() error = %v, want ErrDuplicateKey", err)
	}
}

// TestCorrelationChain walks client, device, network and organization
// through the secondary index and primary keys only
func TestCorrelationChain(t *testing.T) {
	s := setupStore(t)
	e := NewEngine(s, testOptions())
	ctx := context.Background()
	g := assemble(t, labDefinition("lab"))
	if _, err := e.Seed(ctx, g, false); err != nil {
		t.Fatal(err)
	}

	for _, d := range g.Devices {
		clients, err := s.QueryIndex(ctx, IndexKey("lab", EntityDevice, d.Serial))
		if err != nil {
			t.Fatal(err)
		}
		if len(clients) != len(g.DeviceClients[d.Serial]) {
			t.Errorf("device %s: %d client records, want %d", d.Serial, len(clients), len(g.DeviceClients[d.Serial]))
		}
		for _, r := range clients {
			var c model.DeviceClient
			if err := json.Unmarshal(r.Data, &c); err != nil {
				t.Fatal(err)
			}

			dr, err := s.Get(ctx, storage.Key{PK: PartitionKey("lab", EntityDevice), SK: c.RecentDeviceSerial})
			if err != nil {
				t.Fatalf("client %s: device: %v", c.ID, err)
			}
			var dev model.Device
			json.Unmarshal(dr.Data, &dev)

			nr, err := s.Get(ctx, storage.Key{PK: PartitionKey("lab", EntityNetwork), SK: dev.NetworkID})
			if err != nil {
				t.Fatalf("device %s: network: %v", dev.Serial, err)
			}
			var n model.Network
			json.Unmarshal(nr.Data, &n)

			if _, err := s.Get(ctx, storage.Key{PK: PartitionKey("lab", EntityOrganization), SK: n.OrganizationID}); err != nil {
				t.Fatalf("network %s: organization: %v", n.ID, err)
			}
		}
	}

	networks, err := s.QueryIndex(ctx, IndexKey("lab", EntityOrganization, "O1"))
	if err != nil {
		t.Fatal(err)
	}
	kinds := map[string]int{}
	for _, r := range networks {
		kinds[r.EntityType]++
	}
	if kinds[EntityNetwork] != 2 || kinds[EntityDevice] != len(g.Devices) {
		t.Errorf("organization index = %v", kinds)
	}
}
