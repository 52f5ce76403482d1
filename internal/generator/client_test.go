package generator

import (
	"errors"
	"net/netip"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/martinsuchenak/toposeed/internal/model"
)

// fataler is the part of testing.TB that rapid.T also provides
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// setupNetwork builds the VLANs and devices of one test network
func setupNetwork(t fataler, seed int64, networkID string, octet int, cfg DeviceConfig, vlanTypes []string) ([]model.VLAN, []model.Device) {
	t.Helper()

	vlans, err := NewNetworkGenerator(seed).GenerateVLANsForNetwork(networkID, vlanTypes, octet)
	if err != nil {
		t.Fatalf("GenerateVLANsForNetwork() error = %v", err)
	}
	devices, _, err := NewDeviceGenerator(seed, testReference).GenerateDevicesForNetwork(networkID, "O1", LocationAt(0), cfg, octet)
	if err != nil {
		t.Fatalf("GenerateDevicesForNetwork() error = %v", err)
	}
	return vlans, devices
}

var mixedDevices = DeviceConfig{
	Appliances: []DeviceSpec{{Model: "MX68"}},
	Switches:   []DeviceSpec{{Model: "MS120-24", Count: Count(2)}},
	Wireless:   []DeviceSpec{{Model: "MR36", Count: Count(3)}},
}

func TestClientGenerator_ZeroCount(t *testing.T) {
	tests := []struct {
		name    string
		devices []model.Device
	}{
		{"no devices", nil},
		{"with devices", []model.Device{{Serial: "Q2AA-0000-0000", NetworkID: "elsewhere"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewClientGenerator(1, testReference)
			clients, byDevice, err := g.GenerateClientsForNetwork("N1", nil, 0, tt.devices, nil)
			if err != nil {
				t.Fatalf("GenerateClientsForNetwork() error = %v", err)
			}
			if clients == nil || len(clients) != 0 {
				t.Errorf("clients = %v, want empty list", clients)
			}
			if byDevice == nil || len(byDevice) != 0 {
				t.Errorf("device clients = %v, want empty map", byDevice)
			}
		})
	}
}

func TestClientGenerator_Invalid(t *testing.T) {
	vlans, devices := setupNetwork(t, 1, "N1", 10, mixedDevices, []string{"corporate"})
	foreign := append([]model.Device{}, devices...)
	foreign[0].NetworkID = "N2"

	tests := []struct {
		name     string
		vlans    []model.VLAN
		count    int
		devices  []model.Device
		required []string
	}{
		{"no devices", vlans, 5, nil, nil},
		{"no vlans", nil, 5, devices, nil},
		{"negative count", vlans, -1, devices, nil},
		{"device from another network", vlans, 5, foreign, nil},
		{"unknown required key", vlans, 5, devices, []string{"Nokia Phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewClientGenerator(1, testReference)
			clients, byDevice, err := g.GenerateClientsForNetwork("N1", tt.vlans, tt.count, tt.devices, tt.required)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
			if clients != nil || byDevice != nil {
				t.Error("partial output returned with error")
			}
		})
	}
}

func TestClientGenerator_GenerateClientsForNetwork(t *testing.T) {
	vlans, devices := setupNetwork(t, 3, "N1", 42, mixedDevices, []string{"corporate", "guest", "voice", "management"})
	g := NewClientGenerator(3, testReference)

	clients, byDevice, err := g.GenerateClientsForNetwork("N1", vlans, 60, devices, []string{"Samsung TV", "HP Printer"})
	if err != nil {
		t.Fatalf("GenerateClientsForNetwork() error = %v", err)
	}
	if len(clients) != 60 {
		t.Fatalf("got %d clients, want 60", len(clients))
	}

	if clients[0].Manufacturer != "Samsung" || clients[0].MAC[:8] != "8c:79:f5" {
		t.Errorf("first client %s/%s, want Samsung TV family", clients[0].Manufacturer, clients[0].MAC)
	}
	if clients[1].Manufacturer != "HP" || clients[1].MAC[:8] != "c8:b5:ad" {
		t.Errorf("second client %s/%s, want HP printer family", clients[1].Manufacturer, clients[1].MAC)
	}

	vlanByID := map[string]model.VLAN{}
	for _, v := range vlans {
		vlanByID[v.ID] = v
	}
	deviceBySerial := map[string]model.Device{}
	for _, d := range devices {
		deviceBySerial[d.Serial] = d
	}

	perVLAN := map[string]int{}
	total := 0
	for _, c := range clients {
		v, ok := vlanByID[c.VLAN]
		if !ok {
			t.Fatalf("client %s on unknown VLAN %s", c.ID, c.VLAN)
		}
		perVLAN[c.VLAN]++
		if !netip.MustParsePrefix(v.Subnet).Contains(netip.MustParseAddr(c.IP)) {
			t.Errorf("client ip %s outside %s", c.IP, v.Subnet)
		}
		if c.FirstSeen > c.LastSeen || c.LastSeen > testReference.Unix() {
			t.Errorf("firstSeen %d lastSeen %d", c.FirstSeen, c.LastSeen)
		}
		d, ok := deviceBySerial[c.RecentDeviceSerial]
		if !ok || d.NetworkID != "N1" {
			t.Fatalf("client %s attached to unknown device %q", c.ID, c.RecentDeviceSerial)
		}
		if c.RecentDeviceConnection == model.ConnectionWireless && d.ProductType != model.ProductWireless {
			t.Errorf("wireless client on %s", d.ProductType)
		}
		if c.RecentDeviceConnection == model.ConnectionWired && d.ProductType != model.ProductSwitch {
			t.Errorf("wired client on %s", d.ProductType)
		}
		if c.RecentDeviceConnection == model.ConnectionWired && (c.Switchport == nil || c.SSID != nil) {
			t.Errorf("wired client %s has ssid or no switchport", c.ID)
		}
		if c.RecentDeviceConnection == model.ConnectionWireless && (c.SSID == nil || c.Switchport != nil) {
			t.Errorf("wireless client %s has switchport or no ssid", c.ID)
		}
	}
	for _, dc := range byDevice {
		total += len(dc)
	}
	if total != len(clients) {
		t.Errorf("device clients = %d, want %d", total, len(clients))
	}

	// weights 6:4:1:1 over 12 picks, repeated 5 times
	want := map[string]int{"10": 30, "20": 20, "30": 5, "99": 5}
	if !reflect.DeepEqual(perVLAN, want) {
		t.Errorf("clients per VLAN = %v, want %v", perVLAN, want)
	}
}

func TestClientGenerator_AffinityFallback(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DeviceConfig
		wantType string
		wantConn string
	}{
		{"only access points", DeviceConfig{Wireless: []DeviceSpec{{Model: "MR46"}}}, model.ProductWireless, model.ConnectionWireless},
		{"only switches", DeviceConfig{Switches: []DeviceSpec{{Model: "MS120-8"}}}, model.ProductSwitch, model.ConnectionWired},
		{"only appliance", DeviceConfig{Appliances: []DeviceSpec{{Model: "MX67"}}}, model.ProductAppliance, model.ConnectionWired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vlans, devices := setupNetwork(t, 9, "N1", 3, tt.cfg, []string{"corporate", "iot"})
			clients, _, err := NewClientGenerator(9, testReference).GenerateClientsForNetwork("N1", vlans, 25, devices, nil)
			if err != nil {
				t.Fatalf("GenerateClientsForNetwork() error = %v", err)
			}
			for _, c := range clients {
				if c.RecentDeviceSerial != devices[0].Serial {
					t.Errorf("client attached to %s", c.RecentDeviceSerial)
				}
				if c.RecentDeviceConnection != tt.wantConn {
					t.Errorf("connection = %s, want %s", c.RecentDeviceConnection, tt.wantConn)
				}
			}
		})
	}
}

func TestClientGenerator_FixedFamiliesAreWired(t *testing.T) {
	vlans, devices := setupNetwork(t, 4, "N1", 12, mixedDevices, []string{"corporate", "iot"})
	switches := map[string]bool{}
	for _, d := range devices {
		if d.ProductType == model.ProductSwitch {
			switches[d.Serial] = true
		}
	}

	required := []string{"Zebra", "Honeywell", "HP Printer", "Cisco", "Zebra", "Honeywell"}
	clients, _, err := NewClientGenerator(4, testReference).GenerateClientsForNetwork("N1", vlans, len(required), devices, required)
	if err != nil {
		t.Fatalf("GenerateClientsForNetwork() error = %v", err)
	}
	for i, c := range clients {
		if c.RecentDeviceConnection != model.ConnectionWired {
			t.Errorf("client %d (%s) connection = %s, want %s", i, required[i], c.RecentDeviceConnection, model.ConnectionWired)
		}
		if !switches[c.RecentDeviceSerial] {
			t.Errorf("client %d (%s) attached to %s, want a switch", i, required[i], c.RecentDeviceSerial)
		}
	}
}

func TestClientGenerator_GenerateDeviceClient(t *testing.T) {
	vlans, _ := setupNetwork(t, 1, "N1", 10, DeviceConfig{}, []string{"corporate"})
	g := NewClientGenerator(1, testReference)

	c, err := g.GenerateNetworkClient(g.NextClientID(), "N1", vlans[0], 4)
	if err != nil {
		t.Fatalf("GenerateNetworkClient() error = %v", err)
	}
	if c.IP != "192.168.10.6" {
		t.Errorf("IP = %s, want 192.168.10.6", c.IP)
	}
	if c.Usage.Total != c.Usage.Sent+c.Usage.Recv {
		t.Errorf("usage total %d", c.Usage.Total)
	}

	dc := g.GenerateDeviceClient(c)
	if dc.ID != c.ID || dc.MAC != c.MAC || dc.IP != c.IP || dc.VLAN != c.VLAN {
		t.Errorf("device client %+v does not match %+v", dc, c)
	}
	if dc.Usage.Sent != c.Usage.Sent/1000 || dc.Usage.Total != 0 {
		t.Errorf("device client usage = %+v", dc.Usage)
	}
	if len(dc.DHCPHostname) > 15 {
		t.Errorf("dhcpHostname %q longer than 15", dc.DHCPHostname)
	}
}

func TestClientGenerator_FamilyConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		count := rapid.IntRange(1, 200).Draw(t, "count")

		vlans, devices := setupNetwork(t, seed, "N1", 20, mixedDevices, []string{"corporate", "guest", "iot", "server"})
		clients, _, err := NewClientGenerator(seed, testReference).GenerateClientsForNetwork("N1", vlans, count, devices, nil)
		if err != nil {
			t.Fatalf("GenerateClientsForNetwork() error = %v", err)
		}

		ids := map[string]bool{}
		macs := map[string]bool{}
		for _, c := range clients {
			family, ok := FamilyByOUI(c.MAC[:8])
			if !ok {
				t.Fatalf("mac %s has no known family", c.MAC)
			}
			if family.Manufacturer != c.Manufacturer {
				t.Fatalf("mac family %s labelled %s", family.Manufacturer, c.Manufacturer)
			}
			if ids[c.ID] || macs[c.MAC] {
				t.Fatalf("duplicate client id %s or mac %s", c.ID, c.MAC)
			}
			ids[c.ID] = true
			macs[c.MAC] = true
		}
	})
}

func TestClientGenerator_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		vlans, devices := setupNetwork(t, seed, "N1", 20, mixedDevices, []string{"corporate", "voice"})

		a, am, _ := NewClientGenerator(seed, testReference).GenerateClientsForNetwork("N1", vlans, 30, devices, []string{"Cisco"})
		b, bm, _ := NewClientGenerator(seed, testReference).GenerateClientsForNetwork("N1", vlans, 30, devices, []string{"Cisco"})
		if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(am, bm) {
			t.Fatal("same seed produced different clients")
		}
	})
}

func TestVLANPicker_Interleaves(t *testing.T) {
	vlans := []model.VLAN{{ID: "10"}, {ID: "20"}, {ID: "99"}}
	p := newVLANPicker(vlans)

	var got []string
	for i := 0; i < 11; i++ {
		got = append(got, p.next().ID)
	}
	want := []string{"10", "20", "10", "20", "10", "99", "10", "20", "10", "20", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("picks = %v, want %v", got, want)
	}
}
