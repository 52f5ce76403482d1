package generator

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/martinsuchenak/toposeed/internal/model"
)

var testReference = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

var serialPattern = regexp.MustCompile(`^Q[23][0-9A-Z]{2}-[0-9A-Z]{4}-[0-9A-Z]{4}$`)

func TestDeviceGenerator_GenerateDevicesForNetwork_Switches(t *testing.T) {
	g := NewDeviceGenerator(42, testReference)
	cfg := DeviceConfig{
		Switches: []DeviceSpec{{Model: "MS225-48", Count: Count(2), NamePrefix: "SW"}},
	}

	devices, avail, err := g.GenerateDevicesForNetwork("N1", "O1", LocationAt(0), cfg, 100)
	if err != nil {
		t.Fatalf("GenerateDevicesForNetwork() error = %v", err)
	}
	if len(devices) != 2 || len(avail) != 2 {
		t.Fatalf("got %d devices, %d availabilities, want 2/2", len(devices), len(avail))
	}
	if devices[0].Serial == devices[1].Serial {
		t.Error("serials are not distinct")
	}
	wantNames := []string{"SW-01", "SW-02"}
	for i, d := range devices {
		if d.ProductType != model.ProductSwitch {
			t.Errorf("devices[%d].ProductType = %s", i, d.ProductType)
		}
		if d.Name != wantNames[i] {
			t.Errorf("devices[%d].Name = %s, want %s", i, d.Name, wantNames[i])
		}
		if !serialPattern.MatchString(d.Serial) {
			t.Errorf("serial %q does not match the serial format", d.Serial)
		}
		if d.Firmware != "MS 15.21" {
			t.Errorf("Firmware = %s", d.Firmware)
		}
		if avail[i].Serial != d.Serial || avail[i].Network.ID != "N1" {
			t.Errorf("availability %+v does not match device", avail[i])
		}
	}
	if devices[0].LanIP != "192.168.100.2" || devices[1].LanIP != "192.168.100.3" {
		t.Errorf("lanIps = %s, %s", devices[0].LanIP, devices[1].LanIP)
	}
}

func TestDeviceGenerator_GenerateDevice(t *testing.T) {
	loc := LocationAt(1)

	tests := []struct {
		name        string
		productType string
		model       string
		wantErr     bool
	}{
		{"appliance", model.ProductAppliance, "MX250", false},
		{"cellular gateway", model.ProductCellularGateway, "MG41", false},
		{"sensor", model.ProductSensor, "MT10", false},
		{"appliance model tagged wireless", model.ProductWireless, "MX250", true},
		{"unknown model", model.ProductSwitch, "MS999", true},
		{"unknown product type", "router", "MX250", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDeviceGenerator(1, testReference)
			d, err := g.GenerateDevice("N1", "O1", tt.productType, tt.model, "dev", loc, 7, 0, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateDevice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error %v is not a validation error", err)
				}
				return
			}
			if d.Lat != loc.Lat || d.Lng != loc.Lng || d.TimeZone != loc.TimeZone {
				t.Errorf("location not copied: %+v", d)
			}
			switch tt.productType {
			case model.ProductAppliance:
				if d.Wan1IP == "" {
					t.Error("appliance without wan1Ip")
				}
			case model.ProductCellularGateway:
				if len(d.IMEI) != 15 {
					t.Errorf("IMEI = %q", d.IMEI)
				}
			case model.ProductSensor:
				if d.Serial[:2] != "Q3" {
					t.Errorf("sensor serial %s", d.Serial)
				}
			}
			updated, err := time.Parse(time.RFC3339, d.ConfigurationUpdatedAt)
			if err != nil || !updated.Before(testReference) {
				t.Errorf("ConfigurationUpdatedAt = %q", d.ConfigurationUpdatedAt)
			}
		})
	}
}

func TestDeviceGenerator_RejectsReuse(t *testing.T) {
	g := NewDeviceGenerator(1, testReference)
	loc := LocationAt(0)

	if _, err := g.GenerateDevice("N1", "O1", model.ProductSwitch, "MS120-8", "a", loc, 5, 0, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := g.GenerateDevice("N1", "O1", model.ProductSwitch, "MS120-8", "b", loc, 5, 0, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("reused index error = %v", err)
	}
	if _, err := g.GenerateDevice("N2", "O1", model.ProductSwitch, "MS120-8", "c", loc, 5, 1, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("reused octet error = %v", err)
	}

	// a later batch for the same network continues after the used indexes
	devices, _, err := g.GenerateDevicesForNetwork("N1", "O1", loc, DeviceConfig{Wireless: []DeviceSpec{{Model: "MR46"}}}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if devices[0].LanIP != "192.168.5.3" {
		t.Errorf("LanIP = %s, want 192.168.5.3", devices[0].LanIP)
	}
}

func TestDeviceGenerator_InvalidConfigProducesNothing(t *testing.T) {
	g := NewDeviceGenerator(1, testReference)
	cfg := DeviceConfig{
		Switches: []DeviceSpec{{Model: "MS120-8", Count: Count(3)}},
		Wireless: []DeviceSpec{{Model: "MX68"}},
	}

	devices, avail, err := g.GenerateDevicesForNetwork("N1", "O1", LocationAt(0), cfg, 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if devices != nil || avail != nil {
		t.Error("partial output returned with error")
	}

	// nothing was reserved by the rejected call
	if _, err := g.GenerateDevice("N1", "O1", model.ProductSwitch, "MS120-8", "x", LocationAt(0), 1, 0, nil); err != nil {
		t.Errorf("index 0 was reserved by a rejected call: %v", err)
	}
}

func TestDeviceGenerator_EmptyConfig(t *testing.T) {
	g := NewDeviceGenerator(1, testReference)
	devices, avail, err := g.GenerateDevicesForNetwork("N1", "O1", LocationAt(0), DeviceConfig{}, 1)
	if err != nil {
		t.Fatalf("GenerateDevicesForNetwork() error = %v", err)
	}
	if len(devices) != 0 || len(avail) != 0 {
		t.Errorf("got %d devices", len(devices))
	}
}

func TestDeviceGenerator_SpecCount(t *testing.T) {
	tests := []struct {
		name    string
		count   *int
		want    int
		wantErr bool
	}{
		{"omitted count is one device", nil, 1, false},
		{"explicit zero is no devices", Count(0), 0, false},
		{"explicit count", Count(4), 4, false},
		{"negative count", Count(-1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDeviceGenerator(1, testReference)
			cfg := DeviceConfig{Wireless: []DeviceSpec{{Model: "MR46", Count: tt.count}}}
			devices, avail, err := g.GenerateDevicesForNetwork("N1", "O1", LocationAt(0), cfg, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateDevicesForNetwork() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(devices) != tt.want || len(avail) != tt.want {
				t.Errorf("got %d devices and %d availability records, want %d", len(devices), len(avail), tt.want)
			}
		})
	}
}

func TestDeviceConfig_ProductTypesSkipsEmptySpecs(t *testing.T) {
	cfg := DeviceConfig{
		Appliances: []DeviceSpec{{Model: "MX68"}},
		Cameras:    []DeviceSpec{{Model: "MV72", Count: Count(0)}},
	}
	got := cfg.ProductTypes()
	if len(got) != 1 || got[0] != model.ProductAppliance {
		t.Errorf("ProductTypes() = %v, want [%s]", got, model.ProductAppliance)
	}
}

func TestDeviceGenerator_DeviceNaming(t *testing.T) {
	g := NewDeviceGenerator(1, testReference)
	cfg := DeviceConfig{
		Appliances: []DeviceSpec{{Model: "MX250", Name: "HQ-MX"}},
		Wireless:   []DeviceSpec{{Model: "MR46", Count: Count(2)}},
	}

	devices, _, err := g.GenerateDevicesForNetwork("N_HQ", "O1", LocationAt(0), cfg, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"HQ-MX", "N_HQ-AP-01", "N_HQ-AP-02"}
	for i, d := range devices {
		if d.Name != want[i] {
			t.Errorf("devices[%d].Name = %s, want %s", i, d.Name, want[i])
		}
	}
	if got := cfg.ProductTypes(); !reflect.DeepEqual(got, []string{"appliance", "wireless"}) {
		t.Errorf("ProductTypes() = %v", got)
	}
}

func TestDeviceGenerator_AvailabilityStable(t *testing.T) {
	g := NewDeviceGenerator(1, testReference)
	d, err := g.GenerateDevice("N1", "O1", model.ProductWireless, "MR36", "ap", LocationAt(0), 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	first := g.GenerateDeviceAvailability(d)
	second := NewDeviceGenerator(7, testReference).GenerateDeviceAvailability(d)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("availability differs: %+v vs %+v", first, second)
	}
}

func TestDeviceGenerator_UniqueAcrossNetworks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		networks := rapid.IntRange(1, 12).Draw(t, "networks")
		perNetwork := rapid.IntRange(1, 40).Draw(t, "perNetwork")

		g := NewDeviceGenerator(seed, testReference)
		serials := map[string]bool{}
		macs := map[string]bool{}
		for n := 0; n < networks; n++ {
			cfg := DeviceConfig{
				Switches: []DeviceSpec{{Model: "MS120-24", Count: Count(perNetwork)}},
				Wireless: []DeviceSpec{{Model: "MR46", Count: Count(perNetwork)}},
			}
			devices, _, err := g.GenerateDevicesForNetwork("N"+itoa(n), "O1", LocationAt(n), cfg, n*20)
			if err != nil {
				t.Fatalf("GenerateDevicesForNetwork() error = %v", err)
			}
			for _, d := range devices {
				if serials[d.Serial] {
					t.Fatalf("duplicate serial %s", d.Serial)
				}
				if macs[d.MAC] {
					t.Fatalf("duplicate mac %s", d.MAC)
				}
				serials[d.Serial] = true
				macs[d.MAC] = true
			}
		}
	})
}

func TestDeviceGenerator_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		cfg := DeviceConfig{
			Appliances: []DeviceSpec{{Model: "MX85"}},
			Cellular:   []DeviceSpec{{Model: "MG21"}},
			Cameras:    []DeviceSpec{{Model: "MV72", Count: Count(3)}},
		}

		a, aa, errA := NewDeviceGenerator(seed, testReference).GenerateDevicesForNetwork("N1", "O1", LocationAt(3), cfg, 4)
		b, bb, errB := NewDeviceGenerator(seed, testReference).GenerateDevicesForNetwork("N1", "O1", LocationAt(3), cfg, 4)
		if errA != nil || errB != nil {
			t.Fatalf("errors: %v, %v", errA, errB)
		}
		if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(aa, bb) {
			t.Fatal("same seed produced different devices")
		}
	})
}
