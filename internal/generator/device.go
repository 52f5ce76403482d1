package generator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/random"
)

// MaxDevicesPerNetwork bounds deviceIndex so serial and mac suffixes stay unique
const MaxDevicesPerNetwork = 1 << 16

const serialAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DeviceSpec declares count devices of one model. A nil Count means one
// device; an explicit zero means none.
type DeviceSpec struct {
	Model      string   `json:"model" yaml:"model"`
	Count      *int     `json:"count,omitempty" yaml:"count,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	NamePrefix string   `json:"name_prefix,omitempty" yaml:"name_prefix,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DeviceConfig lists the devices of one network per category. Categories are
// expanded in field order.
type DeviceConfig struct {
	Appliances []DeviceSpec `json:"appliances,omitempty" yaml:"appliances,omitempty"`
	Switches   []DeviceSpec `json:"switches,omitempty" yaml:"switches,omitempty"`
	Wireless   []DeviceSpec `json:"wireless,omitempty" yaml:"wireless,omitempty"`
	Cellular   []DeviceSpec `json:"cellular,omitempty" yaml:"cellular,omitempty"`
	Cameras    []DeviceSpec `json:"cameras,omitempty" yaml:"cameras,omitempty"`
	Sensors    []DeviceSpec `json:"sensors,omitempty" yaml:"sensors,omitempty"`
}

type deviceCategory struct {
	productType string
	prefix      string
	specs       []DeviceSpec
}

func (c DeviceConfig) categories() []deviceCategory {
	return []deviceCategory{
		{model.ProductAppliance, "MX", c.Appliances},
		{model.ProductSwitch, "SW", c.Switches},
		{model.ProductWireless, "AP", c.Wireless},
		{model.ProductCellularGateway, "MG", c.Cellular},
		{model.ProductCamera, "CAM", c.Cameras},
		{model.ProductSensor, "SENSOR", c.Sensors},
	}
}

// ProductTypes returns the product types that have at least one device
func (c DeviceConfig) ProductTypes() []string {
	var types []string
	for _, cat := range c.categories() {
		for _, s := range cat.specs {
			if specCount(s) > 0 {
				types = append(types, cat.productType)
				break
			}
		}
	}
	return types
}

// DeviceGenerator builds devices and their availability. Serial and mac are
// derived from (octet, deviceIndex); the generator refuses to reuse a pair or
// to hand one octet to two networks.
type DeviceGenerator struct {
	src       *random.Source
	reference time.Time
	macMask   uint32
	octets    map[int]string
	used      map[[2]int]bool
}

// NewDeviceGenerator returns a generator whose timestamps are offsets back from reference
func NewDeviceGenerator(seed int64, reference time.Time) *DeviceGenerator {
	src := random.New(seed, "device")
	return &DeviceGenerator{
		src:       src,
		reference: reference.UTC(),
		macMask:   src.Uint32() & 0xffffff,
		octets:    map[int]string{},
		used:      map[[2]int]bool{},
	}
}

// GenerateDevice builds one device
func (g *DeviceGenerator) GenerateDevice(networkID, organizationID, productType, deviceModel, name string, loc Location, octet, deviceIndex int, tags []string) (model.Device, error) {
	const op = "generate_device"
	family, err := checkModel(op, productType, deviceModel)
	if err != nil {
		return model.Device{}, err
	}
	if octet < 0 || octet > 255 {
		return model.Device{}, invalid(op, "networkOctet", itoa(octet), "must be within 0..255")
	}
	if deviceIndex < 0 || deviceIndex >= MaxDevicesPerNetwork {
		return model.Device{}, invalid(op, "deviceIndex", itoa(deviceIndex), "out of range")
	}
	if owner, ok := g.octets[octet]; ok && owner != networkID {
		return model.Device{}, invalid(op, "networkOctet", itoa(octet), "already used by network "+owner)
	}
	if g.used[[2]int{octet, deviceIndex}] {
		return model.Device{}, invalid(op, "deviceIndex", itoa(deviceIndex), "already used in this network")
	}
	g.octets[octet] = networkID
	g.used[[2]int{octet, deviceIndex}] = true

	serial := fmt.Sprintf("%s%s-%s-%s",
		family.SerialPrefix,
		base36(octet, 2),
		base36(deviceIndex, 4),
		g.src.Chars(serialAlphabet, 4),
	)
	suffix := (uint32(octet)<<16 | uint32(deviceIndex)) ^ g.macMask

	d := model.Device{
		Serial:                 serial,
		Name:                   name,
		MAC:                    macAddress(family.OUI, suffix),
		NetworkID:              networkID,
		OrganizationID:         organizationID,
		Model:                  deviceModel,
		ProductType:            productType,
		Firmware:               family.Firmware,
		LanIP:                  fmt.Sprintf("192.168.%d.%d", octet, 2+deviceIndex%252),
		Tags:                   copyStrings(tags),
		Lat:                    loc.Lat,
		Lng:                    loc.Lng,
		TimeZone:               loc.TimeZone,
		Address:                fmt.Sprintf("%d %s St", g.src.IntRange(100, 9999), loc.City),
		URL:                    fmt.Sprintf("%s/devices/%s/manage", mockBaseURL, serial),
		ConfigurationUpdatedAt: g.reference.Add(-time.Duration(g.src.IntRange(1, 30*24)) * time.Hour).Format(time.RFC3339),
		Details:                []model.NameValue{{Name: "capability", Value: family.Models[deviceModel]}},
	}

	switch productType {
	case model.ProductAppliance:
		d.Wan1IP = g.wanIP()
		if g.src.Chance(0.3) {
			d.Wan2IP = g.wanIP()
		}
	case model.ProductCellularGateway:
		d.IMEI = g.src.Chars(digits, 15)
	}
	return d, nil
}

// GenerateDeviceAvailability derives the status from the serial alone, so
// repeated calls for one device agree.
func (g *DeviceGenerator) GenerateDeviceAvailability(d model.Device) model.DeviceAvailability {
	status := model.StatusOnline
	if random.Hash("availability", d.Serial)%100 >= 95 {
		others := []string{model.StatusAlerting, model.StatusOffline, model.StatusDormant}
		status = others[random.Hash("availability-status", d.Serial)%uint64(len(others))]
	}
	return model.DeviceAvailability{
		Serial:      d.Serial,
		Name:        d.Name,
		MAC:         d.MAC,
		Network:     model.NetworkRef{ID: d.NetworkID},
		ProductType: d.ProductType,
		Status:      status,
		Tags:        copyStrings(d.Tags),
	}
}

// GenerateDevicesForNetwork expands cfg into devices with sequential indexes.
// The whole config is checked before the first device is built.
func (g *DeviceGenerator) GenerateDevicesForNetwork(networkID, organizationID string, loc Location, cfg DeviceConfig, octet int) ([]model.Device, []model.DeviceAvailability, error) {
	const op = "generate_devices_for_network"
	total := 0
	for _, cat := range cfg.categories() {
		for _, s := range cat.specs {
			if s.Count != nil && *s.Count < 0 {
				return nil, nil, invalid(op, "count", itoa(*s.Count), "must not be negative")
			}
			if _, err := checkModel(op, cat.productType, s.Model); err != nil {
				return nil, nil, err
			}
			total += specCount(s)
		}
	}
	if total > MaxDevicesPerNetwork {
		return nil, nil, invalid(op, "config", itoa(total), "too many devices for one network")
	}
	if owner, ok := g.octets[octet]; ok && owner != networkID {
		return nil, nil, invalid(op, "networkOctet", itoa(octet), "already used by network "+owner)
	}

	devices := make([]model.Device, 0, total)
	availability := make([]model.DeviceAvailability, 0, total)
	index := g.nextIndex(octet)
	seq := map[string]int{}
	for _, cat := range cfg.categories() {
		for _, s := range cat.specs {
			n := specCount(s)
			for i := 0; i < n; i++ {
				d, err := g.GenerateDevice(networkID, organizationID, cat.productType, s.Model,
					deviceName(networkID, cat.prefix, s, seq), loc, octet, index, s.Tags)
				if err != nil {
					return nil, nil, err
				}
				index++
				devices = append(devices, d)
				availability = append(availability, g.GenerateDeviceAvailability(d))
			}
		}
	}
	return devices, availability, nil
}

func (g *DeviceGenerator) nextIndex(octet int) int {
	next := 0
	for pair := range g.used {
		if pair[0] == octet && pair[1] >= next {
			next = pair[1] + 1
		}
	}
	return next
}

func (g *DeviceGenerator) wanIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		g.src.IntRange(50, 200), g.src.IntRange(1, 254), g.src.IntRange(1, 254), g.src.IntRange(1, 254))
}

func checkModel(op, productType, deviceModel string) (ProductFamily, error) {
	family, ok := ProductCatalog[productType]
	if !ok {
		return ProductFamily{}, invalid(op, "productType", productType, "unknown product type")
	}
	if _, ok := family.Models[deviceModel]; !ok {
		return ProductFamily{}, invalid(op, "model", deviceModel, "not a "+productType+" model")
	}
	return family, nil
}

// Count returns a DeviceSpec count of n
func Count(n int) *int {
	return &n
}

// specCount treats an omitted count as a single device
func specCount(s DeviceSpec) int {
	if s.Count == nil {
		return 1
	}
	return *s.Count
}

// deviceName numbers devices per prefix, so specs sharing a prefix continue
// one sequence
func deviceName(networkID, categoryPrefix string, s DeviceSpec, seq map[string]int) string {
	if s.Name != "" && specCount(s) == 1 {
		return s.Name
	}
	prefix := s.NamePrefix
	if prefix == "" {
		prefix = s.Name
	}
	if prefix == "" {
		prefix = networkID + "-" + categoryPrefix
	}
	seq[prefix]++
	return fmt.Sprintf("%s-%02d", prefix, seq[prefix])
}

func base36(n, width int) string {
	s := strings.ToUpper(strconv.FormatInt(int64(n), 36))
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func macAddress(oui string, suffix uint32) string {
	return fmt.Sprintf("%s:%02x:%02x:%02x", oui, byte(suffix>>16), byte(suffix>>8), byte(suffix))
}
