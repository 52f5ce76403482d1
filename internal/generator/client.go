package generator

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/random"
)

// MaxClients bounds the clients one generator can build; client ids and macs
// are 24-bit bijections of a running counter.
const MaxClients = 1 << 24

// wirelessShare is the chance a client of a mixed category connects over Wi-Fi
const wirelessShare = 0.6

var (
	firstNames = []string{"john", "jane", "mike", "sarah", "david", "lisa", "tom", "anna", "chris", "kate"}
	lastNames  = []string{"smith", "jones", "wilson", "brown", "davis", "miller", "moore", "taylor", "anderson", "thomas"}

	clientNotes   = []string{"", "", "", "Visitor device", "Temp access", "Executive laptop", "Conference room"}
	policyGroups  = []string{"", "", "1: Employee", "2: Infrastructure", "3: Guest", "4: IoT Devices"}
	dot1xPolicies = []string{"", "", "", "Employee_Access", "Guest_Access", "Contractor_Access", "Student_Access"}
	pskGroups     = []string{"", "", "", "Group 1", "Group 2", "IoT Group"}
	wirelessModes = []string{"802.11ac - 2.4 GHz", "802.11ac - 5 GHz", "802.11ax - 2.4 GHz", "802.11ax - 5 GHz", "802.11ax - 6 GHz", "802.11n - 2.4 GHz"}
	// categories that join the IoT SSID and carry no user
	infraCategories = map[string]bool{
		categoryPrinter: true, categoryScanner: true, categorySensor: true, categoryCamera: true,
		categoryVoIP: true, categoryTV: true, categoryMedical: true,
	}
)

// ClientGenerator builds network clients and their device-scoped views
type ClientGenerator struct {
	src       *random.Source
	reference time.Time
	macMask   uint32
	idMask    uint32
	counter   uint32
}

// NewClientGenerator returns a generator whose timestamps are offsets back from reference
func NewClientGenerator(seed int64, reference time.Time) *ClientGenerator {
	src := random.New(seed, "client")
	return &ClientGenerator{
		src:       src,
		reference: reference.UTC(),
		macMask:   src.Uint32() & 0xffffff,
		idMask:    src.Uint32() & 0xffffff,
	}
}

// NextClientID returns the id the next generated client would carry
func (g *ClientGenerator) NextClientID() string {
	// odd multiplier keeps the mapping a bijection on 24 bits
	return fmt.Sprintf("k%06x", ((g.counter*0x9e3779)^g.idMask)&0xffffff)
}

// GenerateNetworkClient builds one client on vlan with a family drawn from the
// weighted OUI catalog. No device is attached.
func (g *ClientGenerator) GenerateNetworkClient(id, networkID string, vlan model.VLAN, clientIndex int) (model.NetworkClient, error) {
	family := random.PickWeighted(g.src, OUIFamilies, func(f OUIFamily) int { return f.Weight })
	return g.networkClient("generate_network_client", id, networkID, vlan, clientIndex, family)
}

// GenerateDeviceClient trims a network client to the fields served per device.
// Usage is reported in kilobytes.
func (g *ClientGenerator) GenerateDeviceClient(c model.NetworkClient) model.DeviceClient {
	hostname := strings.ToUpper(strings.ReplaceAll(c.Description, "-", ""))
	if len(hostname) > 15 {
		hostname = hostname[:15]
	}
	return model.DeviceClient{
		ID:                     c.ID,
		MAC:                    c.MAC,
		Description:            c.Description,
		MDNSName:               c.Description,
		DHCPHostname:           hostname,
		User:                   c.User,
		IP:                     c.IP,
		VLAN:                   c.VLAN,
		NamedVLAN:              c.NamedVLAN,
		Switchport:             c.Switchport,
		AdaptivePolicyGroup:    c.AdaptivePolicyGroup,
		RecentDeviceSerial:     c.RecentDeviceSerial,
		RecentDeviceConnection: c.RecentDeviceConnection,
		Usage:                  model.Usage{Sent: c.Usage.Sent / 1000, Recv: c.Usage.Recv / 1000},
		NetworkID:              c.NetworkID,
	}
}

// GenerateClientsForNetwork builds count clients spread over vlans by smooth
// weighted round robin and attaches each to one of devices by connection
// affinity. The first len(required) clients use the named families.
func (g *ClientGenerator) GenerateClientsForNetwork(networkID string, vlans []model.VLAN, count int, devices []model.Device, required []string) ([]model.NetworkClient, map[string][]model.DeviceClient, error) {
	const op = "generate_clients_for_network"
	if count < 0 {
		return nil, nil, invalid(op, "count", itoa(count), "must not be negative")
	}
	if count == 0 {
		return []model.NetworkClient{}, map[string][]model.DeviceClient{}, nil
	}
	if len(devices) == 0 {
		return nil, nil, invalid(op, "devices", "", "clients requested but the network has no devices")
	}
	if len(vlans) == 0 {
		return nil, nil, invalid(op, "vlans", "", "clients requested but the network has no VLANs")
	}
	for _, d := range devices {
		if d.NetworkID != networkID {
			return nil, nil, invalid(op, "devices", d.Serial, "device belongs to network "+d.NetworkID)
		}
	}
	for _, v := range vlans {
		if v.NetworkID != networkID {
			return nil, nil, invalid(op, "vlans", v.ID, "VLAN belongs to network "+v.NetworkID)
		}
		if _, err := clientPrefix(op, v.Subnet); err != nil {
			return nil, nil, err
		}
	}
	forced := make([]OUIFamily, 0, len(required))
	for _, key := range required {
		f, ok := FamilyByKey(key)
		if !ok {
			return nil, nil, invalid(op, "requiredClients", key, "unknown device type key")
		}
		forced = append(forced, f)
	}
	if int(g.counter)+count > MaxClients {
		return nil, nil, invalid(op, "count", itoa(count), "client capacity exhausted")
	}

	picker := newVLANPicker(vlans)
	attach := newDevicePicker(devices)
	clients := make([]model.NetworkClient, 0, count)
	byDevice := map[string][]model.DeviceClient{}

	for i := 0; i < count; i++ {
		vlan := picker.next()
		var (
			c   model.NetworkClient
			err error
		)
		if i < len(forced) {
			c, err = g.networkClient(op, g.NextClientID(), networkID, vlan, len(devices)+i, forced[i])
		} else {
			c, err = g.GenerateNetworkClient(g.NextClientID(), networkID, vlan, len(devices)+i)
		}
		if err != nil {
			return nil, nil, err
		}

		d, connection := attach.pick(c.RecentDeviceConnection)
		g.connect(&c, d, connection)
		clients = append(clients, c)
		byDevice[d.Serial] = append(byDevice[d.Serial], g.GenerateDeviceClient(c))
	}
	return clients, byDevice, nil
}

func (g *ClientGenerator) networkClient(op, id, networkID string, vlan model.VLAN, clientIndex int, family OUIFamily) (model.NetworkClient, error) {
	if clientIndex < 0 {
		return model.NetworkClient{}, invalid(op, "clientIndex", itoa(clientIndex), "must not be negative")
	}
	if g.counter >= MaxClients {
		return model.NetworkClient{}, invalid(op, "clientIndex", itoa(clientIndex), "client capacity exhausted")
	}
	prefix, err := clientPrefix(op, vlan.Subnet)
	if err != nil {
		return model.NetworkClient{}, err
	}
	ip := prefix.Addr().As4()
	ip[3] += byte(2 + clientIndex%250)

	suffix := g.counter ^ g.macMask
	g.counter++

	os := random.Pick(g.src, family.OS)
	variant := random.Pick(g.src, family.Variants)
	prediction := variant.Prediction
	if strings.Contains(prediction, "%s") {
		prediction = fmt.Sprintf(prediction, os)
	}
	profile := usageProfiles[variant.Category]
	sent := g.src.Int64Range(profile.sent.lo, profile.sent.hi)
	recv := g.src.Int64Range(profile.recv.lo, profile.recv.hi)

	firstSeen := g.reference.Add(-time.Duration(g.src.IntRange(1, 90)) * 24 * time.Hour).
		Add(-time.Duration(g.src.IntRange(0, 86399)) * time.Second)
	lastSeen := g.reference.Add(-time.Duration(g.src.IntRange(0, 3600)) * time.Second)

	c := model.NetworkClient{
		ID:                   id,
		MAC:                  macAddress(family.OUI, suffix),
		IP:                   netip.AddrFrom4(ip).String(),
		Description:          fmt.Sprintf("%s-%s", variant.Hostname, g.src.Chars(serialAlphabet, 4)),
		FirstSeen:            firstSeen.Unix(),
		LastSeen:             lastSeen.Unix(),
		Manufacturer:         family.Manufacturer,
		OS:                   os,
		DeviceTypePrediction: prediction,
		VLAN:                 vlan.ID,
		NamedVLAN:            vlan.Name,
		SMInstalled:          g.src.Chance(0.2),
		Status:               model.ClientOnline,
		Usage:                model.Usage{Sent: sent, Recv: recv, Total: sent + recv},
		NetworkID:            networkID,
	}
	if !infraCategories[variant.Category] && g.src.Chance(0.7) {
		c.User = ptr(random.Pick(g.src, firstNames) + "." + random.Pick(g.src, lastNames))
	}
	if g.src.Chance(0.1) {
		c.Status = model.ClientOffline
	}
	c.Notes = optional(random.Pick(g.src, clientNotes))
	c.AdaptivePolicyGroup = optional(random.Pick(g.src, policyGroups))
	c.GroupPolicy8021x = optional(random.Pick(g.src, dot1xPolicies))
	c.PSKGroup = optional(random.Pick(g.src, pskGroups))

	c.RecentDeviceConnection = model.ConnectionWireless
	switch {
	case profile.wired >= 1:
		c.RecentDeviceConnection = model.ConnectionWired
	case profile.wired <= 0:
	case !g.src.Chance(wirelessShare):
		c.RecentDeviceConnection = model.ConnectionWired
	}
	g.connect(&c, model.Device{}, c.RecentDeviceConnection)
	return c, nil
}

// connect sets the recent device fields and the fields that depend on how the
// client is attached. d may be the zero Device.
func (g *ClientGenerator) connect(c *model.NetworkClient, d model.Device, connection string) {
	c.RecentDeviceSerial = d.Serial
	c.RecentDeviceName = d.Name
	c.RecentDeviceMAC = d.MAC
	c.RecentDeviceConnection = connection

	if connection == model.ConnectionWired {
		if c.Switchport == nil {
			c.Switchport = ptr(fmt.Sprintf("GigabitEthernet1/0/%d", g.src.IntRange(1, 48)))
		}
		c.SSID = nil
		c.WirelessCapabilities = nil
		return
	}
	c.Switchport = nil
	if c.SSID == nil {
		c.SSID = ptr(g.ssidFor(c))
		c.WirelessCapabilities = ptr(random.Pick(g.src, wirelessModes))
	}
}

func (g *ClientGenerator) ssidFor(c *model.NetworkClient) string {
	if infraCategories[categoryOf(c)] {
		return "IoT"
	}
	if strings.Contains(strings.ToLower(c.NamedVLAN), "guest") {
		return "Guest"
	}
	if g.src.Chance(0.9) {
		return "Corporate"
	}
	return "Guest"
}

// categoryOf recovers the usage category from the mac family and hostname
func categoryOf(c *model.NetworkClient) string {
	if len(c.MAC) < 8 {
		return ""
	}
	family, ok := FamilyByOUI(c.MAC[:8])
	if !ok {
		return ""
	}
	for _, v := range family.Variants {
		if strings.HasPrefix(c.Description, v.Hostname+"-") {
			return v.Category
		}
	}
	return ""
}

func clientPrefix(op, subnet string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(subnet)
	if err != nil || !prefix.Addr().Is4() {
		return netip.Prefix{}, invalid(op, "subnet", subnet, "must be an IPv4 prefix")
	}
	if prefix.Bits() > 24 {
		return netip.Prefix{}, invalid(op, "subnet", subnet, "must be /24 or larger")
	}
	return prefix.Masked(), nil
}

// vlanPicker is a smooth weighted round robin over VLANs. For weights w the
// first sum(w) picks contain every VLAN exactly w times, interleaved.
type vlanPicker struct {
	vlans   []model.VLAN
	weights []int
	current []int
	total   int
}

func newVLANPicker(vlans []model.VLAN) *vlanPicker {
	p := &vlanPicker{vlans: vlans, weights: make([]int, len(vlans)), current: make([]int, len(vlans))}
	for i, v := range vlans {
		p.weights[i] = vlanWeightByID(v.ID)
		p.total += p.weights[i]
	}
	return p
}

func (p *vlanPicker) next() model.VLAN {
	best := 0
	for i := range p.vlans {
		p.current[i] += p.weights[i]
		if p.current[i] > p.current[best] {
			best = i
		}
	}
	p.current[best] -= p.total
	return p.vlans[best]
}

// devicePicker hands out devices round robin per connection kind
type devicePicker struct {
	switches []model.Device
	aps      []model.Device
	gateways []model.Device
	other    []model.Device
	next     map[string]int
}

func newDevicePicker(devices []model.Device) *devicePicker {
	p := &devicePicker{next: map[string]int{}}
	for _, d := range devices {
		switch d.ProductType {
		case model.ProductSwitch:
			p.switches = append(p.switches, d)
		case model.ProductWireless:
			p.aps = append(p.aps, d)
		case model.ProductAppliance, model.ProductCellularGateway:
			p.gateways = append(p.gateways, d)
		default:
			p.other = append(p.other, d)
		}
	}
	return p
}

// pick returns the device for a client preferring connection, and the
// connection the client ends up with
func (p *devicePicker) pick(connection string) (model.Device, string) {
	switch {
	case connection == model.ConnectionWireless && len(p.aps) > 0:
		return p.take("aps", p.aps), model.ConnectionWireless
	case connection == model.ConnectionWired && len(p.switches) > 0:
		return p.take("switches", p.switches), model.ConnectionWired
	case len(p.switches) > 0:
		return p.take("switches", p.switches), model.ConnectionWired
	case len(p.aps) > 0:
		return p.take("aps", p.aps), model.ConnectionWireless
	case len(p.gateways) > 0:
		return p.take("gateways", p.gateways), model.ConnectionWired
	}
	return p.take("other", p.other), model.ConnectionWired
}

func (p *devicePicker) take(kind string, devices []model.Device) model.Device {
	i := p.next[kind]
	p.next[kind] = i + 1
	return devices[i%len(devices)]
}

func ptr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
