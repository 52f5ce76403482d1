package topology

import (
	"fmt"
	"strings"

	"github.com/martinsuchenak/toposeed/internal/generator"
	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/registry"
)

// DefaultActive is the topology the seed command activates unless told otherwise
const DefaultActive = "hub_spoke"

// Builtins returns the definitions that ship with the binary
func Builtins() []Definition {
	return []Definition{HubSpoke(), Mesh(), MultiOrg()}
}

// RegisterBuiltins registers every built-in definition with r
func RegisterBuiltins(r *registry.Registry) error {
	for _, def := range Builtins() {
		if err := r.Register(Registered(def)); err != nil {
			return err
		}
	}
	return nil
}

func spec(deviceModel string, count int) generator.DeviceSpec {
	return generator.DeviceSpec{Model: deviceModel, Count: generator.Count(count)}
}

func specs(list ...generator.DeviceSpec) []generator.DeviceSpec { return list }

// named applies a name prefix and tags to every spec
func named(list []generator.DeviceSpec, prefix string, tags ...string) []generator.DeviceSpec {
	out := make([]generator.DeviceSpec, len(list))
	for i, s := range list {
		s.NamePrefix = prefix
		s.Tags = tags
		out[i] = s
	}
	return out
}

func hubVPN() *VPNDef { return &VPNDef{Mode: model.VPNModeHub} }

func spokeVPN(defaultRoute bool, hubs ...string) *VPNDef {
	v := &VPNDef{Mode: model.VPNModeSpoke}
	for _, h := range hubs {
		v.Hubs = append(v.Hubs, HubDef{Network: h, UseDefaultRoute: defaultRoute})
	}
	return v
}

func siteNotes(prefix string, loc generator.Location) string {
	return fmt.Sprintf("%s in %s, %s", prefix, loc.City, loc.State)
}

type branchSite struct {
	name      string
	appliance string
	switches  []generator.DeviceSpec
	aps       []generator.DeviceSpec
	cameras   []generator.DeviceSpec
	sensors   []generator.DeviceSpec
	cellular  string
	clients   int
	required  []string
}

var hubSpokeBranches = []branchSite{
	{"Branch-NYC", "MX85", specs(spec("MS250-48", 2)), specs(spec("MR56", 8)), specs(spec("MV33", 4), spec("MV63", 2)), nil, "", 60,
		[]string{"Samsung TV", "Samsung TV", "LG TV", "HP Printer", "HP Printer", "Canon"}},
	{"Branch-Chicago", "MX85", specs(spec("MS250-48", 2)), specs(spec("MR56", 6)), specs(spec("MV23", 3), spec("MV63X", 2)), nil, "", 55,
		[]string{"Samsung TV", "LG TV", "HP Printer", "HP Printer", "Epson"}},
	{"Branch-LA", "MX75", specs(spec("MS225-48", 2)), specs(spec("MR46", 6)), specs(spec("MV13", 4)), nil, "", 50,
		[]string{"Samsung TV", "LG TV", "HP Printer", "Canon"}},
	{"Branch-Seattle", "MX75", specs(spec("MS225-48", 2)), specs(spec("MR46", 5)), specs(spec("MV23X", 3)), nil, "", 45,
		[]string{"Samsung TV", "HP Printer", "Epson"}},
	{"Branch-Austin", "MX75", specs(spec("MS225-48", 1)), specs(spec("MR46", 5)), specs(spec("MV13M", 2)), nil, "", 40,
		[]string{"LG TV", "HP Printer"}},
	{"Branch-Denver", "MX68", specs(spec("MS225-48", 1)), specs(spec("MR46", 4)), specs(spec("MV13", 2)), nil, "", 35,
		[]string{"HP Printer", "Canon"}},
	{"Branch-Boston-Medical", "MX68", specs(spec("MS225-48", 1)), specs(spec("MR46", 4)), specs(spec("MV33M", 2)), nil, "", 40,
		[]string{"GE Healthcare", "GE Healthcare", "Philips Medical", "Philips Medical", "HP Printer", "Epson"}},
	{"Branch-Atlanta", "MX68", specs(spec("MS120-24", 1)), specs(spec("MR36", 3)), nil, nil, "", 30, []string{"HP Printer"}},
	{"Branch-Miami", "MX68", specs(spec("MS120-24", 1)), specs(spec("MR36", 3)), nil, nil, "", 30, []string{"HP Printer", "Samsung TV"}},
	{"Branch-Dallas", "MX68W", specs(spec("MS120-24", 1)), specs(spec("MR36", 3)), nil, specs(spec("MT10", 2)), "", 30, []string{"HP Printer"}},
	{"Branch-Phoenix", "MX68W", nil, specs(spec("MR33", 2)), nil, nil, "", 20, nil},
	{"Branch-Portland", "MX68W", nil, specs(spec("MR33", 2)), nil, nil, "", 20, nil},
	{"Branch-Minneapolis", "MX67", nil, specs(spec("MR33", 2)), nil, nil, "", 18, nil},
	{"Branch-Detroit", "MX67", nil, specs(spec("MR33", 2)), nil, nil, "", 18, nil},
	{"Branch-Philly", "MX67", nil, specs(spec("MR33", 2)), nil, nil, "", 18, nil},
	{"Remote-SanDiego", "MX67C", nil, specs(spec("MR30H", 1)), nil, nil, "MG41", 10, nil},
	{"Remote-Houston", "MX67C", nil, specs(spec("MR30H", 1)), nil, nil, "MG41", 10, nil},
	{"Remote-Charlotte", "MX67C", nil, specs(spec("MR30H", 1)), nil, nil, "MG41", 8, nil},
	{"Remote-SaltLake", "MX67C", nil, nil, nil, nil, "MG41", 5, nil},
	{"Remote-Warehouse", "MX67C", nil, nil, specs(spec("MV72", 6), spec("MV63", 4)), specs(spec("MT14", 8), spec("MT12", 4)), "MG21", 3, nil},
}

// HubSpoke is one campus hub with twenty branch spokes
func HubSpoke() Definition {
	const hq = "N_HQ001"

	networks := []NetworkDef{{
		ID:       hq,
		Name:     "HQ-Campus",
		Location: 0,
		Octet:    10,
		Tags:     []string{"hub", "headquarters", "campus"},
		Notes:    "Corporate headquarters - Hub site for all VPN connections",
		Devices: generator.DeviceConfig{
			Appliances: []generator.DeviceSpec{{Model: "MX450", Name: "HQ-MX-01", Tags: []string{"hub", "security-appliance", "datacenter"}}},
			Switches: append(append(
				named(specs(spec("MS425-32", 2)), "HQ-CORE-SW", "switch", "core-layer", "datacenter"),
				named(specs(spec("MS350-48", 4)), "HQ-DIST-SW", "switch", "distribution-layer")...),
				named(specs(spec("MS225-48", 8)), "HQ-ACC-SW", "switch", "access-layer")...),
			Wireless: named(specs(spec("MR57", 20)), "HQ-AP", "wireless-ap", "indoor", "wifi6e"),
			Cameras: append(append(
				named(specs(spec("MV33", 8)), "HQ-CAM-INDOOR", "camera", "indoor", "4k"),
				named(specs(spec("MV63", 4)), "HQ-CAM-OUTDOOR", "camera", "outdoor", "4k")...),
				named(specs(spec("MV13", 6)), "HQ-CAM-MINI", "camera", "indoor", "mini-dome")...),
			Sensors: append(
				named(specs(spec("MT14", 10)), "HQ-DOOR", "sensor", "door"),
				named(specs(spec("MT10", 8)), "HQ-TEMP", "sensor", "temperature")...),
		},
		VLANs:       []string{"corporate", "guest", "voice", "iot", "management", "server"},
		VLANProfile: &VLANProfileDef{IName: "hq-standard", Name: "HQ Standard", VLANNames: []string{"Corporate", "Guest", "Voice"}},
		Clients:     200,
		RequiredClients: []string{"Samsung TV", "Samsung TV", "Samsung TV", "LG TV", "LG TV",
			"HP Printer", "HP Printer", "HP Printer", "Canon", "Epson"},
		VPN: hubVPN(),
	}}

	for i, b := range hubSpokeBranches {
		loc := generator.LocationAt(i + 1)
		nd := NetworkDef{
			ID:       fmt.Sprintf("N_BR%03d", i+1),
			Name:     b.name,
			Location: i + 1,
			Octet:    20 + i,
			Tags:     []string{"spoke", "branch"},
			Notes:    siteNotes("Branch office", loc),
			Devices: generator.DeviceConfig{
				Appliances: []generator.DeviceSpec{{Model: b.appliance, Name: b.name + "-MX", Tags: []string{"spoke", "security-appliance"}}},
				Switches:   named(b.switches, b.name+"-SW", "switch", "network-infrastructure"),
				Wireless:   named(b.aps, b.name+"-AP", "wireless-ap", "network-infrastructure"),
				Cameras:    named(b.cameras, b.name+"-CAM", "camera", "security"),
				Sensors:    named(b.sensors, b.name+"-SENSOR", "sensor", "iot"),
			},
			VLANs:           []string{"corporate", "guest"},
			Clients:         b.clients,
			RequiredClients: b.required,
			VPN:             spokeVPN(true, hq),
		}
		if b.clients > 20 {
			nd.VLANs = append(nd.VLANs, "voice")
		}
		if b.cellular != "" {
			nd.Devices.Cellular = []generator.DeviceSpec{{Model: b.cellular, Name: b.name + "-MG", Tags: []string{"cellular-gateway", "wan-backup"}}}
			nd.CellularPool = fmt.Sprintf("10.%d.0.0/16", 200+i)
		}
		networks = append(networks, nd)
	}

	return Definition{
		Name:        "hub_spoke",
		Description: "Enterprise hub-spoke VPN topology with HQ campus and 20 branch offices",
		Seed:        42,
		Organizations: []OrganizationDef{{
			ID:       "883652",
			Name:     "Acme Corporation",
			Region:   "North America",
			Networks: networks,
		}},
	}
}

type dcTier struct {
	appliances, core, distribution, access, aps, gateways, clients int
}

var dcTiers = map[string]dcTier{
	"primary":   {2, 4, 8, 16, 30, 2, 300},
	"secondary": {2, 2, 4, 8, 15, 1, 180},
	"edge":      {1, 1, 2, 4, 8, 1, 100},
}

var meshSites = []struct {
	name     string
	location int
	tier     string
}{
	{"DC-Primary-East", 1, "primary"},
	{"DC-Primary-West", 0, "primary"},
	{"DC-Secondary-Central", 2, "secondary"},
	{"DC-Secondary-South", 5, "secondary"},
	{"DC-Edge-Northwest", 4, "edge"},
	{"DC-Edge-Southwest", 3, "edge"},
	{"DC-Edge-Northeast", 7, "edge"},
	{"DC-Edge-Southeast", 9, "edge"},
}

// Mesh is eight data centres; primaries are hubs and every other site is a
// spoke of both primaries
func Mesh() Definition {
	var primaries []string
	for i, site := range meshSites {
		if site.tier == "primary" {
			primaries = append(primaries, fmt.Sprintf("N_DC%03d", i+1))
		}
	}

	networks := make([]NetworkDef, 0, len(meshSites))
	for i, site := range meshSites {
		tier := dcTiers[site.tier]
		loc := generator.LocationAt(site.location)
		title := strings.ToUpper(site.tier[:1]) + site.tier[1:]

		devices := generator.DeviceConfig{
			Switches: []generator.DeviceSpec{
				{Model: "MS425-32", Count: generator.Count(tier.core), NamePrefix: site.name + "-CORE", Tags: []string{"core"}},
				{Model: "MS350-48", Count: generator.Count(tier.distribution), NamePrefix: site.name + "-DIST", Tags: []string{"distribution"}},
				{Model: "MS250-48", Count: generator.Count(tier.access), NamePrefix: site.name + "-ACC", Tags: []string{"access"}},
			},
			Wireless: []generator.DeviceSpec{{Model: "MR57", Count: generator.Count(tier.aps), NamePrefix: site.name + "-AP", Tags: []string{"warehouse"}}},
		}
		for j := 0; j < tier.appliances; j++ {
			devices.Appliances = append(devices.Appliances, generator.DeviceSpec{Model: "MX450", Name: fmt.Sprintf("%s-MX-%02d", site.name, j+1)})
		}
		for j := 0; j < tier.gateways; j++ {
			devices.Cellular = append(devices.Cellular, generator.DeviceSpec{Model: "MG41", Name: fmt.Sprintf("%s-MG-%02d", site.name, j+1)})
		}

		nd := NetworkDef{
			ID:           fmt.Sprintf("N_DC%03d", i+1),
			Name:         site.name,
			Location:     site.location,
			Octet:        10 + i*10,
			ProductTypes: []string{model.ProductAppliance, model.ProductSwitch, model.ProductWireless, model.ProductCellularGateway},
			Tags:         []string{"datacenter", site.tier, "region-" + loc.State},
			Notes:        siteNotes(title+" data center", loc),
			Devices:      devices,
			VLANs:        []string{"corporate", "server", "management", "voice", "iot", "guest"},
			VLANProfile: &VLANProfileDef{
				IName:     "dc-" + site.tier,
				Name:      "DC " + title + " Profile",
				VLANNames: []string{"Servers", "Management", "Corporate"},
			},
			Clients:      tier.clients,
			CellularPool: fmt.Sprintf("10.%d.0.0/16", 220+i),
			VPN:          spokeVPN(false, primaries...),
		}
		if site.tier == "primary" {
			nd.VPN = hubVPN()
		}
		networks = append(networks, nd)
	}

	return Definition{
		Name:        "mesh",
		Description: "Regional data center mesh VPN topology with primary/secondary/edge tiers",
		Seed:        43,
		Organizations: []OrganizationDef{{
			ID:       "994763",
			Name:     "Global DataCorp",
			Region:   "North America",
			Networks: networks,
		}},
	}
}

type siteType struct {
	appliance string
	switches  []generator.DeviceSpec
	aps       []generator.DeviceSpec
	cellular  string
	clients   int
	vlans     []string
}

var siteTypes = map[string]siteType{
	"headquarters": {"MX85", specs(spec("MS350-48", 2), spec("MS225-48", 4)), specs(spec("MR56", 12)), "", 150,
		[]string{"corporate", "guest", "voice", "server", "management"}},
	"office":      {"MX68", specs(spec("MS225-48", 2)), specs(spec("MR46", 6)), "", 60, []string{"corporate", "guest"}},
	"branch":      {"MX67", specs(spec("MS120-24", 1)), specs(spec("MR36", 3)), "", 30, []string{"corporate", "guest"}},
	"retail":      {"MX68W", specs(spec("MS120-8", 1)), specs(spec("MR33", 4)), "", 40, []string{"corporate", "guest", "iot"}},
	"warehouse":   {"MX75", specs(spec("MS225-48", 3)), specs(spec("MR57", 15)), "MG41", 80, []string{"corporate", "guest"}},
	"residential": {"MX68W", specs(spec("MS225-48", 2)), specs(spec("MR46", 20)), "", 200, []string{"corporate", "guest", "iot"}},
	"datacenter": {"MX450", specs(spec("MS425-32", 2), spec("MS350-48", 4)), specs(spec("MR57", 4)), "MG41", 50,
		[]string{"corporate", "guest", "voice", "server", "management"}},
}

type customerSite struct {
	name     string
	kind     string
	location int
}

var customers = []struct {
	id, name, industry string
	sites              []customerSite
}{
	{"100001", "TechStart Inc", "Technology Startup", []customerSite{
		{"TechStart-HQ", "headquarters", 0}, {"TechStart-Dev", "office", 4},
		{"TechStart-Sales-East", "branch", 1}, {"TechStart-Sales-West", "branch", 3}}},
	{"100002", "HealthPlus Medical", "Healthcare", []customerSite{
		{"HealthPlus-Hospital", "headquarters", 2}, {"HealthPlus-Clinic-A", "branch", 8},
		{"HealthPlus-Clinic-B", "branch", 9}, {"HealthPlus-Admin", "office", 10}}},
	{"100003", "RetailMax Stores", "Retail", []customerSite{
		{"RetailMax-Corporate", "headquarters", 5}, {"RetailMax-Store-101", "retail", 11},
		{"RetailMax-Store-102", "retail", 12}, {"RetailMax-Warehouse", "warehouse", 6}}},
	{"100004", "EduLearn Academy", "Education", []customerSite{
		{"EduLearn-Main-Campus", "headquarters", 7}, {"EduLearn-Library", "office", 7},
		{"EduLearn-Dorms", "residential", 7}, {"EduLearn-Athletics", "branch", 7}}},
	{"100005", "FinanceFirst Bank", "Financial Services", []customerSite{
		{"FinanceFirst-HQ", "headquarters", 1}, {"FinanceFirst-Branch-1", "branch", 13},
		{"FinanceFirst-Branch-2", "branch", 14}, {"FinanceFirst-DC", "datacenter", 15}}},
}

// MultiOrg is five customer organizations of four networks each. The
// headquarters of every organization is the hub of its other sites.
func MultiOrg() Definition {
	var orgs []OrganizationDef
	counter := 0

	for _, c := range customers {
		org := OrganizationDef{ID: c.id, Name: c.name, Region: "North America"}

		hub := ""
		for j, site := range c.sites {
			if site.kind == "headquarters" {
				hub = fmt.Sprintf("N_%s_%03d", c.id, counter+1+j)
				break
			}
		}

		for _, site := range c.sites {
			counter++
			st := siteTypes[site.kind]
			loc := generator.LocationAt(site.location)
			id := fmt.Sprintf("N_%s_%03d", c.id, counter)

			nd := NetworkDef{
				ID:       id,
				Name:     site.name,
				Location: site.location,
				Octet:    counter,
				Tags:     []string{strings.ReplaceAll(strings.ToLower(c.industry), " ", "-"), site.kind},
				Notes:    fmt.Sprintf("%s - %s in %s", c.name, site.kind, loc.City),
				Devices: generator.DeviceConfig{
					Appliances: []generator.DeviceSpec{{Model: st.appliance, Name: site.name + "-MX"}},
					Switches:   named(st.switches, site.name+"-SW"),
					Wireless:   named(st.aps, site.name+"-AP"),
				},
				VLANs:   st.vlans,
				Clients: st.clients,
				VLANProfile: &VLANProfileDef{
					IName:     "standard-" + c.id,
					Name:      c.name + " Standard",
					VLANNames: []string{"Corporate", "Guest"},
				},
				VPN: spokeVPN(true, hub),
			}
			if id == hub {
				nd.VPN = hubVPN()
			}
			if st.cellular != "" {
				nd.Devices.Cellular = []generator.DeviceSpec{{Model: st.cellular, Name: site.name + "-MG"}}
				nd.CellularPool = fmt.Sprintf("10.%d.0.0/16", 230+counter)
			}
			org.Networks = append(org.Networks, nd)
		}
		orgs = append(orgs, org)
	}

	return Definition{
		Name:          "multi_org",
		Description:   "Managed service provider topology with five customer organizations",
		Seed:          44,
		Organizations: orgs,
	}
}
