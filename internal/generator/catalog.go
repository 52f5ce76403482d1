package generator

import "github.com/martinsuchenak/toposeed/internal/model"

// VLANTemplate is the fixed shape of a VLAN type
type VLANTemplate struct {
	ID           int
	Name         string
	DHCPHandling string
	// Weight is the share of clients placed on this VLAN type
	Weight int
}

const (
	dhcpServer  = "Run a DHCP server"
	dhcpRespond = "Do not respond to DHCP requests"
)

// VLANTemplates is keyed by VLAN type name
var VLANTemplates = map[string]VLANTemplate{
	"corporate":  {ID: 10, Name: "Corporate", DHCPHandling: dhcpServer, Weight: 6},
	"guest":      {ID: 20, Name: "Guest", DHCPHandling: dhcpServer, Weight: 4},
	"voice":      {ID: 30, Name: "Voice", DHCPHandling: dhcpServer, Weight: 1},
	"iot":        {ID: 40, Name: "IoT", DHCPHandling: dhcpServer, Weight: 2},
	"server":     {ID: 50, Name: "Servers", DHCPHandling: dhcpRespond, Weight: 2},
	"management": {ID: 99, Name: "Management", DHCPHandling: dhcpRespond, Weight: 1},
}

// vlanWeightByID lets the client generator weight VLAN records it did not build
func vlanWeightByID(id string) int {
	for _, tmpl := range VLANTemplates {
		if itoa(tmpl.ID) == id {
			return tmpl.Weight
		}
	}
	return 1
}

// ProductFamily is the catalog entry of one product type
type ProductFamily struct {
	SerialPrefix string
	OUI          string
	Firmware     string // current firmware for the family
	Models       map[string]string
}

// ProductCatalog maps product type to its family. Model values are a short
// capability note carried into device details.
var ProductCatalog = map[string]ProductFamily{
	model.ProductAppliance: {
		SerialPrefix: "Q2",
		OUI:          "00:18:0a",
		Firmware:     "MX 18.107",
		Models: map[string]string{
			"MX450": "10 ports", "MX250": "8 ports", "MX85": "6 ports", "MX75": "6 ports",
			"MX68": "4 ports", "MX68W": "4 ports", "MX67": "4 ports", "MX67C": "4 ports",
		},
	},
	model.ProductSwitch: {
		SerialPrefix: "Q2",
		OUI:          "e0:55:3d",
		Firmware:     "MS 15.21",
		Models: map[string]string{
			"MS425-32": "32 ports", "MS350-48": "48 ports", "MS250-48": "48 ports", "MS225-48": "48 ports",
			"MS225-24": "24 ports", "MS120-24": "24 ports", "MS120-8": "8 ports",
		},
	},
	model.ProductWireless: {
		SerialPrefix: "Q2",
		OUI:          "88:15:44",
		Firmware:     "MR 30.5",
		Models: map[string]string{
			"MR57": "Wi-Fi 6E", "MR56": "Wi-Fi 6", "MR46": "Wi-Fi 6", "MR36": "Wi-Fi 6",
			"MR33": "Wi-Fi 5", "MR30H": "Wi-Fi 5",
		},
	},
	model.ProductCellularGateway: {
		SerialPrefix: "Q2",
		OUI:          "0c:8d:db",
		Firmware:     "MG 1.24.2",
		Models: map[string]string{
			"MG41": "LTE Cat 18", "MG21": "LTE Cat 6",
		},
	},
	model.ProductSensor: {
		SerialPrefix: "Q3",
		OUI:          "ac:17:c8",
		Firmware:     "MT 1.0.3",
		Models: map[string]string{
			"MT10": "Temperature/Humidity", "MT12": "Water Leak", "MT14": "Door",
		},
	},
	model.ProductCamera: {
		SerialPrefix: "Q2",
		OUI:          "34:56:fe",
		Firmware:     "MV 4.18",
		Models: map[string]string{
			"MV12W": "1080p", "MV13": "1080p", "MV13M": "1080p", "MV22": "1080p", "MV23": "1080p",
			"MV23X": "1080p", "MV33": "4K", "MV33M": "4K", "MV63": "4K", "MV63X": "4K", "MV72": "4K",
		},
	},
}

// Location is a site a network can be placed at
type Location struct {
	City     string
	State    string
	Lat      float64
	Lng      float64
	TimeZone string
}

// Locations is the fixed list of office sites, indexed by position
var Locations = []Location{
	{"San Francisco", "CA", 37.7749, -122.4194, "America/Los_Angeles"},
	{"New York", "NY", 40.7128, -74.0060, "America/New_York"},
	{"Chicago", "IL", 41.8781, -87.6298, "America/Chicago"},
	{"Los Angeles", "CA", 34.0522, -118.2437, "America/Los_Angeles"},
	{"Seattle", "WA", 47.6062, -122.3321, "America/Los_Angeles"},
	{"Austin", "TX", 30.2672, -97.7431, "America/Chicago"},
	{"Denver", "CO", 39.7392, -104.9903, "America/Denver"},
	{"Boston", "MA", 42.3601, -71.0589, "America/New_York"},
	{"Atlanta", "GA", 33.7490, -84.3880, "America/New_York"},
	{"Miami", "FL", 25.7617, -80.1918, "America/New_York"},
	{"Dallas", "TX", 32.7767, -96.7970, "America/Chicago"},
	{"Phoenix", "AZ", 33.4484, -112.0740, "America/Phoenix"},
	{"Portland", "OR", 45.5152, -122.6784, "America/Los_Angeles"},
	{"Minneapolis", "MN", 44.9778, -93.2650, "America/Chicago"},
	{"Detroit", "MI", 42.3314, -83.0458, "America/Detroit"},
	{"Philadelphia", "PA", 39.9526, -75.1652, "America/New_York"},
	{"San Diego", "CA", 32.7157, -117.1611, "America/Los_Angeles"},
	{"Houston", "TX", 29.7604, -95.3698, "America/Chicago"},
	{"Charlotte", "NC", 35.2271, -80.8431, "America/New_York"},
	{"Salt Lake City", "UT", 40.7608, -111.8910, "America/Denver"},
}

// LocationAt wraps i into the Locations list
func LocationAt(i int) Location {
	if i < 0 {
		i = -i
	}
	return Locations[i%len(Locations)]
}

// Client usage categories
const (
	categoryComputer = "computer"
	categoryDesktop  = "desktop"
	categoryPhone    = "phone"
	categoryTablet   = "tablet"
	categoryPrinter  = "printer"
	categoryVoIP     = "voip"
	categoryScanner  = "scanner"
	categoryCamera   = "camera"
	categorySensor   = "sensor"
	categoryTV       = "tv"
	categoryMedical  = "medical"
)

type byteRange struct{ lo, hi int64 }

type usageProfile struct {
	sent, recv byteRange
	// wired is the probability that a client of this category is cabled
	wired float64
}

var usageProfiles = map[string]usageProfile{
	categoryComputer: {byteRange{500_000_000, 5_000_000_000}, byteRange{1_000_000_000, 10_000_000_000}, 0.4},
	categoryDesktop:  {byteRange{1_000_000_000, 10_000_000_000}, byteRange{2_000_000_000, 20_000_000_000}, 1},
	categoryPhone:    {byteRange{50_000_000, 500_000_000}, byteRange{200_000_000, 2_000_000_000}, 0},
	categoryTablet:   {byteRange{100_000_000, 1_000_000_000}, byteRange{500_000_000, 5_000_000_000}, 0},
	categoryPrinter:  {byteRange{1_000_000, 50_000_000}, byteRange{10_000_000, 100_000_000}, 1},
	categoryVoIP:     {byteRange{500_000_000, 2_000_000_000}, byteRange{500_000_000, 2_000_000_000}, 1},
	categoryScanner:  {byteRange{1_000_000, 100_000_000}, byteRange{5_000_000, 200_000_000}, 1},
	categoryCamera:   {byteRange{5_000_000_000, 50_000_000_000}, byteRange{10_000_000, 100_000_000}, 1},
	categorySensor:   {byteRange{1_000_000, 10_000_000}, byteRange{5_000_000, 50_000_000}, 1},
	categoryTV:       {byteRange{100_000_000, 500_000_000}, byteRange{2_000_000_000, 20_000_000_000}, 0.4},
	categoryMedical:  {byteRange{10_000_000, 100_000_000}, byteRange{50_000_000, 500_000_000}, 1},
}

// ClientVariant is one hostname prefix / prediction pair of a family
type ClientVariant struct {
	Hostname string
	// Prediction is formatted with the client OS when it contains %s
	Prediction string
	Category   string
}

// OUIFamily is keyed by OUI. The family alone decides manufacturer and the
// set of device type predictions, so one OUI never maps to two manufacturers.
type OUIFamily struct {
	Key          string // device-type key usable in required client lists
	OUI          string
	Manufacturer string
	Weight       int
	OS           []string
	Variants     []ClientVariant
}

// OUIFamilies is ordered; weighted selection walks it in this order
var OUIFamilies = []OUIFamily{
	{"Apple Mobile", "3c:e0:72", "Apple", 15, []string{"iOS 17", "iOS 16", "iOS 15"},
		[]ClientVariant{{"IPHONE", "iPhone, %s", categoryPhone}, {"IPAD", "iPad, %s", categoryTablet}}},
	{"Apple Mac", "a4:83:e7", "Apple", 10, []string{"macOS Sonoma", "macOS Ventura", "macOS Monterey"},
		[]ClientVariant{{"MACBOOK", "MacBook Pro, %s", categoryComputer}, {"IMAC", "iMac, %s", categoryDesktop}}},
	{"Samsung Mobile", "84:25:db", "Samsung", 12, []string{"Android 14", "Android 13", "Android 12"},
		[]ClientVariant{{"GALAXY", "Samsung Galaxy, %s", categoryPhone}, {"SAMSUNG-TAB", "Samsung Tablet, %s", categoryTablet}}},
	{"Dell", "f8:b1:56", "Dell", 12, []string{"Windows 11", "Windows 10"},
		[]ClientVariant{{"DELL-LAPTOP", "Dell Laptop, %s", categoryComputer}, {"DELL-DESKTOP", "Dell Desktop, %s", categoryDesktop}}},
	{"HP Laptop", "10:b6:76", "HP", 10, []string{"Windows 11", "Windows 10"},
		[]ClientVariant{{"HP-LAPTOP", "HP Laptop, %s", categoryComputer}, {"HP-DESKTOP", "HP Desktop, %s", categoryDesktop}}},
	{"Lenovo", "28:d2:44", "Lenovo", 10, []string{"Windows 11", "Windows 10", "Chrome OS"},
		[]ClientVariant{{"LENOVO", "Lenovo ThinkPad, %s", categoryComputer}, {"THINKPAD", "Lenovo ThinkPad, %s", categoryComputer}}},
	{"Microsoft", "28:18:78", "Microsoft", 5, []string{"Windows 11", "Windows 10"},
		[]ClientVariant{{"SURFACE", "Microsoft Surface, %s", categoryComputer}, {"DEVICE", "Windows PC, %s", categoryComputer}}},
	{"Intel", "a4:34:d9", "Intel", 3, []string{"Windows 11", "Windows 10", "Linux"},
		[]ClientVariant{{"NUC", "Intel NUC, %s", categoryDesktop}}},
	{"Google", "f4:f5:d8", "Google", 5, []string{"Android 14", "Chrome OS"},
		[]ClientVariant{{"PIXEL", "Google Pixel, %s", categoryPhone}, {"CHROMEBOOK", "Chromebook, %s", categoryComputer}}},
	{"HP Printer", "c8:b5:ad", "HP", 3, []string{"Embedded"},
		[]ClientVariant{{"HP-PRINTER", "HP LaserJet Printer", categoryPrinter}, {"HP-MFP", "HP OfficeJet MFP", categoryPrinter}}},
	{"Epson", "00:26:ab", "Epson", 2, []string{"Embedded"},
		[]ClientVariant{{"EPSON-PRINTER", "Epson Printer", categoryPrinter}}},
	{"Canon", "00:1e:8f", "Canon", 2, []string{"Embedded"},
		[]ClientVariant{{"CANON-PRINTER", "Canon Printer", categoryPrinter}}},
	{"Samsung TV", "8c:79:f5", "Samsung", 2, []string{"Tizen OS"},
		[]ClientVariant{{"SAMSUNG-TV", "Samsung Smart TV, %s", categoryTV}, {"SMARTTV", "Samsung Smart TV, %s", categoryTV}}},
	{"LG TV", "a8:23:fe", "LG", 2, []string{"webOS"},
		[]ClientVariant{{"LG-TV", "LG Smart TV, %s", categoryTV}, {"LGTV", "LG Smart TV, %s", categoryTV}}},
	{"Cisco", "00:1b:0d", "Cisco", 2, []string{"Cisco IP Phone"},
		[]ClientVariant{{"VOIP", "Cisco IP Phone", categoryVoIP}, {"CISCO-PHONE", "Cisco IP Phone 8845", categoryVoIP}}},
	{"Zebra", "00:a0:f8", "Zebra", 3, []string{"Android 11", "Android 10"},
		[]ClientVariant{{"ZEBRA-SCANNER", "Zebra Scanner", categoryScanner}, {"SCANNER", "Zebra TC52", categoryScanner}}},
	{"Honeywell", "00:40:84", "Honeywell", 2, []string{"Android 10"},
		[]ClientVariant{{"HON-SCANNER", "Honeywell Scanner", categoryScanner}, {"SCANNER", "Honeywell CT60", categoryScanner}}},
	{"Axis", "00:40:8c", "Axis", 1, []string{"Embedded"},
		[]ClientVariant{{"AXIS-CAM", "Axis IP Camera", categoryCamera}, {"CAMERA", "Axis P3245-V", categoryCamera}}},
	{"Texas Instruments", "00:17:e5", "Texas Instruments", 1, []string{"Embedded"},
		[]ClientVariant{{"SENSOR", "IoT Sensor", categorySensor}, {"TI-SENSOR", "Environmental Sensor", categorySensor}}},
	{"GE Healthcare", "00:00:9a", "GE", 1, []string{"Embedded"},
		[]ClientVariant{{"GE-MEDICAL", "GE Patient Monitor", categoryMedical}, {"GE-MONITOR", "GE CARESCAPE Monitor", categoryMedical}}},
	{"Philips Medical", "00:1e:c0", "Philips", 1, []string{"Embedded"},
		[]ClientVariant{{"PHILIPS-MED", "Philips IntelliVue", categoryMedical}, {"PATIENT-MON", "Philips Patient Monitor", categoryMedical}}},
}

// FamilyByKey looks up a family by its device-type key
func FamilyByKey(key string) (OUIFamily, bool) {
	for _, f := range OUIFamilies {
		if f.Key == key {
			return f, true
		}
	}
	return OUIFamily{}, false
}

// FamilyByOUI looks up a family by OUI prefix (lower case, colon separated)
func FamilyByOUI(oui string) (OUIFamily, bool) {
	for _, f := range OUIFamilies {
		if f.OUI == oui {
			return f, true
		}
	}
	return OUIFamily{}, false
}
