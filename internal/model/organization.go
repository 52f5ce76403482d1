package model

// Organization is the top of the ownership tree
type Organization struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	URL        string                 `json:"url"`
	API        OrganizationAPI        `json:"api"`
	Licensing  OrganizationLicensing  `json:"licensing"`
	Cloud      OrganizationCloud      `json:"cloud"`
	Management OrganizationManagement `json:"management"`
}

type OrganizationAPI struct {
	Enabled bool `json:"enabled"`
}

type OrganizationLicensing struct {
	Model string `json:"model"`
}

type OrganizationCloud struct {
	Region CloudRegion `json:"region"`
}

type CloudRegion struct {
	Name string          `json:"name"`
	Host CloudRegionHost `json:"host"`
}

type CloudRegionHost struct {
	Name string `json:"name"`
}

type OrganizationManagement struct {
	Details []NameValue `json:"details"`
}

// NameValue is the generic name/value pair used by several API objects
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Region returns the cloud region the organization was created in
func (o *Organization) Region() string {
	return o.Cloud.Region.Name
}
