package vulnerablecode

// packagesRequest is the body of a bulk search.
type packagesRequest struct {
	Purls []string `json:"purls"`
}

// PackageVulnerabilities lists the vulnerabilities affecting one package version.
type PackageVulnerabilities struct {
	Purl                      string          `json:"purl"`
	AffectedByVulnerabilities []Vulnerability `json:"affected_by_vulnerabilities"`
}

type Vulnerability struct {
	URL             string         `json:"url"`
	VulnerabilityID string         `json:"vulnerability_id"`
	Summary         string         `json:"summary"`
	References      []Reference    `json:"references"`
	FixedPackages   []FixedPackage `json:"fixed_packages"`
}

type Reference struct {
	ReferenceURL string  `json:"reference_url"`
	ReferenceID  string  `json:"reference_id"`
	Scores       []Score `json:"scores"`
}

type Score struct {
	ScoringSystem string `json:"scoring_system"`
	Value         string `json:"value"`
}

type FixedPackage struct {
	Purl string `json:"purl"`
}
