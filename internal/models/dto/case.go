package dto

// CaseRequest is the create/update payload for a case. OpDate uses the
// YYYY-MM-DD layout.
type CaseRequest struct {
	CaseNumber         string `json:"caseNumber"`
	NervesTreated      int    `json:"nervesTreated"`
	OpDate             string `json:"opDate"`
	CaseType           string `json:"caseType"`
	ClinicalSystem     string `json:"clinicalSystem"`
	Site               string `json:"site"`
	Surgeon            string `json:"surgeon"`
	UserStatus         string `json:"userStatus"`
	Specialty          string `json:"specialty"`
	Extremity          string `json:"extremity"`
	SurgeryDescription string `json:"surgeryDescription"`
	NeuromaCase        bool   `json:"neuromaCase"`
	CaseStudy          bool   `json:"caseStudy"`
	Region             string `json:"region"`
}
