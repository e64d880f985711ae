package cases

import (
	"sort"

	"github.com/hongminglow/casetrack-be/internal/models"
)

// SurgeonStats is one row of the surgeon productivity breakdown.
type SurgeonStats struct {
	Surgeon      string `json:"surgeon"`
	Cases        int    `json:"cases"`
	Nerves       int    `json:"nerves"`
	NeuromaCases int    `json:"neuromaCases"`
}

// MonthBucket holds the counts for one calendar month (YYYY-MM).
type MonthBucket struct {
	Month  string `json:"month"`
	Cases  int    `json:"cases"`
	Nerves int    `json:"nerves"`
}

// Summary aggregates a set of cases for the dashboard charts.
type Summary struct {
	TotalCases   int            `json:"totalCases"`
	TotalNerves  int            `json:"totalNerves"`
	NeuromaCases int            `json:"neuromaCases"`
	CaseStudies  int            `json:"caseStudies"`
	ByType       map[string]int `json:"byType"`
	BySpecialty  map[string]int `json:"bySpecialty"`
	ByTerritory  map[string]int `json:"byTerritory"`
	ByExtremity  map[string]int `json:"byExtremity"`
	ByStatus     map[string]int `json:"byStatus"`
	Surgeons     []SurgeonStats `json:"surgeons"`
	Monthly      []MonthBucket  `json:"monthly"`
}

// Summarize computes counts, surgeon productivity and the monthly series in
// one pass over list.
func Summarize(list []models.Case) Summary {
	s := Summary{
		ByType:      map[string]int{},
		BySpecialty: map[string]int{},
		ByTerritory: map[string]int{},
		ByExtremity: map[string]int{},
		ByStatus:    map[string]int{},
		Surgeons:    []SurgeonStats{},
		Monthly:     []MonthBucket{},
	}
	surgeons := map[string]*SurgeonStats{}
	months := map[string]*MonthBucket{}

	for _, c := range list {
		s.TotalCases++
		s.TotalNerves += c.NervesTreated
		if c.NeuromaCase {
			s.NeuromaCases++
		}
		if c.CaseStudy {
			s.CaseStudies++
		}
		s.ByType[c.CaseType]++
		s.BySpecialty[c.Specialty]++
		s.ByTerritory[c.Region]++
		s.ByExtremity[c.Extremity]++
		s.ByStatus[c.UserStatus]++

		ss, ok := surgeons[c.Surgeon]
		if !ok {
			ss = &SurgeonStats{Surgeon: c.Surgeon}
			surgeons[c.Surgeon] = ss
		}
		ss.Cases++
		ss.Nerves += c.NervesTreated
		if c.NeuromaCase {
			ss.NeuromaCases++
		}

		key := c.OpDate.UTC().Format("2006-01")
		mb, ok := months[key]
		if !ok {
			mb = &MonthBucket{Month: key}
			months[key] = mb
		}
		mb.Cases++
		mb.Nerves += c.NervesTreated
	}

	for _, ss := range surgeons {
		s.Surgeons = append(s.Surgeons, *ss)
	}
	sort.Slice(s.Surgeons, func(i, j int) bool {
		if s.Surgeons[i].Cases != s.Surgeons[j].Cases {
			return s.Surgeons[i].Cases > s.Surgeons[j].Cases
		}
		return s.Surgeons[i].Surgeon < s.Surgeons[j].Surgeon
	})

	for _, mb := range months {
		s.Monthly = append(s.Monthly, *mb)
	}
	sort.Slice(s.Monthly, func(i, j int) bool { return s.Monthly[i].Month < s.Monthly[j].Month })

	return s
}
