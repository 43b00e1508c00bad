// Package scenario holds the catalog of procedural variants for
// marriage-registration submissions. The catalog is configuration data, not
// logic: adding a scenario is an edit to the table below and must never
// require touching gate or workflow code.
package scenario

import (
	"fmt"
	"sort"

	"simkah/internal/domain"
	dErrors "simkah/pkg/domain-errors"
)

// KK household-card options a scenario can prescribe.
const (
	KKCombined = "combined"
	KKSeparate = "separate"
)

// Definition describes one procedural variant: its policy flags, the
// documents the completeness gate requires, and the optional documents
// surfaced as client guidance only.
type Definition struct {
	ID               int              `json:"id"`
	Label            string           `json:"label"`
	OutsideDistrict  bool             `json:"outside_district"`
	KKOption         string           `json:"kk_option"`
	HasBiodataChange bool             `json:"has_biodata_change"`
	RequiredDocs     []domain.DocType `json:"required_docs"`
	OptionalDocs     []domain.DocType `json:"optional_docs"`
}

// baseRequired is the document set every current scenario mandates. Kept as
// a single variable so the table below stays readable; a future scenario may
// list its own set instead.
var baseRequired = []domain.DocType{
	domain.DocBukuNikah,
	domain.DocKTPSuami,
	domain.DocKTPIstri,
	domain.DocKKSuami,
	domain.DocKKIstri,
}

var catalog = map[int]Definition{
	1:  {ID: 1, Label: "In-district, combined family card", KKOption: KKCombined, RequiredDocs: baseRequired},
	2:  {ID: 2, Label: "In-district, separate family cards", KKOption: KKSeparate, RequiredDocs: baseRequired},
	3:  {ID: 3, Label: "In-district, combined card, biodata change", KKOption: KKCombined, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocPernyataanBiodata}},
	4:  {ID: 4, Label: "In-district, separate cards, biodata change", KKOption: KKSeparate, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocPernyataanBiodata, domain.DocAktaKelahiran}},
	5:  {ID: 5, Label: "Outside district, combined family card", OutsideDistrict: true, KKOption: KKCombined, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPindahNikah}},
	6:  {ID: 6, Label: "Outside district, separate family cards", OutsideDistrict: true, KKOption: KKSeparate, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPindahNikah}},
	7:  {ID: 7, Label: "Outside district, combined card, biodata change", OutsideDistrict: true, KKOption: KKCombined, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPindahNikah, domain.DocPernyataanBiodata}},
	8:  {ID: 8, Label: "Outside district, separate cards, biodata change", OutsideDistrict: true, KKOption: KKSeparate, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPindahNikah, domain.DocPernyataanBiodata}},
	9:  {ID: 9, Label: "In-district with introduction letter", KKOption: KKCombined, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPengantar}},
	10: {ID: 10, Label: "Outside district with introduction letter", OutsideDistrict: true, KKOption: KKCombined, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPengantar, domain.DocSuratPindahNikah}},
	11: {ID: 11, Label: "In-district, birth certificate correction", KKOption: KKCombined, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocAktaKelahiran}},
	12: {ID: 12, Label: "Outside district, birth certificate correction", OutsideDistrict: true, KKOption: KKCombined, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocAktaKelahiran, domain.DocSuratPindahNikah}},
	13: {ID: 13, Label: "In-district, separate cards with photo set", KKOption: KKSeparate, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocPasFoto}},
	14: {ID: 14, Label: "Outside district, separate cards with photo set", OutsideDistrict: true, KKOption: KKSeparate, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocPasFoto, domain.DocSuratPindahNikah}},
	15: {ID: 15, Label: "In-district, full supporting set", KKOption: KKCombined, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPengantar, domain.DocAktaKelahiran, domain.DocPasFoto}},
	16: {ID: 16, Label: "Outside district, full supporting set", OutsideDistrict: true, KKOption: KKCombined, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPengantar, domain.DocAktaKelahiran, domain.DocPasFoto, domain.DocSuratPindahNikah}},
	17: {ID: 17, Label: "Outside district, separate cards, full set, biodata change", OutsideDistrict: true, KKOption: KKSeparate, HasBiodataChange: true, RequiredDocs: baseRequired, OptionalDocs: []domain.DocType{domain.DocSuratPengantar, domain.DocAktaKelahiran, domain.DocPasFoto, domain.DocSuratPindahNikah, domain.DocPernyataanBiodata}},
}

// Get returns the definition for the given scenario id.
// Errors: CodeNotFound for an unknown id.
func Get(scenarioID int) (Definition, error) {
	def, ok := catalog[scenarioID]
	if !ok {
		return Definition{}, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("unknown scenario %d", scenarioID))
	}
	return def, nil
}

// List returns all definitions ordered by id, for client enumeration.
func List() []Definition {
	out := make([]Definition, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
