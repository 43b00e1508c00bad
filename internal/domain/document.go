package domain

import dErrors "simkah/pkg/domain-errors"

// DocType tags an uploaded document with its procedural meaning. The
// scenario catalog decides which types are mandatory; this enum is the
// closed vocabulary both sides speak.
type DocType string

const (
	DocBukuNikah DocType = "BUKU_NIKAH"
	DocKTPSuami  DocType = "KTP_SUAMI"
	DocKTPIstri  DocType = "KTP_ISTRI"
	DocKKSuami   DocType = "KK_SUAMI"
	DocKKIstri   DocType = "KK_ISTRI"

	// Supporting documents; required by no scenario but accepted and listed
	// as guidance for some.
	DocSuratPengantar    DocType = "SURAT_PENGANTAR"
	DocSuratPindahNikah  DocType = "SURAT_PINDAH_NIKAH"
	DocAktaKelahiran     DocType = "AKTA_KELAHIRAN"
	DocPernyataanBiodata DocType = "SURAT_PERNYATAAN_BIODATA"
	DocPasFoto           DocType = "PAS_FOTO"
)

var validDocTypes = map[DocType]bool{
	DocBukuNikah:         true,
	DocKTPSuami:          true,
	DocKTPIstri:          true,
	DocKKSuami:           true,
	DocKKIstri:           true,
	DocSuratPengantar:    true,
	DocSuratPindahNikah:  true,
	DocAktaKelahiran:     true,
	DocPernyataanBiodata: true,
	DocPasFoto:           true,
}

// ParseDocType constructs a DocType from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseDocType(s string) (DocType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document type cannot be empty")
	}
	d := DocType(s)
	if !validDocTypes[d] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid document type: "+s)
	}
	return d, nil
}

// IsValid checks if the doc type is one of the supported enum values.
func (d DocType) IsValid() bool { return validDocTypes[d] }

func (d DocType) String() string { return string(d) }

// Document is the metadata of a stored upload. File bytes never pass through
// this service; FileRef points into the external document store.
type Document struct {
	Type     DocType `json:"type"`
	FileRef  string  `json:"file_ref"`
	Filename string  `json:"filename"`
	MimeType string  `json:"mime_type"`
	Size     int64   `json:"size"`
}
