package invoicing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Provider identity document codes (catálogo 06).
const (
	DocCodeOther    = "0"
	DocCodeDNI      = "1"
	DocCodeForeign  = "4"
	DocCodeRUC      = "6"
	DocCodePassport = "7"
)

var documentCodes = map[string]string{
	"DNI":                     DocCodeDNI,
	"RUC":                     DocCodeRUC,
	"CE":                      DocCodeForeign,
	"CARNET DE EXTRANJERIA":   DocCodeForeign,
	"CARNET EXTRANJERIA":      DocCodeForeign,
	"PASAPORTE":               DocCodePassport,
	"OTROS":                   DocCodeOther,
	"DOC.TRIB.NO.DOM.SIN.RUC": DocCodeOther,
}

// Unit of measure codes (UN/ECE rec. 20) accepted by the provider.
var unitCodes = map[string]string{
	"UNIDAD":     "NIU",
	"UNIDADES":   "NIU",
	"UND":        "NIU",
	"METRO":      "MTR",
	"METROS":     "MTR",
	"M":          "MTR",
	"KILOGRAMO":  "KGM",
	"KILOGRAMOS": "KGM",
	"KG":         "KGM",
	"LITRO":      "LTR",
	"LITROS":     "LTR",
	"L":          "LTR",
	"CAJA":       "BX",
	"CAJAS":      "BX",
	"PAQUETE":    "PK",
	"PAQUETES":   "PK",
	"ROLLO":      "RO",
	"ROLLOS":     "RO",
	"BOLSA":      "BG",
	"BOLSAS":     "BG",
}

// DefaultUnitCode is used for labels not present in the table.
const DefaultUnitCode = "NIU"

// DocumentCode maps a free-text identity document label to its provider code.
// Unknown labels fall back to DNI.
func DocumentCode(label string) string {
	if code, ok := documentCodes[normalizeLabel(label)]; ok {
		return code
	}
	return DocCodeDNI
}

// UnitCode maps a free-text unit label to its provider code.
func UnitCode(label string) string {
	if code, ok := unitCodes[normalizeLabel(label)]; ok {
		return code
	}
	return DefaultUnitCode
}

// normalizeLabel upper-cases, strips accents and collapses inner whitespace.
func normalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}
