package normalize

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ScanDocument is the XML sidecar a document scanner writes next to each receipt.
// Every field is optional.
type ScanDocument struct {
	XMLName     xml.Name
	Date        string `xml:"Date"`
	Vendor      string `xml:"Vendor"`
	Amount      string `xml:"Amount"`
	TaxIncluded string `xml:"TaxIncluded"`
	Confidence  string `xml:"Confidence"`
}

// IsTaxIncluded reports whether the scanner marked the amount as tax-inclusive.
func (d ScanDocument) IsTaxIncluded() bool {
	switch strings.ToLower(strings.TrimSpace(d.TaxIncluded)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// DocumentConfidence is the scanner's OCR confidence, defaulting to 1.0.
func (d ScanDocument) DocumentConfidence() float64 {
	raw := strings.TrimSpace(d.Confidence)
	if raw == "" {
		return 1.0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1.0
	}
	return v
}

// ParseScanXML decodes a scan document. The root element name is not checked.
// Only structurally broken XML is an error.
func ParseScanXML(r io.Reader) (ScanDocument, error) {
	var doc ScanDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return ScanDocument{}, fmt.Errorf("failed to parse scan document: %w", err)
	}
	return doc, nil
}
