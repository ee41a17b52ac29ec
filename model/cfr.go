package model

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
)

// CFRClass holds the classification of a CFR code from the external
// reference mapping.
type CFRClass struct {
	Class1 string `json:"class_1"`
	Class2 string `json:"class_2,omitempty"`
}

// CFRReference maps canonical CFR codes to their classification. The map is
// supplied by the upstream pipeline stage.
type CFRReference map[string]CFRClass

// Lookup returns the classification for a canonical CFR code.
func (r CFRReference) Lookup(code string) (CFRClass, bool) {
	class, ok := r[code]
	return class, ok
}

// ReadCFRReference parses the CFR reference csv (columns: CFR, class_1,
// class_2, header row expected).
func ReadCFRReference(reader io.Reader) (CFRReference, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	reference := CFRReference{}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		class := CFRClass{Class1: strings.TrimSpace(row[1])}
		if len(row) > 2 {
			class.Class2 = strings.TrimSpace(row[2])
		}
		reference[code] = class
	}

	return reference, nil
}

// ReadCFRReferenceFromFile reads the CFR reference mapping from a csv file.
func ReadCFRReferenceFromFile(filePath string) (CFRReference, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCFRReference(file)
}
