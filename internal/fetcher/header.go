package fetcher

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/model"
)

// column identifies a RawRecord field.
type column int

const (
	colType column = iota
	colNumber
	colLocality
	colOrganization
	colAddress
	colDescription
	colMeetingDay
	colMeetingTime
	colSpecialty
	colEmail
	colPhone
	colContact
	colWebsite
)

// headerAliases maps folded header text to the field it carries.
var headerAliases = map[string]column{
	"type":                  colType,
	"unittype":              colType,
	"program":               colType,
	"number":                colNumber,
	"unitnumber":            colNumber,
	"unitno":                colNumber,
	"unit#":                 colNumber,
	"no":                    colNumber,
	"locality":              colLocality,
	"town":                  colLocality,
	"city":                  colLocality,
	"unittown":              colLocality,
	"community":             colLocality,
	"organization":          colOrganization,
	"organisation":          colOrganization,
	"charteredorg":          colOrganization,
	"charteredorganization": colOrganization,
	"charterorg":            colOrganization,
	"sponsor":               colOrganization,
	"address":               colAddress,
	"meetinglocation":       colAddress,
	"meetingaddress":        colAddress,
	"location":              colAddress,
	"description":           colDescription,
	"about":                 colDescription,
	"notes":                 colDescription,
	"meetingday":            colMeetingDay,
	"day":                   colMeetingDay,
	"meetingtime":           colMeetingTime,
	"time":                  colMeetingTime,
	"specialty":             colSpecialty,
	"specialinterest":       colSpecialty,
	"focus":                 colSpecialty,
	"email":                 colEmail,
	"contactemail":          colEmail,
	"unitemail":             colEmail,
	"phone":                 colPhone,
	"contactphone":          colPhone,
	"contact":               colContact,
	"contactname":           colContact,
	"leader":                colContact,
	"website":               colWebsite,
	"url":                   colWebsite,
	"web":                   colWebsite,
}

// foldHeader lowercases a header cell and drops everything except letters,
// digits and '#', so "Unit Type", "unit_type" and "UNIT-TYPE" all agree.
func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columnIndex maps each recognised field to its position in the header.
// Unrecognised headers are ignored; the first matching column wins.
func columnIndex(header []string) map[column]int {
	idx := make(map[column]int)
	for i, h := range header {
		c, ok := headerAliases[foldHeader(h)]
		if !ok {
			continue
		}
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// RecordsFromTable converts a header row plus data rows into raw records.
// Blank cells become absent fields.
func RecordsFromTable(table [][]string) ([]model.RawRecord, error) {
	if len(table) == 0 {
		return nil, nil
	}

	idx := columnIndex(table[0])
	if len(idx) == 0 {
		return nil, eris.Errorf("fetcher: no recognised columns in header %q", table[0])
	}

	getCol := func(row []string, c column) *string {
		i, ok := idx[c]
		if !ok || i >= len(row) {
			return nil
		}
		return model.Opt(row[i])
	}

	records := make([]model.RawRecord, 0, len(table)-1)
	for _, row := range table[1:] {
		records = append(records, model.RawRecord{
			Type:         getCol(row, colType),
			Number:       getCol(row, colNumber),
			Locality:     getCol(row, colLocality),
			Organization: getCol(row, colOrganization),
			Address:      getCol(row, colAddress),
			Description:  getCol(row, colDescription),
			MeetingDay:   getCol(row, colMeetingDay),
			MeetingTime:  getCol(row, colMeetingTime),
			Specialty:    getCol(row, colSpecialty),
			Email:        getCol(row, colEmail),
			Phone:        getCol(row, colPhone),
			Contact:      getCol(row, colContact),
			Website:      getCol(row, colWebsite),
		})
	}
	return records, nil
}
