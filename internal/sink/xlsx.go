package sink

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/property-research-cli/internal/model"
)

// XLSXSink writes one workbook per record into a directory.
type XLSXSink struct {
	dir string
}

// NewXLSX creates a workbook sink writing into dir.
func NewXLSX(dir string) *XLSXSink {
	return &XLSXSink{dir: dir}
}

func (s *XLSXSink) Name() string { return "xlsx" }

func (s *XLSXSink) Write(ctx context.Context, rec *model.ResearchRecord) error {
	f, err := BuildWorkbook(rec)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, workbookFileName(rec.Address))
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// workbookFileName derives a filesystem-safe name from the address.
func workbookFileName(address string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(address) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "research"
	}
	return name + ".xlsx"
}

// BuildWorkbook renders a record as a three-sheet workbook: the summary, the
// owner evidence, and the phone evidence.
func BuildWorkbook(rec *model.ResearchRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add summary sheet")
	}
	addKV := func(key, value string) {
		row := summary.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(value)
	}
	addKV("Address", rec.Address)
	addKV("Owner", rec.OwnerName)
	addKV("Owner Type", string(rec.OwnerType))
	addKV("Confidence", string(rec.OwnerConfidence))
	addKV("Contact Number", rec.ContactNumber)
	addKV("Stage", string(rec.Stage))
	addKV("Errors", strings.Join(rec.Errors, "; "))

	owners, err := f.AddSheet("Owners")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add owners sheet")
	}
	header := owners.AddRow()
	for _, h := range []string{"Name", "Type", "Source", "Confidence"} {
		header.AddCell().SetString(h)
	}
	for _, c := range rec.OwnerCandidates {
		row := owners.AddRow()
		row.AddCell().SetString(c.Name)
		row.AddCell().SetString(string(c.OwnerType))
		row.AddCell().SetString(c.Source)
		row.AddCell().SetString(string(c.Confidence))
	}

	phones, err := f.AddSheet("Phones")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add phones sheet")
	}
	header = phones.AddRow()
	for _, h := range []string{"Number", "Attributed To", "Sources", "Confidence", "Valid", "Line Type"} {
		header.AddCell().SetString(h)
	}
	for _, p := range rec.PhoneCandidates {
		row := phones.AddRow()
		number := p.Formatted
		if number == "" {
			number = p.Raw
		}
		row.AddCell().SetString(number)
		row.AddCell().SetString(p.AttributedTo)
		row.AddCell().SetString(strings.Join(p.Sources, ", "))
		row.AddCell().SetString(string(p.Confidence))
		row.AddCell().SetString(string(p.Valid))
		row.AddCell().SetString(p.LineType)
	}

	return f, nil
}
