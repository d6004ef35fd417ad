package sheets

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
)

// ImportSnapshot is the hand-edited data carried over from a previous sheet
type ImportSnapshot struct {
	// ExtraColumnTitles are non-standard headers in their original left-to-right order
	ExtraColumnTitles []string
	// ValuesByLegislator maps legislator id -> extra column title -> cell text
	ValuesByLegislator map[uuid.UUID]map[string]string
	// Messages describe what was and was not carried over, for the user
	Messages []string
}

const (
	msgEmptySheet     = "Old spreadsheet was empty"
	msgNoNameColumn   = "Could not find a 'Name' column at the top of the old spreadsheet, so nothing was copied over"
	msgNoExtraColumns = "Did not find any extra columns in the old sheet to import"
)

// Importer extracts extra columns from the cells of a previous sheet
type Importer struct {
	log *logger.Logger
}

// NewImporter creates a new Importer
func NewImporter(log *logger.Logger) *Importer {
	return &Importer{log: log.With("component", "sheet_importer")}
}

// Import reads a grid of cell text whose first row holds the headers. Rows are
// matched to legislators by exact name, falling back to the name with the lead
// sponsor annotation. Problems are reported in Messages, never as errors.
func (im *Importer) Import(cells [][]string, legislators []model.Legislator) *ImportSnapshot {
	snapshot := &ImportSnapshot{ValuesByLegislator: make(map[uuid.UUID]map[string]string)}

	if len(cells) == 0 {
		snapshot.Messages = append(snapshot.Messages, msgEmptySheet)
		return snapshot
	}

	header := cells[0]

	// Pick out the Name column and every column outside the standard set
	type extraColumn struct {
		index int
		title string
	}
	var extras []extraColumn
	nameIndex := -1
	for i, title := range header {
		switch {
		case !IsStandardColumn(title):
			extras = append(extras, extraColumn{index: i, title: title})
		case title == ColumnName:
			// A repeated Name header means the rightmost one is used
			nameIndex = i
		}
	}

	if nameIndex < 0 {
		im.log.Warn("Could not find Name column in spreadsheet", "columns", strings.Join(header, ","))
		snapshot.Messages = append(snapshot.Messages, msgNoNameColumn)
		return snapshot
	}

	byName := make(map[string]map[string]string)
	for _, row := range cells[1:] {
		// Blank rows come back shorter than the header
		if nameIndex >= len(row) {
			continue
		}
		values := make(map[string]string, len(extras))
		for _, col := range extras {
			if col.index < len(row) {
				values[col.title] = row[col.index]
			} else {
				values[col.title] = ""
			}
		}
		byName[row[nameIndex]] = values
	}

	for _, col := range extras {
		snapshot.ExtraColumnTitles = append(snapshot.ExtraColumnTitles, col.title)
		snapshot.Messages = append(snapshot.Messages, fmt.Sprintf("Copied column '%s' to new sheet", col.title))
	}
	if len(extras) == 0 {
		snapshot.Messages = append(snapshot.Messages, msgNoExtraColumns)
	}

	// Re-key by legislator
	for _, l := range legislators {
		values, ok := byName[l.Name]
		if !ok {
			values, ok = byName[SponsorName(l.Name, true)]
		}
		if !ok {
			snapshot.Messages = append(snapshot.Messages, fmt.Sprintf(
				"Could not find %s under the Name column in the old sheet. Make sure the name matches exactly.", l.Name))
			continue
		}
		snapshot.ValuesByLegislator[l.ID] = values
	}

	return snapshot
}
