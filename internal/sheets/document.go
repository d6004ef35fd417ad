// Package sheets builds phone bank spreadsheet documents and reads extra
// columns back out of previously generated ones.
package sheets

// Cell is a single spreadsheet cell
type Cell struct {
	Text    string
	LinkURL string
	Bold    bool
}

// Row is an ordered list of cells. An empty Row renders as a blank line.
type Row []Cell

// Document is a single-sheet spreadsheet payload
type Document struct {
	Title          string
	Rows           []Row
	ColumnWidths   []int // pixels, one per standard column
	FrozenRowCount int
}

// Standard column titles, in order. The first column is intentionally blank;
// callers use it for check marks.
const (
	ColumnName           = "Name"
	columnTwitterSearch  = "Twitter search\nNote: Due to a Twitter bug, the Twitter search sometimes displays 0 results even when there should be should be matching tweets. Refreshing the Twitter page often fixes this."
	leadSponsorSuffix    = " (lead)"
	noContactPlaceholder = "No contact info"
	relevantTweetsLabel  = "Relevant tweets"
	nonSponsorsLabel     = "NON-SPONSORS"
	sponsorsLabel        = "SPONSORS"
)

// ColumnTitles are the headers of every generated sheet
var ColumnTitles = []string{
	"",
	ColumnName,
	"Email",
	"Party",
	"Borough",
	"District Phone",
	"Legislative Phone",
	"Twitter",
	columnTwitterSearch,
	"Staffers",
}

// ColumnWidths are hardcoded pixel widths for ColumnTitles. The Sheets API
// cannot size columns to their contents.
var ColumnWidths = []int{150, 150, 200, 50, 100, 100, 150, 200, 250, 250}

var standardColumns = func() map[string]bool {
	set := make(map[string]bool, len(ColumnTitles))
	for _, t := range ColumnTitles {
		set[t] = true
	}
	return set
}()

// IsStandardColumn reports whether title is one of the generated headers
func IsStandardColumn(title string) bool {
	return standardColumns[title]
}

// SponsorName annotates the lead sponsor's name
func SponsorName(name string, lead bool) string {
	if lead {
		return name + leadSponsorSuffix
	}
	return name
}
