package report

// Row is one spreadsheet line. Field order is the column order.
type Row struct {
	Change      string
	Date        string
	Time        string
	Author      string
	Description string
	Action      string
	File        string // base names joined by ", "
	JiraURL     string // issue URLs joined by ", "
}

// Columns is the header of the report sheet.
var Columns = []string{"Change", "Date", "Time", "Author", "Description", "Action", "File", "Jira URL"}

// Values returns the row cells in column order.
func (r Row) Values() []string {
	return []string{r.Change, r.Date, r.Time, r.Author, r.Description, r.Action, r.File, r.JiraURL}
}
