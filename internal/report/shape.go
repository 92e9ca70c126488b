package report

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/p4-changelist-report/internal/parse"
)

// Shaper turns one changelist into report rows. base carries the fields that
// are shared by every row of the change.
type Shaper func(base Row, cl *parse.Changelist) []Row

// ByAction emits one row per distinct action in first-seen order.
func ByAction(base Row, cl *parse.Changelist) []Row {
	rows := make([]Row, 0, len(cl.Actions))
	for _, action := range cl.Actions {
		row := base
		row.Action = action
		row.File = joinNames(cl.Files[action])
		rows = append(rows, row)
	}
	return rows
}

// ByChange emits a single row listing every action and file. A change with no
// affected files yields no row.
func ByChange(base Row, cl *parse.Changelist) []Row {
	if len(cl.Actions) == 0 {
		return nil
	}
	var names []string
	for _, action := range cl.Actions {
		for _, f := range cl.Files[action] {
			names = append(names, f.Name())
		}
	}
	row := base
	row.Action = strings.Join(cl.Actions, ", ")
	row.File = strings.Join(names, ", ")
	return []Row{row}
}

// ShaperFor maps a group_by setting to a Shaper.
func ShaperFor(groupBy string) (Shaper, error) {
	switch groupBy {
	case "", "action":
		return ByAction, nil
	case "change":
		return ByChange, nil
	default:
		return nil, fmt.Errorf("unknown group_by %q", groupBy)
	}
}

func joinNames(files []parse.AffectedFile) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	return strings.Join(names, ", ")
}
