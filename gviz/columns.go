package gviz

import (
	"sort"
	"strings"
)

// ColumnEntry binds a user-facing column label to the remote column id.
type ColumnEntry struct {
	Label string
	ID    string
	// Type is the data source type of the column, when known.
	Type string
}

// ColumnMap is an ordered label to column id mapping, in sheet order. Labels are unique.
type ColumnMap []ColumnEntry

// ColumnMapFromTable builds a ColumnMap from the columns of a header query.
// Labels are trimmed; a column without a label is known by its id. When two
// columns share a label the first one wins.
func ColumnMapFromTable(t *Table) ColumnMap {
	if t == nil {
		return ColumnMap{}
	}
	columns := make(ColumnMap, 0, len(t.Cols))
	for _, col := range t.Cols {
		label := col.Name()
		if _, exists := columns.ID(label); exists {
			continue
		}
		columns = append(columns, ColumnEntry{Label: label, ID: col.ID, Type: col.Type})
	}
	return columns
}

// ID returns the remote id of a label.
func (m ColumnMap) ID(label string) (string, bool) {
	for _, entry := range m {
		if entry.Label == label {
			return entry.ID, true
		}
	}
	return "", false
}

// Label returns the label bound to a remote id.
func (m ColumnMap) Label(id string) (string, bool) {
	for _, entry := range m {
		if strings.EqualFold(entry.ID, id) {
			return entry.Label, true
		}
	}
	return "", false
}

// Labels returns all labels in sheet order.
func (m ColumnMap) Labels() []string {
	labels := make([]string, len(m))
	for i, entry := range m {
		labels[i] = entry.Label
	}
	return labels
}

// SortedLabels returns all labels in alphabetical order.
func (m ColumnMap) SortedLabels() []string {
	labels := m.Labels()
	sort.Strings(labels)
	return labels
}
