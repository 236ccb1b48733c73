package export

// Column describes one table column. Weight sets the share of the page
// width the column receives in PDF output; zero means an equal share.
type Column struct {
	Name   string
	Weight float64
}

// Table is the positional row form shared by the CSV and PDF renderers.
// Row cells line up with Columns by index; short rows render blank cells
// and extra cells are dropped.
type Table struct {
	Columns []Column
	Rows    [][]string
}

func (t Table) headerNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

func (t Table) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// columnWeights returns one normalized weight per column, treating zero
// and negative weights as an equal share.
func (t Table) columnWeights() []float64 {
	weights := make([]float64, len(t.Columns))
	var total float64
	for i, col := range t.Columns {
		w := col.Weight
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
