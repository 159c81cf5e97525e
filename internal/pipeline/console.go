package pipeline

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/paveg/coffeetrends/internal/dataframe"
)

// Commentary is printed after the charts, verbatim.
var Commentary = []string{
	"1. Trends Over Time: Observing the plot, we can see if consumption increases as price changes. A stable or rising consumption with increasing prices might suggest strong demand.",
	"2. Top Countries: The top 5 countries in 2023 show which nations have the highest per capita consumption. Cross-referencing with population could reveal total volume leaders.",
	"3. Coffee Type Preferences: The distribution of coffee types over years indicates shifts in global preferences—e.g., a rise in Latte might reflect trendy café culture.",
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

// printPreview writes the first n rows of df, prefixed with a row index.
func printPreview(w io.Writer, df *dataframe.DataFrame, n int) {
	fmt.Fprintln(w, "Dataset Preview:")

	head := df.Head(n)
	defer head.Release()

	names := head.Columns()
	table := newTable(w, append([]string{""}, names...))
	for row := 0; row < head.Len(); row++ {
		cells := make([]string, 0, len(names)+1)
		cells = append(cells, strconv.Itoa(row))
		for _, name := range names {
			s, _ := head.Column(name)
			cells = append(cells, s.GetAsString(row))
		}
		table.Append(cells)
	}
	table.Render()
}

// printInfo writes the row count and, per column, its non-null count and type.
func printInfo(w io.Writer, df *dataframe.DataFrame) {
	fmt.Fprintln(w, "\nDataset Info:")
	fmt.Fprintf(w, "%d entries, %d columns\n", df.Len(), df.Width())

	table := newTable(w, []string{"#", "Column", "Non-Null Count", "Dtype"})
	for i, info := range df.Info() {
		table.Append([]string{
			strconv.Itoa(i),
			info.Name,
			fmt.Sprintf("%d non-null", info.NonNull),
			info.Dtype,
		})
	}
	table.Render()
}

func printCommentary(w io.Writer) {
	fmt.Fprintln(w, "\nAnalysis Thoughts:")
	for _, line := range Commentary {
		fmt.Fprintln(w, line)
	}
}
