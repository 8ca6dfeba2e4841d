package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cineverse/apiservice-sdk-go/sdk/core/movies"
)

func printPage(out io.Writer, page, totalPages int, results []movies.Movie) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tRATING")
	for _, m := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n", m.ID, m.Title, m.ReleaseDate, m.VoteAverage)
	}
	fmt.Fprintf(tw, "page %d of %d\n", page, totalPages)
	return tw.Flush()
}
