package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubstatic"
	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/scaffold"
)

func newNewCmd(c *cli) *cobra.Command {
	var data scaffold.Data
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new pubstatic site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := pubstatic.Slugify(args[0])
			if dir == "" {
				return fmt.Errorf("invalid site name %q", args[0])
			}
			data.ProjectName = dir
			data.SiteName = args[0]
			if data.SiteName == dir {
				data.SiteName = content.TitleFromSlug(dir)
			}
			data.Date = time.Now().Format(time.DateOnly)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Creating new pubstatic site: %s\n\n", dir)
			if err := scaffold.Generate(dir, data, out); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Done! Next steps:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  cd %s\n", dir)
			fmt.Fprintln(out, "  pubstatic serve          # preview on http://localhost:3000")
			fmt.Fprintln(out, "  pubstatic build --watch  # write the static site to dist/")
			return nil
		},
	}
	cmd.Flags().StringVar(&data.SiteURL, "url", "http://localhost:3000", "canonical site URL")
	cmd.Flags().StringVar(&data.Author, "author", "", "author name")
	return cmd
}
