package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core/classroom"
)

func (cli *commandLine) listClasses(ctx context.Context, search string) error {
	page, err := cli.classSvc.Query(ctx, search)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGRADE\tYEAR\tHOMEROOM\tSTUDENTS")
	for _, c := range page.Results {
		homeroom := "-"
		if c.HomeroomTeacher != nil {
			homeroom = c.HomeroomTeacher.User.DisplayName()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Grade, c.AcademicYear, homeroom, c.Count.Students)
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "writing classes")
	}
	fmt.Fprintf(cli.out, "%d class(es)\n", page.Count)
	return nil
}

// exportRoster writes the roster of class id to out, or to its default file name.
func (cli *commandLine) exportRoster(ctx context.Context, id, out string) error {
	var buf bytes.Buffer
	c, err := cli.classSvc.Export(ctx, id, &buf)
	if err != nil {
		return err
	}
	if out == "" {
		out = classroom.RosterFilename(c)
	}
	if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Fprintf(cli.out, "roster of %s written to %s\n", c.Name, out)
	return nil
}
