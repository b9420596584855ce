package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/broadstream/qgem/pkg/bundle"
	"github.com/broadstream/qgem/pkg/collector"
)

func deletreoInit(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("deletreo init", flag.ContinueOnError)
	path := fset.String("bundle", bundle.DefaultDeletreoFilename, "bundle file to create")
	groups := fset.Int("groups", 1, "number of word groups")
	flat := fset.Bool("flat", false, "write the six-word flat variant")
	if err := fset.Parse(args); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if *flat {
		data, err = collector.NewFlatDeletreoForm().Save()
	} else {
		form := collector.NewDeletreoForm()
		for i := 1; i < *groups; i++ {
			form.AddGroup()
		}
		data, err = form.Save()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *path, err)
	}
	fmt.Fprintf(out, "created %s\n", *path)
	return nil
}

func deletreoQuickLoad(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("deletreo quickload", flag.ContinueOnError)
	in := fset.String("in", "", "tab separated file, first column is used")
	group := fset.Int("group", 0, "group to replace, created when missing")
	path := fset.String("bundle", bundle.DefaultDeletreoFilename, "bundle file to update")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("deletreo quickload: -in is required")
	}
	if *group < 0 {
		return fmt.Errorf("deletreo quickload: invalid group %d", *group)
	}

	text, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}

	form := collector.NewDeletreoForm()
	existing, err := os.ReadFile(*path)
	switch {
	case err == nil:
		if err := form.Load(existing); err != nil {
			return fmt.Errorf("%s: %w", *path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read %s: %w", *path, err)
	}
	for len(form.Groups()) <= *group {
		form.AddGroup()
	}
	if err := form.QuickLoad(*group, string(text)); err != nil {
		return err
	}

	data, err := form.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *path, err)
	}
	fmt.Fprintf(out, "group %d: %d words\n", *group, len(form.Groups()[*group].Words))
	return nil
}

func deletreoPush(args []string, out io.Writer, dial dialer) error {
	fset := flag.NewFlagSet("deletreo push", flag.ContinueOnError)
	server := fset.String("server", defaultServer, "storage proxy base URL")
	path := fset.String("bundle", bundle.DefaultDeletreoFilename, "bundle file to upload")
	bucket := fset.String("bucket", "config-data", "target bucket")
	name := fset.String("name", "", "object key, defaults to the bundle file name")
	if err := fset.Parse(args); err != nil {
		return err
	}
	key := *name
	if key == "" {
		key = filepath.Base(*path)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read %s: %w", *path, err)
	}
	if err := validDeletreo(data); err != nil {
		return fmt.Errorf("%s: %w", *path, err)
	}

	c, err := dial(*server)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := c.SaveJSON(ctx, *bucket, key, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%d bytes) %s\n", res.Message, res.Size, res.PublicURL)
	return nil
}

// validDeletreo accepts either the grouped or the flat bundle shape.
func validDeletreo(data []byte) error {
	if _, err := bundle.DecodeDeletreo(data); err == nil {
		return nil
	}
	_, err := bundle.DecodeFlat(data, bundle.FlatSlots)
	return err
}
