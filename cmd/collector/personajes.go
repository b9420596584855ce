package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/broadstream/qgem/pkg/bundle"
	"github.com/broadstream/qgem/pkg/collector"
	"github.com/broadstream/qgem/pkg/preview"
)

// namesFile holds one character name per line, slot 1 first.
const namesFile = "names.txt"

func personajesPack(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("personajes pack", flag.ContinueOnError)
	dir := fset.String("dir", ".", "directory with names.txt and 1.<ext> .. 6.<ext> images")
	target := fset.String("out", bundle.DefaultPersonajesFilename, "ZIP file to write")
	if err := fset.Parse(args); err != nil {
		return err
	}

	form := collector.NewPersonajesForm(preview.NewRegistry())
	defer form.Close()

	names, err := readNames(filepath.Join(*dir, namesFile))
	if err != nil {
		return err
	}
	for i, name := range names {
		if err := form.SetName(i, name); err != nil {
			return err
		}
	}

	images := 0
	for i := 0; i < bundle.PersonajeSlots; i++ {
		matches, err := filepath.Glob(filepath.Join(*dir, fmt.Sprintf("%d.*", i+1)))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return fmt.Errorf("slot %d: more than one image (%s)", i+1, strings.Join(matches, ", "))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", matches[0], err)
		}
		if err := form.SetImage(i, filepath.Base(matches[0]), data); err != nil {
			return fmt.Errorf("%s: %w", matches[0], err)
		}
		images++
	}

	data, err := form.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *target, err)
	}
	fmt.Fprintf(out, "packed %d names and %d images into %s\n", len(names), images, *target)
	return nil
}

func personajesUnpack(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("personajes unpack", flag.ContinueOnError)
	in := fset.String("in", bundle.DefaultPersonajesFilename, "ZIP file to read")
	dir := fset.String("dir", ".", "directory to write names.txt and images into")
	if err := fset.Parse(args); err != nil {
		return err
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}
	form := collector.NewPersonajesForm(preview.NewRegistry())
	defer form.Close()
	if err := form.Load(data); err != nil {
		return fmt.Errorf("%s: %w", *in, err)
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	entries := form.Entries()
	names := make([]string, len(entries))
	images := 0
	for i, p := range entries {
		names[i] = p.Nombre
		if p.Image == nil {
			continue
		}
		name := fmt.Sprintf("%d.%s", i+1, bundle.ImageExtension(p.Image.Filename))
		if err := os.WriteFile(filepath.Join(*dir, name), p.Image.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		images++
	}
	if err := os.WriteFile(filepath.Join(*dir, namesFile), []byte(strings.Join(names, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", namesFile, err)
	}
	fmt.Fprintf(out, "unpacked %d images into %s\n", images, *dir)
	return nil
}

// readNames returns at most PersonajeSlots trimmed lines. A missing file means no names.
func readNames(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) > bundle.PersonajeSlots {
		lines = lines[:bundle.PersonajeSlots]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines, nil
}
