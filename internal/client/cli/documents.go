package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/compliancebinder/internal/client/api"
)

func (a *App) documentsCommand() *Command {
	return &Command{
		Name:    "docs",
		Summary: "List, upload and download documents",
		Subcommands: []*Command{
			a.documentsListCommand(),
			a.documentsUploadCommand(),
			a.documentsDownloadCommand(),
		},
	}
}

func (a *App) documentsListCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "list",
		Summary: "List the documents of a binder",
		Usage:   "binderctl docs list <binder-id>",
		Flags:   func() *pflag.FlagSet { return jsonFlag("list", &asJSON) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "binder id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}
			docs, err := a.client.ListDocuments(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(docs)
			}
			a.printDocuments(docs...)
			return nil
		},
	}
}

// contentTypeFor guesses from the extension; the server checks the result
// against its allowlist.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (a *App) documentsUploadCommand() *Command {
	var note, contentType, name string
	return &Command{
		Name:    "upload",
		Summary: "Upload a file into a binder",
		Usage:   "binderctl docs upload <binder-id> <path> [--note TEXT] [--type CONTENT-TYPE] [--name FILENAME]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("upload", pflag.ContinueOnError)
			fs.StringVar(&note, "note", "", "note stored with the document")
			fs.StringVar(&contentType, "type", "", "content type (guessed from the extension when empty)")
			fs.StringVar(&name, "name", "", "filename sent to the server (defaults to the file's base name)")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return usageError("expected <binder-id> <path>")
			}
			id, err := parseID(args[:1], "binder id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}

			path := args[1]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(path)
			}
			if contentType == "" {
				contentType = contentTypeFor(path)
			}

			doc, err := a.client.Upload(ctx, id, name, contentType, note, f)
			if err != nil {
				return err
			}
			a.printDocuments(*doc)
			return nil
		},
	}
}

func (a *App) documentsDownloadCommand() *Command {
	var output string
	return &Command{
		Name:    "download",
		Summary: "Download a document",
		Usage:   "binderctl docs download <document-id> [-o PATH]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("download", pflag.ContinueOnError)
			fs.StringVarP(&output, "output", "o", "", "destination file, '-' for stdout (server filename when empty)")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "document id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}

			if output == "-" {
				_, err := a.client.Download(ctx, id, a.out)
				return err
			}

			// The server name is only known after the response, so write
			// to a temporary file in the target directory first.
			dir := "."
			if output != "" {
				dir = filepath.Dir(output)
			}
			tmp, err := os.CreateTemp(dir, ".binderctl-*")
			if err != nil {
				return fmt.Errorf("create file: %w", err)
			}
			defer os.Remove(tmp.Name())

			suggested, err := a.client.Download(ctx, id, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = safeLocalName(suggested, id)
			}
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return fmt.Errorf("save %s: %w", dest, err)
			}
			fmt.Fprintln(a.out, "Saved", dest)
			return nil
		},
	}
}

// safeLocalName keeps the server's filename inside the working directory.
func safeLocalName(suggested string, id int64) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(suggested, "\\", "/")))
	if name == "/" || name == "." || name == "" {
		return fmt.Sprintf("document-%d", id)
	}
	return name
}

func (a *App) printDocuments(docs ...api.Document) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tUPLOADED\tNOTE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.OriginalName, d.ContentType, d.Size, d.UploadedAt.Local().Format(time.DateTime), d.Note)
	}
	_ = tw.Flush()
}
