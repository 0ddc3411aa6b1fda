// Command kfxdump inspects and verifies KFX containers built with this
// module: a structural summary, a cross-reader conformance check, raw
// resource extraction, and a way to scaffold an empty container.
package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"kfxcore/container"
	"kfxcore/diagnostics"
	"kfxcore/fragment"
	"kfxcore/symbols"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kfxdump: unable to start logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app := &cli.Command{
		Name:  "kfxdump",
		Usage: "inspect and verify KFX containers",
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			fmt.Fprintf(os.Stderr, "kfxdump: %v\n", err)
		},
		Commands: []*cli.Command{
			dumpCommand(log),
			verifyCommand(log),
			resourcesCommand(log),
			newCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}

func readContainer(cmd *cli.Command, log *zap.Logger) (*container.Container, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, errors.New("missing FILE argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return container.Read(data, diagnostics.NewZapSink(log))
}

func dumpCommand(log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print a structural summary of a KFX container",
		ArgsUsage: "FILE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, err := readContainer(cmd, log)
			if err != nil {
				return err
			}
			fmt.Print(summarize(c))
			return nil
		},
	}
}

func summarize(c *container.Container) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "container: %s\n", c.ContainerID)
	fmt.Fprintf(&sb, "version: %d\n", c.Version)
	fmt.Fprintf(&sb, "classification: %s\n", c.Classification())
	if c.GeneratorApp != "" || c.GeneratorPkg != "" {
		fmt.Fprintf(&sb, "generator: %s %s\n", c.GeneratorApp, c.GeneratorPkg)
	}
	fmt.Fprintf(&sb, "local symbols: %d\n", len(c.Table.Locals()))
	fmt.Fprintf(&sb, "fragments: %d\n", c.Fragments.Len())

	types := make([]symbols.Sym, 0, len(c.Fragments.Types()))
	for t := range c.Fragments.Types() {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(&sb, "  $%d: %d fragment(s)\n", t, len(c.Fragments.GetByType(t)))
	}
	return sb.String()
}

func verifyCommand(log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "cross-check a container's Ion encoding against the reference amazon-ion/ion-go reader",
		ArgsUsage: "FILE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, err := readContainer(cmd, log)
			if err != nil {
				return err
			}
			if err := c.Verify(); err != nil {
				return fmt.Errorf("conformance check failed:\n%w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func resourcesCommand(log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "resources",
		Usage:     "extract $417 (raw_media) blobs into a zip archive",
		ArgsUsage: "FILE OUT.zip",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, err := readContainer(cmd, log)
			if err != nil {
				return err
			}
			out := cmd.Args().Get(1)
			if out == "" {
				return errors.New("missing OUT.zip argument")
			}
			return dumpResources(c, out)
		},
	}
}

func dumpResources(c *container.Container, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	written := 0
	for _, frag := range c.Fragments.GetByType(fragment.SymRawMedia) {
		blob, err := frag.Value.BlobValue()
		if err != nil || len(blob) == 0 {
			continue
		}
		name := fmt.Sprintf("%d.bin", frag.FID)
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", name, err)
		}
		if _, err := w.Write(blob); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written++
	}
	fmt.Fprintf(os.Stderr, "resources: wrote %d file(s) into %s\n", written, outPath)
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "scaffold an empty container with a freshly generated container ID",
		ArgsUsage: "OUT.kfx",
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := cmd.Args().First()
			if out == "" {
				return errors.New("missing OUT.kfx argument")
			}

			c := container.New()
			c.ContainerID = uuid.NewString()
			c.Table = symbols.NewTable(0) // empty shared tier; interned as fragments are added

			data, err := c.Write()
			if err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("wrote empty container %s (id=%s)\n", filepath.Base(out), c.ContainerID)
			return nil
		},
	}
}
