package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/fatimg/defrag"
	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/image"
	"github.com/dargueta/fatimg/profiles"
	"github.com/dargueta/fatimg/volume"
	"github.com/dargueta/fatimg/workerpool"
)

func main() {
	app := &cli.App{
		Name:      "fatimgctl",
		Usage:     "Manage a single-file FAT-style filesystem image",
		ArgsUsage: "IMAGE_PATH ACTION [ARGS...]",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches on the positional <image_path> <action> [args...] protocol.
// Too few arguments is the one failure mode that exits nonzero; every other
// failure is printed to stderr and swallowed, exiting 0.
func run(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) < 2 {
		return cli.Exit("usage: fatimgctl IMAGE_PATH ACTION [ARGS...]", 1)
	}

	imagePath, action, rest := args[0], args[1], args[2:]
	opener := newFileOpener(imagePath)
	sink := diag.NewStdSink()

	if err := dispatch(opener, sink, action, rest); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return nil
}

func dispatch(opener *fileOpener, sink diag.Sink, action string, rest []string) error {
	switch action {
	case "-n":
		return actionFormat(opener, sink, rest)
	case "-a":
		return actionImport(opener, rest)
	case "-f":
		return actionDeleteFile(opener, rest)
	case "-c":
		return actionPrintChain(opener, rest)
	case "-m":
		return actionCreateDirectory(opener, rest)
	case "-r":
		return actionDeleteDirectory(opener, rest)
	case "-l":
		return actionPrintContent(opener, rest)
	case "-p":
		return actionPrintTree(opener)
	case "-b":
		return actionDefragment(opener, sink)
	case "-d":
		return actionDump(opener)
	default:
		return fmt.Errorf("fatimgctl: %q is not a recognized action", action)
	}
}

// actionFormat implements -n: create an empty image and save it. An
// optional trailing argument names a profiles preset; the default
// construction values are used when none is given.
func actionFormat(opener *fileOpener, sink diag.Sink, rest []string) error {
	sb := image.DefaultSuperblock()
	if len(rest) > 0 {
		preset, ok := profiles.Get(rest[0])
		if !ok {
			return fmt.Errorf("fatimgctl: no such profile %q", rest[0])
		}
		sb = preset
	}

	vol, err := volume.Create(opener, sb, sink)
	if err != nil {
		return err
	}
	defer vol.Close()
	return vol.Save()
}

func actionImport(opener *fileOpener, rest []string) error {
	if len(rest) < 2 {
		return fmt.Errorf("fatimgctl: -a needs host_path and image_path")
	}
	hostPath, imagePath := rest[0], rest[1]

	host, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer host.Close()

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	if err := vol.InsertFile(host, imagePath); err != nil {
		return err
	}
	return vol.Save()
}

func actionDeleteFile(opener *fileOpener, rest []string) error {
	if len(rest) < 1 {
		return fmt.Errorf("fatimgctl: -f needs image_path")
	}

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	if err := vol.DeleteFile(rest[0]); err != nil {
		return err
	}
	return vol.Save()
}

func actionPrintChain(opener *fileOpener, rest []string) error {
	if len(rest) < 1 {
		return fmt.Errorf("fatimgctl: -c needs image_path")
	}

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	entry, err := vol.Resolve(rest[0])
	if err != nil {
		return err
	}
	chain, err := vol.GetClusters(entry)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", rest[0])
	for _, c := range chain {
		fmt.Fprintf(&b, "%d, ", c)
	}
	fmt.Println(b.String())
	return nil
}

func actionCreateDirectory(opener *fileOpener, rest []string) error {
	if len(rest) < 2 {
		return fmt.Errorf("fatimgctl: -m needs parent_path and name")
	}

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	if err := vol.CreateDirectory(rest[0], rest[1]); err != nil {
		return err
	}
	return vol.Save()
}

func actionDeleteDirectory(opener *fileOpener, rest []string) error {
	if len(rest) < 1 {
		return fmt.Errorf("fatimgctl: -r needs image_path")
	}

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	if err := vol.DeleteDirectory(rest[0]); err != nil {
		return err
	}
	return vol.Save()
}

// actionPrintContent implements -l: print a file's content cluster by
// cluster, each cluster's payload truncated to what's left of file_size.
func actionPrintContent(opener *fileOpener, rest []string) error {
	if len(rest) < 1 {
		return fmt.Errorf("fatimgctl: -l needs image_path")
	}

	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	entry, err := vol.Resolve(rest[0])
	if err != nil {
		return err
	}
	chain, err := vol.GetClusters(entry)
	if err != nil {
		return err
	}

	remaining := entry.Size
	clusterSize := int64(vol.Superblock().ClusterSize)
	for _, c := range chain {
		data, err := vol.ReadClusterBytes(c)
		if err != nil {
			return err
		}
		take := clusterSize
		if remaining < take {
			take = remaining
		}
		fmt.Printf("cluster %d: %q\n", c, data[:take])
		remaining -= take
	}
	return nil
}

func actionPrintTree(opener *fileOpener) error {
	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	fmt.Println("+/")
	entries, err := vol.EntriesOf(volume.RootEntry())
	if err != nil {
		return err
	}
	return printChildren(vol, entries, 4)
}

func printChildren(vol *volume.Volume, entries []volume.DirectoryEntry, depth int) error {
	for _, entry := range entries {
		var chain []uint32
		if entry.IsDirectory() {
			chain = []uint32{entry.FirstCluster}
		} else {
			c, err := vol.GetClusters(entry)
			if err != nil {
				return err
			}
			chain = c
		}

		marker := "-"
		if entry.IsDirectory() {
			marker = "+"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s%s%s ", strings.Repeat(" ", depth), marker, entry.Name)
		for i, c := range chain {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d", c)
		}
		fmt.Fprintf(&b, " (%d)", len(chain))
		fmt.Println(b.String())

		if entry.IsDirectory() {
			children, err := vol.EntriesOf(entry)
			if err != nil {
				return err
			}
			if err := printChildren(vol, children, depth+4); err != nil {
				return err
			}
		}
	}
	return nil
}

func actionDefragment(opener *fileOpener, sink diag.Sink) error {
	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	pool := workerpool.New(4)
	defragmenter, err := defrag.New(vol, pool, sink)
	if err != nil {
		return err
	}
	return defragmenter.Run()
}

// actionDump implements -d: dump the superblock, the root directory, the
// content of every used cluster, and a consistency report.
func actionDump(opener *fileOpener) error {
	vol, err := volume.Open(opener)
	if err != nil {
		return err
	}
	defer vol.Close()

	sb := vol.Superblock()
	fmt.Printf("superblock: fat_type=%d fat_copies=%d cluster_size=%d "+
		"root_directory_max_entries_count=%d cluster_count=%d "+
		"reserved_cluster_count=%d signature=%q\n",
		sb.FATType, sb.FATCopies, sb.ClusterSize, sb.RootDirectoryMaxEntriesCount,
		sb.ClusterCount, sb.ReservedClusterCount, sb.Signature)

	fmt.Println("root directory:")
	for _, entry := range vol.RootEntries() {
		fmt.Printf("  %s type=%d size=%d first_cluster=%d\n",
			entry.Name, entry.Type, entry.Size, entry.FirstCluster)
	}

	fmt.Println("clusters:")
	for i := uint32(0); i < sb.ClusterCount; i++ {
		if vol.FATSlot(i) == image.Unused {
			continue
		}
		data, err := vol.ReadClusterBytes(i)
		if err != nil {
			return err
		}
		fmt.Printf("  cluster %d: %q\n", i, data)
	}

	if err := vol.VerifyConsistency(); err != nil {
		fmt.Printf("consistency check failed: %s\n", err)
	} else {
		fmt.Println("consistency check: OK")
	}
	return nil
}
