package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jdw/goqnx6/disk"
	"github.com/jdw/goqnx6/mbr"
	"github.com/jdw/goqnx6/qnx6"
)

const (
	exitCodeUserError int = iota + 2
	exitCodeFunctionalError
	exitCodeTechnicalError
)

var (
	// flags
	verbose         = false
	partitionNumber = 0
	extensions      = ""
	dirKeywords     = ""
)

func main() {
	verboseFlag := flag.Bool("v", false, "verbose; print details about what's going on")
	partitionFlag := flag.Int("p", 0, "partition number to use (0 = first QNX6 partition found)")
	extFlag := flag.String("ext", "", "comma-separated list of file extensions to extract (empty = all files)")
	dirsFlag := flag.String("dirs", "", "comma-separated directory name keywords; when set, extract only recurses into matching directories")

	flag.Usage = printUsage
	flag.Parse()

	verbose = *verboseFlag
	partitionNumber = *partitionFlag
	extensions = *extFlag
	dirKeywords = *dirsFlag
	args := flag.Args()

	if len(args) < 2 {
		printUsage()
		os.Exit(exitCodeUserError)
		return
	}

	command := args[0]
	image := args[1]

	dev, err := disk.Open(image)
	if err != nil {
		fatalf(exitCodeTechnicalError, "Unable to open image %s: %v\n", image, err)
	}
	defer dev.Close()

	if command == "parts" {
		listPartitions(dev)
		return
	}

	fs := openFilesystem(dev)
	switch command {
	case "ls":
		path := "/"
		if len(args) > 2 {
			path = args[2]
		}
		listDirectory(fs, path)
	case "cat":
		requireArg(args, 2, "path")
		catFile(fs, args[2])
	case "stat":
		requireArg(args, 2, "path")
		statPath(fs, args[2])
	case "find":
		requireArg(args, 2, "pattern")
		findFiles(fs, args[2])
	case "cp":
		requireArg(args, 3, "destination")
		if err := fs.ExtractFile(args[2], args[3]); err != nil {
			fatalf(exitCodeFunctionalError, "Unable to extract %s: %v\n", args[2], err)
		}
	case "extract":
		requireArg(args, 2, "output dir")
		extractFiles(fs, args[2])
	case "block":
		requireArg(args, 2, "block number")
		dumpBlock(fs, args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		printUsage()
		os.Exit(exitCodeUserError)
	}
}

func listPartitions(dev *disk.Device) {
	partitions, err := mbr.Parse(dev)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to parse partition table: %v\n", err)
	}
	fmt.Printf("%-4s %-6s %-6s %12s %12s %10s %s\n", "NUM", "STATUS", "TYPE", "START", "SECTORS", "SIZE", "")
	for _, p := range partitions {
		marker := ""
		if p.IsQNX6() {
			marker = "QNX6"
		} else if p.IsExtended() {
			marker = "extended"
		}
		fmt.Printf("%-4d 0x%02X   0x%02X   %12d %12d %10s %s\n",
			p.Number, p.Status, p.Type, p.StartLBA, p.SizeSectors, formatBytes(p.SizeBytes()), marker)
	}
}

// openFilesystem selects a partition and opens the QNX6 filesystem on it. With -p it uses that partition
// number; otherwise it probes every partition and takes the first that holds a QNX6 superblock. An image
// without a valid MBR is treated as a bare filesystem dump.
func openFilesystem(dev *disk.Device) *qnx6.FS {
	partitions, err := mbr.Parse(dev)
	if err != nil {
		printVerbose("No partition table (%v); treating image as a bare filesystem\n", err)
		fs, err := qnx6.Open(dev)
		if err != nil {
			fatalf(exitCodeFunctionalError, "No QNX6 filesystem found in image: %v\n", err)
		}
		return fs
	}

	for _, p := range partitions {
		if partitionNumber != 0 && p.Number != partitionNumber {
			continue
		}
		if partitionNumber == 0 && p.IsExtended() {
			continue
		}
		window := dev.Window(p.StartOffset(), p.SizeBytes())
		fs, err := qnx6.Open(window)
		if err != nil {
			printVerbose("Partition %d: %v\n", p.Number, err)
			continue
		}
		printVerbose("Using partition %d (type 0x%02X, %s, block size %d)\n",
			p.Number, p.Type, formatBytes(p.SizeBytes()), fs.BlockSize())
		return fs
	}

	if partitionNumber != 0 {
		fatalf(exitCodeFunctionalError, "No QNX6 filesystem on partition %d\n", partitionNumber)
	}
	fatalf(exitCodeFunctionalError, "No QNX6 filesystem found on any partition\n")
	return nil
}

func listDirectory(fs *qnx6.FS, path string) {
	entries, err := fs.List(path)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to list %s: %v\n", path, err)
	}
	for _, e := range entries {
		fmt.Printf("%-8s %10d  %s  %s\n", e.Type, e.Size, e.ModTime.Format("2006-01-02 15:04:05"), e.Name)
	}
}

func catFile(fs *qnx6.FS, path string) {
	data, err := fs.ReadFile(path)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to read %s: %v\n", path, err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		fatalf(exitCodeTechnicalError, "Unable to write output: %v\n", err)
	}
}

func statPath(fs *qnx6.FS, path string) {
	entry, err := fs.Stat(path)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to stat %s: %v\n", path, err)
	}
	fmt.Printf("name:  %s\n", entry.Name)
	fmt.Printf("inode: %d\n", entry.Inode)
	fmt.Printf("type:  %s\n", entry.Type)
	fmt.Printf("size:  %d\n", entry.Size)
	fmt.Printf("mtime: %s\n", entry.ModTime.Format("2006-01-02 15:04:05"))
}

func findFiles(fs *qnx6.FS, pattern string) {
	matches, err := fs.Find(pattern)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to search: %v\n", err)
	}
	for _, m := range matches {
		fmt.Println(m)
	}
	printVerbose("%d matches\n", len(matches))
}

func extractFiles(fs *qnx6.FS, outputDir string) {
	opts := qnx6.ExtractOptions{OutputDir: outputDir}
	if extensions != "" {
		opts.Extensions = strings.Split(extensions, ",")
	}
	if dirKeywords != "" {
		keywords := strings.Split(strings.ToLower(dirKeywords), ",")
		opts.DirFilter = func(name string) bool {
			lower := strings.ToLower(name)
			for _, k := range keywords {
				if strings.Contains(lower, k) {
					return true
				}
			}
			return false
		}
	}

	results, err := fs.Extract(opts)
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to extract: %v\n", err)
	}

	extracted := 0
	for _, r := range results {
		if r.Extracted {
			extracted++
			printVerbose("extracted %s (%d bytes)\n", r.Path, r.Size)
		} else {
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", r.Path, r.Error)
		}
	}

	report, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fatalf(exitCodeTechnicalError, "Unable to marshal report: %v\n", err)
	}
	reportPath := filepath.Join(outputDir, "report.json")
	if err := writeFile(reportPath, report); err != nil {
		fatalf(exitCodeTechnicalError, "Unable to write report: %v\n", err)
	}
	fmt.Printf("%d/%d files extracted to %s (report: %s)\n", extracted, len(results), outputDir, reportPath)
}

func dumpBlock(fs *qnx6.FS, arg string) {
	blockNo, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		fatalf(exitCodeUserError, "Invalid block number %q\n", arg)
	}
	data, err := fs.ReadBlock(uint32(blockNo))
	if err != nil {
		fatalf(exitCodeFunctionalError, "Unable to read block %d: %v\n", blockNo, err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		fatalf(exitCodeTechnicalError, "Unable to write output: %v\n", err)
	}
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func requireArg(args []string, index int, name string) {
	if len(args) <= index {
		fmt.Fprintf(os.Stderr, "Missing argument: %s\n", name)
		printUsage()
		os.Exit(exitCodeUserError)
	}
}

func printUsage() {
	out := os.Stderr
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(out, "\nusage: %s [flags] <command> <image> [args]\n\n", exe)
	fmt.Fprintln(out, "Read a QNX6 filesystem inside a raw disk image without mounting it.")
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  parts   <image>                list the partition table")
	fmt.Fprintln(out, "  ls      <image> [path]         list a directory")
	fmt.Fprintln(out, "  cat     <image> <path>         write a file's content to stdout")
	fmt.Fprintln(out, "  stat    <image> <path>         show file metadata")
	fmt.Fprintln(out, "  find    <image> <pattern>      find files by glob pattern")
	fmt.Fprintln(out, "  cp      <image> <path> <dest>  extract a single file")
	fmt.Fprintln(out, "  extract <image> <output dir>   extract files (see -ext, -dirs)")
	fmt.Fprintln(out, "  block   <image> <number>       dump a raw filesystem block to stdout")
	fmt.Fprintln(out, "\nFlags:")

	flag.PrintDefaults()

	fmt.Fprintf(out, "\nFor example: %s -v -ext=log,bin extract image.dd ./out\n", exe)
}

func fatalf(exitCode int, format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(exitCode)
}

func printVerbose(format string, v ...interface{}) {
	if verbose {
		fmt.Printf(format, v...)
	}
}

func formatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%dB", b)
	}
	if b < 1048576 {
		return fmt.Sprintf("%.2fKiB", float32(b)/float32(1024))
	}
	if b < 1073741824 {
		return fmt.Sprintf("%.2fMiB", float32(b)/float32(1048576))
	}
	return fmt.Sprintf("%.2fGiB", float32(b)/float32(1073741824))
}
