package haystack_solr

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"pkt.systems/pslog"
)

type (
	// InstallFile is an augmented fs.FileInfo struct with both source and target path
	// as well as a flag indicating whether the file has been copied to the target or
	// not.
	InstallFile struct {
		fs.FileInfo
		Path      string
		Target    string
		installed bool
	}
	// InstallStatus is passed to the progress function before and after each file.
	InstallStatus struct {
		File *InstallFile
		Done bool
	}
	// Installer copies a source tree (the Solr example directory) into Target. It
	// keeps track of the files and sizes, the copy itself runs synchronously.
	Installer struct {
		Source           string
		Target           string
		Done             bool
		totalSize        int64
		installedSize    int64
		files            []*InstallFile
		progressFunction func(InstallStatus)
		logger           pslog.Logger
	}
)

// NewInstaller lists the source tree and returns an installer for it. Target may be
// set later, e.g. through CheckInstallDir:
//
//	installer, err := NewInstaller("/opt/solr/example", "")
//	/* ... */
//	err = installer.CheckInstallDir("/srv/project/parts/solr")
//	err = installer.Install()
func NewInstaller(source, target string) (*Installer, error) {
	i := &Installer{
		Source:           source,
		Target:           target,
		progressFunction: func(status InstallStatus) {},
		logger:           packageLogger(),
	}
	root, err := filepath.EvalSymlinks(source)
	if err != nil {
		return nil, fmt.Errorf("install source: %w", err)
	}
	err = filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			if !info.IsDir() {
				return fmt.Errorf("install source %s is not a directory", source)
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		i.files = append(i.files, &InstallFile{FileInfo: info, Path: path, Target: rel})
		if info.Mode().IsRegular() {
			i.totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list install source: %w", err)
	}
	return i, nil
}

// Install copies all files into the target directory, which must not exist yet or be
// empty. Directories are created with their source permissions, regular files keep
// their mode and symlinks are recreated as links. The first error stops the copy,
// files copied so far are left in place.
func (i *Installer) Install() error {
	i.Done = false
	i.installedSize = 0
	if i.Target == "" {
		return fmt.Errorf("install %s: no target set", i.Source)
	}
	if err := os.MkdirAll(i.Target, 0755); err != nil {
		return fmt.Errorf("create install target: %w", err)
	}
	i.logger.Debug("installing tree", "source", i.Source, "target", i.Target, "files", len(i.files), "size", i.TotalSizeString())
	for _, file := range i.files {
		i.progressFunction(InstallStatus{File: file})
		target := filepath.Join(i.Target, file.Target)
		switch mode := file.Mode(); {
		case mode.IsDir():
			if err := os.MkdirAll(target, mode.Perm()|0700); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case mode&fs.ModeSymlink != 0:
			link, err := os.Readlink(file.Path)
			if err != nil {
				return fmt.Errorf("read link: %w", err)
			}
			if err := os.Symlink(link, target); err != nil {
				return fmt.Errorf("create link: %w", err)
			}
		case mode.IsRegular():
			if err := copyFile(file.Path, target, mode.Perm()); err != nil {
				return err
			}
			i.installedSize += file.Size()
		default:
			i.logger.Warn("skipping special file", "path", file.Path, "mode", mode.String())
			continue
		}
		file.installed = true
	}
	i.Done = true
	i.progressFunction(InstallStatus{Done: true})
	return nil
}

// CheckInstallDir checks that dirName's parent is an existing, writable directory with
// enough free space for the source tree, and sets it as the target.
func (i *Installer) CheckInstallDir(dirName string) error {
	parent := filepath.Dir(dirName)
	parentInfo, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("install parent %s: %w", parent, err)
	}
	if !parentInfo.IsDir() {
		return fmt.Errorf("install parent is not a directory: %s", parent)
	}
	if !osFileWriteAccess(parent) {
		return fmt.Errorf("%w: %s (%s)", ErrNotWritable, parent, parentInfo.Mode().Perm())
	}
	if free := osDiskSpace(parent); free >= 0 && free < i.totalSize {
		return fmt.Errorf(
			"%w: %s needs %s, %s available", ErrInsufficientSpace,
			parent, i.TotalSizeString(), humanize.IBytes(uint64(free)),
		)
	}
	i.Target = dirName
	return nil
}

// Files returns the files of the source tree, in copy order.
func (i *Installer) Files() []*InstallFile { return i.files }

// NextFile returns the file that the installer will install next, or nil when all
// files have been copied.
func (i *Installer) NextFile() *InstallFile {
	for _, file := range i.files {
		if !file.installed {
			return file
		}
	}
	return nil
}

// SetProgressFunction registers a function that gets called before every file and
// once more when the installer is done.
func (i *Installer) SetProgressFunction(function func(InstallStatus)) {
	if function == nil {
		function = func(InstallStatus) {}
	}
	i.progressFunction = function
}

// Progress returns the size ratio between already installed files and all files. The
// result is a float between 0.0 and 1.0, inclusive.
func (i *Installer) Progress() float64 {
	if i.totalSize == 0 {
		if i.Done {
			return 1
		}
		return 0
	}
	return float64(i.installedSize) / float64(i.totalSize)
}

// Size returns the bytes that have been copied so far or, once done, the total.
func (i *Installer) Size() int64 {
	if i.Done {
		return i.totalSize
	}
	return i.installedSize
}

// SizeString returns a human-readable version of Size().
func (i *Installer) SizeString() string { return compactBytes(i.Size()) }

// TotalSizeString returns the human-readable size of the whole source tree.
func (i *Installer) TotalSizeString() string { return compactBytes(i.totalSize) }

func compactBytes(n int64) string {
	return strings.ReplaceAll(humanize.IBytes(uint64(n)), " ", "")
}

// copyFile copies src to dst byte for byte, creating or truncating dst with perm.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return nil
}

// SetLogger sets the logger for copy diagnostics.
func (i *Installer) SetLogger(logger pslog.Logger) { i.logger = ensureLogger(logger) }
