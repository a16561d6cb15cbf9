//go:build windows

package haystack_solr

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func osFileWriteAccess(path string) bool {
	testPath, err := windows.UTF16PtrFromString(filepath.Join(path, ".haystack-solr-write-test"))
	if err != nil {
		return false
	}
	handle, err := windows.CreateFile(
		testPath,
		windows.GENERIC_WRITE|windows.GENERIC_READ,
		0,
		nil,
		windows.CREATE_NEW,
		windows.FILE_ATTRIBUTE_HIDDEN|windows.FILE_FLAG_DELETE_ON_CLOSE,
		0,
	)
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}

// osDiskSpace returns the bytes available to the current user, or -1 if unknown.
func osDiskSpace(path string) int64 {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return -1
	}
	var available, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &available, &total, &free); err != nil {
		return -1
	}
	return int64(available)
}
