package preflight

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// procMounts lists the mounts visible to this process.
const procMounts = "/proc/self/mounts"

// MountStatus reports whether a path is currently a mountpoint.
type MountStatus struct {
	Path    string
	Mounted bool
	FsType  string
	Source  string
}

// LookupMount looks path up in the mount table. A missing or unreadable
// table reports the path as not mounted.
func LookupMount(path string) MountStatus {
	return lookupMountTable(procMounts, path)
}

func lookupMountTable(table, path string) MountStatus {
	status := MountStatus{Path: path}
	abs, err := filepath.Abs(path)
	if err != nil {
		return status
	}
	file, err := os.Open(table)
	if err != nil {
		return status
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if unescapeMountField(fields[1]) != abs {
			continue
		}
		status.Mounted = true
		status.Source = fields[0]
		status.FsType = fields[2]
	}
	return status
}

// unescapeMountField decodes the octal escapes used for spaces and tabs.
func unescapeMountField(s string) string {
	replacer := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return replacer.Replace(s)
}

// CheckMountpoint verifies that path is free to mount on: absent, or an
// empty directory that is not already mounted.
func CheckMountpoint(path string) Result {
	const name = "Mountpoint"
	return checkMountpoint(name, path, LookupMount(path))
}

func checkMountpoint(name, path string, status MountStatus) Result {
	if status.Mounted {
		return Result{Name: name, Detail: fmt.Sprintf("%s is already mounted (%s from %s)", path, status.FsType, status.Source)}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(entries) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not empty", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (empty)", path)}
}
