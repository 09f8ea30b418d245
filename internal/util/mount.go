package util

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MountInfo describes the filesystem an audio directory lives on
type MountInfo struct {
	Network    bool   // NFS, SMB or a FUSE network filesystem
	FSType     string // filesystem type as reported by the OS, when known
	MountPoint string
}

func (m *MountInfo) String() string {
	if m.FSType == "" {
		return "unknown filesystem"
	}
	kind := "local"
	if m.Network {
		kind = "network"
	}
	if m.MountPoint == "" {
		return fmt.Sprintf("%s (%s)", m.FSType, kind)
	}
	return fmt.Sprintf("%s on %s (%s)", m.FSType, m.MountPoint, kind)
}

// networkFSTypes are substrings of filesystem type names served over a network
var networkFSTypes = []string{
	"nfs",
	"cifs",
	"smb",
	"afpfs",
	"webdav",
	"ncpfs",
	"fuse.sshfs",
	"fuse.rclone",
}

func isNetworkFSType(fsType string) bool {
	fsType = strings.ToLower(fsType)
	for _, t := range networkFSTypes {
		if strings.Contains(fsType, t) {
			return true
		}
	}
	return false
}

// DetectMount reports the filesystem holding path
func DetectMount(path string) (*MountInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return detectPlatformMount(abs)
}

// parseMounts reads mount points and types from a /proc/mounts style table
func parseMounts(r io.Reader) (map[string]string, error) {
	mounts := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		// Spaces in mount points are octal-escaped
		mounts[strings.ReplaceAll(fields[1], `\040`, " ")] = fields[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// longestMount returns the deepest mount point containing path
func longestMount(mounts map[string]string, path string) (string, string, bool) {
	best, bestType := "", ""
	for mp, fsType := range mounts {
		if !withinDir(path, mp) || len(mp) <= len(best) {
			continue
		}
		best, bestType = mp, fsType
	}
	return best, bestType, best != ""
}

func withinDir(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, "/")+"/")
}
