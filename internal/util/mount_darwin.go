//go:build darwin

package util

import (
	"fmt"
	"syscall"
)

func detectPlatformMount(path string) (*MountInfo, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}

	fsType := cString(stat.Fstypename[:])
	return &MountInfo{
		Network:    isNetworkFSType(fsType),
		FSType:     fsType,
		MountPoint: cString(stat.Mntonname[:]),
	}, nil
}

// cString converts a NUL-terminated int8 array
func cString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
