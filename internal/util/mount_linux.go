//go:build linux

package util

import (
	"fmt"
	"os"
	"syscall"
)

// Linux VFS magic numbers of network filesystems
var networkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
	0x564c:     "ncp",
}

func detectPlatformMount(path string) (*MountInfo, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}

	info := &MountInfo{}
	if name, ok := networkMagic[uint32(stat.Type)]; ok {
		info.Network = true
		info.FSType = name
	}

	// /proc/mounts adds the mount point and catches FUSE network mounts
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return info, nil
	}
	defer f.Close()

	mounts, err := parseMounts(f)
	if err != nil {
		return info, nil
	}
	if mp, fsType, ok := longestMount(mounts, path); ok {
		info.MountPoint = mp
		info.FSType = fsType
		info.Network = info.Network || isNetworkFSType(fsType)
	}
	return info, nil
}
