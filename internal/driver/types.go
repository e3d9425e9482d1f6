// Package driver declares the pluggable "operation table" a userspace
// filesystem driver implements, and the request/response value types that
// cross it.
//
// Grounded on Volume.h (original_source: every virtual method below has a
// Volume.h counterpart, in the same grouping/order as fscap.Op) and on the
// teacher's fuseutil.FileSystem / fuseutil.NotImplementedFileSystem pattern
// (fuseutil/file_system.go, fuseutil/not_implemented_file_system.go): an
// interface with one method per VFS entry point, plus a default embed that
// answers ENOSYS (here, fserrors.Unsupported) for anything a particular
// driver does not implement.
package driver

import "time"

// VNode is the opaque node handle a driver mints for a filesystem object.
// It corresponds to Volume.h's "void* node" together with the ino_t a
// driver publishes for it in ReadVNode.
type VNode uint64

// Cookie is the opaque per-open state a driver mints in Open/OpenDir/
// OpenAttr/OpenAttrDir/OpenIndexDir/OpenQuery and must later free, per
// spec.md's cookie-table invariant.
type Cookie uint64

// Stat mirrors the POSIX fields Volume.h's ReadStat/WriteStat pass through
// struct stat, trimmed to what a userspace driver actually sets.
type Stat struct {
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      int64
	BlockSize int64
	NumLinks  uint32
	ATime     time.Time
	MTime     time.Time
	CTime     time.Time
	CRTime    time.Time
}

// StatMask bits select which Stat fields WriteStat/WriteAttrStat should
// apply, matching the uint32 mask Volume.h passes alongside the stat.
type StatMask uint32

const (
	StatMode StatMask = 1 << iota
	StatUID
	StatGID
	StatSize
	StatATime
	StatMTime
	StatCTime
	StatCRTime
)

// DirEntry is one entry produced by ReadDir/ReadAttrDir/ReadIndexDir.
type DirEntry struct {
	Name  string
	VNode VNode
}

// FSInfo mirrors Volume.h's fs_info: the volume-level metadata ReadFSInfo
// returns and WriteFSInfo partially updates.
type FSInfo struct {
	Flags        uint32
	BlockSize    int64
	IOSize       int64
	TotalBlocks  int64
	FreeBlocks   int64
	TotalNodes   int64
	FreeNodes    int64
	DeviceName   string
	VolumeName   string
	FSName       string
}

// FSInfoMask selects which FSInfo fields WriteFSInfo should apply.
type FSInfoMask uint32

const (
	FSInfoName FSInfoMask = 1 << iota
)
