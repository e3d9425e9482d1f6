// Package fscap declares the dense operation-code enumeration that is the
// wire contract between a driver's operation table and the runtime, and the
// capability bitmap built from it.
//
// Grounded on headers/private/userlandfs/private/FSCapabilities.h
// (original_source): the enum order below is the same order, so the
// packed-bit positions match the numbering the teacher documents.
package fscap

// Op identifies one VFS entry point a driver table may implement.
//
// Stable numeric values: new operations must be appended, never inserted,
// so that a capability bitmap saved by one build still means the same thing
// to another.
type Op uint32

const (
	OpMount Op = iota
	OpUnmount

	OpReadFSInfo
	OpWriteFSInfo
	OpSync

	// vnode operations
	OpLookup
	OpGetVNodeName

	OpGetVNode
	OpPutVNode
	OpRemoveVNode

	// paging / VM file access
	OpCanPage
	OpReadPages
	OpWritePages

	// common operations
	OpIoctl
	OpSetFlags
	OpSelect
	OpDeselect
	OpFSync

	OpReadSymlink
	OpCreateSymlink

	OpLink
	OpUnlink
	OpRename

	OpAccess
	OpReadStat
	OpWriteStat

	// file operations
	OpCreate
	OpOpen
	OpClose
	OpFreeCookie
	OpRead
	OpWrite

	// directory operations
	OpCreateDir
	OpRemoveDir
	OpOpenDir
	OpCloseDir
	OpFreeDirCookie
	OpReadDir
	OpRewindDir

	// attribute directory operations
	OpOpenAttrDir
	OpCloseAttrDir
	OpFreeAttrDirCookie
	OpReadAttrDir
	OpRewindAttrDir

	// attribute operations
	OpCreateAttr
	OpOpenAttr
	OpCloseAttr
	OpFreeAttrCookie
	OpReadAttr
	OpWriteAttr

	OpReadAttrStat
	OpWriteAttrStat
	OpRenameAttr
	OpRemoveAttr

	// index directory & index operations
	OpOpenIndexDir
	OpCloseIndexDir
	OpFreeIndexDirCookie
	OpReadIndexDir
	OpRewindIndexDir

	OpCreateIndex
	OpRemoveIndex
	OpReadIndexStat

	// query operations
	OpOpenQuery
	OpCloseQuery
	OpFreeQueryCookie
	OpReadQuery
	OpRewindQuery

	// opCount is not an operation; it marks the end of the enumeration.
	opCount
)

// Count is the number of operation codes in the enumeration.
const Count = int(opCount)

var opNames = [...]string{
	OpMount:              "Mount",
	OpUnmount:            "Unmount",
	OpReadFSInfo:         "ReadFSInfo",
	OpWriteFSInfo:        "WriteFSInfo",
	OpSync:               "Sync",
	OpLookup:             "Lookup",
	OpGetVNodeName:       "GetVNodeName",
	OpGetVNode:           "GetVNode",
	OpPutVNode:           "PutVNode",
	OpRemoveVNode:        "RemoveVNode",
	OpCanPage:            "CanPage",
	OpReadPages:          "ReadPages",
	OpWritePages:         "WritePages",
	OpIoctl:              "Ioctl",
	OpSetFlags:           "SetFlags",
	OpSelect:             "Select",
	OpDeselect:           "Deselect",
	OpFSync:              "FSync",
	OpReadSymlink:        "ReadSymlink",
	OpCreateSymlink:      "CreateSymlink",
	OpLink:               "Link",
	OpUnlink:             "Unlink",
	OpRename:             "Rename",
	OpAccess:             "Access",
	OpReadStat:           "ReadStat",
	OpWriteStat:          "WriteStat",
	OpCreate:             "Create",
	OpOpen:               "Open",
	OpClose:              "Close",
	OpFreeCookie:         "FreeCookie",
	OpRead:               "Read",
	OpWrite:              "Write",
	OpCreateDir:          "CreateDir",
	OpRemoveDir:          "RemoveDir",
	OpOpenDir:            "OpenDir",
	OpCloseDir:           "CloseDir",
	OpFreeDirCookie:      "FreeDirCookie",
	OpReadDir:            "ReadDir",
	OpRewindDir:          "RewindDir",
	OpOpenAttrDir:        "OpenAttrDir",
	OpCloseAttrDir:       "CloseAttrDir",
	OpFreeAttrDirCookie:  "FreeAttrDirCookie",
	OpReadAttrDir:        "ReadAttrDir",
	OpRewindAttrDir:      "RewindAttrDir",
	OpCreateAttr:         "CreateAttr",
	OpOpenAttr:           "OpenAttr",
	OpCloseAttr:          "CloseAttr",
	OpFreeAttrCookie:     "FreeAttrCookie",
	OpReadAttr:           "ReadAttr",
	OpWriteAttr:          "WriteAttr",
	OpReadAttrStat:       "ReadAttrStat",
	OpWriteAttrStat:      "WriteAttrStat",
	OpRenameAttr:         "RenameAttr",
	OpRemoveAttr:         "RemoveAttr",
	OpOpenIndexDir:       "OpenIndexDir",
	OpCloseIndexDir:      "CloseIndexDir",
	OpFreeIndexDirCookie: "FreeIndexDirCookie",
	OpReadIndexDir:       "ReadIndexDir",
	OpRewindIndexDir:     "RewindIndexDir",
	OpCreateIndex:        "CreateIndex",
	OpRemoveIndex:        "RemoveIndex",
	OpReadIndexStat:      "ReadIndexStat",
	OpOpenQuery:          "OpenQuery",
	OpCloseQuery:         "CloseQuery",
	OpFreeQueryCookie:    "FreeQueryCookie",
	OpReadQuery:          "ReadQuery",
	OpRewindQuery:        "RewindQuery",
}

// String returns the operation's name, or the placeholder "Op(unknown)"
// for an out-of-range value (which can happen when decoding an untrusted frame).
func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "Op(unknown)"
}

// Valid reports whether o names a real operation code.
func (o Op) Valid() bool {
	return o < opCount
}
