package driver

import (
	"github.com/userlandfs/server/internal/reqctx"
)

// Ops is the operation table a userspace filesystem driver implements, one
// method per fscap.Op. A driver answers mount/unmount/vnode/file/directory/
// attribute/index/query calls the runtime forwards to it after decoding
// them off the wire.
//
// Grounded method-for-method on Volume.h (original_source): grouping and
// signatures follow that header, translated from out-parameters to
// ordinary Go return values.
type Ops interface {
	Mount(ctx *reqctx.Frame, device string, flags uint32, parameters string) (root VNode, err error)
	Unmount(ctx *reqctx.Frame) error
	Sync(ctx *reqctx.Frame) error
	ReadFSInfo(ctx *reqctx.Frame) (FSInfo, error)
	WriteFSInfo(ctx *reqctx.Frame, info FSInfo, mask FSInfoMask) error

	Lookup(ctx *reqctx.Frame, dir VNode, entryName string) (VNode, error)
	GetVNodeName(ctx *reqctx.Frame, node VNode) (string, error)
	GetVNode(ctx *reqctx.Frame, node VNode, reenter bool) error
	PutVNode(ctx *reqctx.Frame, node VNode, reenter bool) error
	RemoveVNode(ctx *reqctx.Frame, node VNode, reenter bool) error

	CanPage(ctx *reqctx.Frame, node VNode, cookie Cookie) bool
	ReadPages(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, size int64) ([]byte, error)
	WritePages(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, data []byte) (int64, error)

	IOCtl(ctx *reqctx.Frame, node VNode, cookie Cookie, command uint32, buffer []byte) ([]byte, error)
	SetFlags(ctx *reqctx.Frame, node VNode, cookie Cookie, flags int32) error
	Select(ctx *reqctx.Frame, node VNode, cookie Cookie, event uint8, syncToken uint64) error
	Deselect(ctx *reqctx.Frame, node VNode, cookie Cookie, event uint8, syncToken uint64) error
	FSync(ctx *reqctx.Frame, node VNode) error

	ReadSymlink(ctx *reqctx.Frame, node VNode) (string, error)
	CreateSymlink(ctx *reqctx.Frame, dir VNode, name string, target string, mode uint32) error

	Link(ctx *reqctx.Frame, dir VNode, name string, node VNode) error
	Unlink(ctx *reqctx.Frame, dir VNode, name string) error
	Rename(ctx *reqctx.Frame, oldDir VNode, oldName string, newDir VNode, newName string) error

	Access(ctx *reqctx.Frame, node VNode, mode int32) error
	ReadStat(ctx *reqctx.Frame, node VNode) (Stat, error)
	WriteStat(ctx *reqctx.Frame, node VNode, st Stat, mask StatMask) error

	Create(ctx *reqctx.Frame, dir VNode, name string, openMode int32, mode uint32) (VNode, Cookie, error)
	Open(ctx *reqctx.Frame, node VNode, openMode int32) (Cookie, error)
	Close(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	FreeCookie(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	Read(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, size int64) ([]byte, error)
	Write(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, data []byte) (int64, error)

	CreateDir(ctx *reqctx.Frame, dir VNode, name string, mode uint32) error
	RemoveDir(ctx *reqctx.Frame, dir VNode, name string) error
	OpenDir(ctx *reqctx.Frame, node VNode) (Cookie, error)
	CloseDir(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	FreeDirCookie(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	ReadDir(ctx *reqctx.Frame, node VNode, cookie Cookie, count uint32) ([]DirEntry, error)
	RewindDir(ctx *reqctx.Frame, node VNode, cookie Cookie) error

	OpenAttrDir(ctx *reqctx.Frame, node VNode) (Cookie, error)
	CloseAttrDir(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	FreeAttrDirCookie(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	ReadAttrDir(ctx *reqctx.Frame, node VNode, cookie Cookie, count uint32) ([]DirEntry, error)
	RewindAttrDir(ctx *reqctx.Frame, node VNode, cookie Cookie) error

	CreateAttr(ctx *reqctx.Frame, node VNode, name string, attrType uint32, openMode int32) (Cookie, error)
	OpenAttr(ctx *reqctx.Frame, node VNode, name string, openMode int32) (Cookie, error)
	CloseAttr(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	FreeAttrCookie(ctx *reqctx.Frame, node VNode, cookie Cookie) error
	ReadAttr(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, size int64) ([]byte, error)
	WriteAttr(ctx *reqctx.Frame, node VNode, cookie Cookie, pos int64, data []byte) (int64, error)
	ReadAttrStat(ctx *reqctx.Frame, node VNode, cookie Cookie) (Stat, error)
	WriteAttrStat(ctx *reqctx.Frame, node VNode, cookie Cookie, st Stat, mask StatMask) error
	RenameAttr(ctx *reqctx.Frame, oldNode VNode, oldName string, newNode VNode, newName string) error
	RemoveAttr(ctx *reqctx.Frame, node VNode, name string) error

	OpenIndexDir(ctx *reqctx.Frame) (Cookie, error)
	CloseIndexDir(ctx *reqctx.Frame, cookie Cookie) error
	FreeIndexDirCookie(ctx *reqctx.Frame, cookie Cookie) error
	ReadIndexDir(ctx *reqctx.Frame, cookie Cookie, count uint32) ([]DirEntry, error)
	RewindIndexDir(ctx *reqctx.Frame, cookie Cookie) error
	CreateIndex(ctx *reqctx.Frame, name string, indexType uint32, flags uint32) error
	RemoveIndex(ctx *reqctx.Frame, name string) error
	ReadIndexStat(ctx *reqctx.Frame, name string) (Stat, error)

	OpenQuery(ctx *reqctx.Frame, queryString string, flags uint32, port uint32, token uint32) (Cookie, error)
	CloseQuery(ctx *reqctx.Frame, cookie Cookie) error
	FreeQueryCookie(ctx *reqctx.Frame, cookie Cookie) error
	ReadQuery(ctx *reqctx.Frame, cookie Cookie, count uint32) ([]DirEntry, error)
	RewindQuery(ctx *reqctx.Frame, cookie Cookie) error
}
