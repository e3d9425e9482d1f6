// Package handler is the request dispatcher of spec.md §4.5: it decodes a
// wire.Frame, checks the target Volume's capability bitmap, calls the
// right driver.Ops (or cookie-tracking Volume wrapper) method, and encodes
// the result back into a response Frame.
//
// Grounded on the teacher's fuseutil.FileSystem dispatch shape generalized
// from a single interface call to the capability-gated switch spec.md §4.2
// requires, and on Volume.h (original_source) for the argument order of
// each case.
package handler

import (
	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/reqctx"
	"github.com/userlandfs/server/internal/volume"
	"github.com/userlandfs/server/internal/wire"
)

// VolumeSet resolves a volume ID to its Volume, and mints/forgets Volumes
// for Mount/Unmount. *volume.FileSystem satisfies this.
type VolumeSet interface {
	CreateVolume(volumeID int32) (*volume.Volume, error)
	DeleteVolume(v *volume.Volume) error
	Volume(volumeID int32) (*volume.Volume, bool)
}

// Handler dispatches decoded frames against one filesystem's mounted
// volumes.
type Handler struct {
	fs VolumeSet
}

// New creates a Handler bound to a filesystem's volume set.
func New(fs VolumeSet) *Handler {
	return &Handler{fs: fs}
}

func arg[T any](args []any, i int) T {
	if i >= len(args) {
		var zero T
		return zero
	}
	v, _ := args[i].(T)
	return v
}

func errResponse(req wire.Frame, err error) wire.Frame {
	kind := fserrors.KindDriverError
	if fe, ok := err.(*fserrors.Error); ok {
		kind = fe.Kind
	}
	return wire.Frame{
		Op:         req.Op,
		VolumeID:   req.VolumeID,
		Seq:        req.Seq,
		HasErr:     true,
		ErrKind:    int(kind),
		ErrMessage: err.Error(),
	}
}

func okResponse(req wire.Frame, results ...any) wire.Frame {
	return wire.Frame{Op: req.Op, VolumeID: req.VolumeID, Seq: req.Seq, Results: results}
}

// Dispatch handles one decoded request frame and returns its response
// frame. ctx is the calling worker's request-nesting frame (internal/reqctx),
// threaded through to the driver for re-entrant callback support.
func (h *Handler) Dispatch(ctx *reqctx.Frame, req wire.Frame) wire.Frame {
	if !req.Op.Valid() {
		return errResponse(req, fserrors.BadRequest("unknown operation code"))
	}

	// Mount creates the Volume; every other op needs one that already
	// exists.
	if req.Op == fscap.OpMount {
		v, err := h.fs.CreateVolume(req.VolumeID)
		if err != nil {
			return errResponse(req, err)
		}
		if !v.Supports(fscap.OpMount) {
			_ = h.fs.DeleteVolume(v)
			return errResponse(req, fserrors.Unsupported(fscap.OpMount.String()))
		}
		root, err := v.Ops().Mount(ctx, arg[string](req.Args, 0), arg[uint32](req.Args, 1), arg[string](req.Args, 2))
		if err != nil {
			_ = h.fs.DeleteVolume(v)
			return errResponse(req, err)
		}
		return okResponse(req, root)
	}

	v, ok := h.fs.Volume(req.VolumeID)
	if !ok {
		return errResponse(req, fserrors.BadRequest("no such volume"))
	}

	res, err := h.call(ctx, v, req)
	if err != nil {
		return errResponse(req, err)
	}
	return okResponse(req, res...)
}

func (h *Handler) call(ctx *reqctx.Frame, v *volume.Volume, req wire.Frame) ([]any, error) {
	a := req.Args
	ops := v.Ops()

	switch req.Op {
	case fscap.OpUnmount:
		if err := v.Unmount(ctx); err != nil {
			return nil, err
		}
		return nil, h.fs.DeleteVolume(v)

	case fscap.OpSync:
		return nil, checked(v, fscap.OpSync, func() error { return ops.Sync(ctx) })
	case fscap.OpReadFSInfo:
		info, err := withChecked(v, fscap.OpReadFSInfo, func() (driver.FSInfo, error) { return ops.ReadFSInfo(ctx) })
		return []any{info}, err
	case fscap.OpWriteFSInfo:
		return nil, checked(v, fscap.OpWriteFSInfo, func() error {
			return ops.WriteFSInfo(ctx, arg[driver.FSInfo](a, 0), arg[driver.FSInfoMask](a, 1))
		})

	case fscap.OpLookup:
		id, err := withChecked(v, fscap.OpLookup, func() (driver.VNode, error) {
			return ops.Lookup(ctx, arg[driver.VNode](a, 0), arg[string](a, 1))
		})
		return []any{id}, err
	case fscap.OpGetVNodeName:
		name, err := withChecked(v, fscap.OpGetVNodeName, func() (string, error) {
			return ops.GetVNodeName(ctx, arg[driver.VNode](a, 0))
		})
		return []any{name}, err
	case fscap.OpGetVNode:
		return nil, checked(v, fscap.OpGetVNode, func() error { return ops.GetVNode(ctx, arg[driver.VNode](a, 0), arg[bool](a, 1)) })
	case fscap.OpPutVNode:
		return nil, checked(v, fscap.OpPutVNode, func() error { return ops.PutVNode(ctx, arg[driver.VNode](a, 0), arg[bool](a, 1)) })
	case fscap.OpRemoveVNode:
		return nil, checked(v, fscap.OpRemoveVNode, func() error { return ops.RemoveVNode(ctx, arg[driver.VNode](a, 0), arg[bool](a, 1)) })

	case fscap.OpReadPages:
		data, err := withChecked(v, fscap.OpReadPages, func() ([]byte, error) {
			return ops.ReadPages(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[int64](a, 3))
		})
		return []any{data}, err
	case fscap.OpWritePages:
		n, err := withChecked(v, fscap.OpWritePages, func() (int64, error) {
			return ops.WritePages(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[[]byte](a, 3))
		})
		return []any{n}, err

	case fscap.OpIoctl:
		out, err := withChecked(v, fscap.OpIoctl, func() ([]byte, error) {
			return ops.IOCtl(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[uint32](a, 2), arg[[]byte](a, 3))
		})
		return []any{out}, err
	case fscap.OpSetFlags:
		return nil, checked(v, fscap.OpSetFlags, func() error {
			return ops.SetFlags(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int32](a, 2))
		})
	case fscap.OpFSync:
		return nil, checked(v, fscap.OpFSync, func() error { return ops.FSync(ctx, arg[driver.VNode](a, 0)) })

	case fscap.OpReadSymlink:
		target, err := withChecked(v, fscap.OpReadSymlink, func() (string, error) { return ops.ReadSymlink(ctx, arg[driver.VNode](a, 0)) })
		return []any{target}, err
	case fscap.OpCreateSymlink:
		return nil, checked(v, fscap.OpCreateSymlink, func() error {
			return ops.CreateSymlink(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[string](a, 2), arg[uint32](a, 3))
		})

	case fscap.OpLink:
		return nil, checked(v, fscap.OpLink, func() error {
			return ops.Link(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[driver.VNode](a, 2))
		})
	case fscap.OpUnlink:
		return nil, checked(v, fscap.OpUnlink, func() error { return ops.Unlink(ctx, arg[driver.VNode](a, 0), arg[string](a, 1)) })
	case fscap.OpRename:
		return nil, checked(v, fscap.OpRename, func() error {
			return ops.Rename(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[driver.VNode](a, 2), arg[string](a, 3))
		})

	case fscap.OpAccess:
		return nil, checked(v, fscap.OpAccess, func() error { return ops.Access(ctx, arg[driver.VNode](a, 0), arg[int32](a, 1)) })
	case fscap.OpReadStat:
		st, err := withChecked(v, fscap.OpReadStat, func() (driver.Stat, error) { return ops.ReadStat(ctx, arg[driver.VNode](a, 0)) })
		return []any{st}, err
	case fscap.OpWriteStat:
		return nil, checked(v, fscap.OpWriteStat, func() error {
			return ops.WriteStat(ctx, arg[driver.VNode](a, 0), arg[driver.Stat](a, 1), arg[driver.StatMask](a, 2))
		})

	case fscap.OpCreate:
		node, cookie, err := threeChecked(v, fscap.OpCreate, func() (driver.VNode, driver.Cookie, error) {
			return ops.Create(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[int32](a, 2), arg[uint32](a, 3))
		})
		return []any{node, cookie}, err
	case fscap.OpOpen:
		cookie, err := withChecked(v, fscap.OpOpen, func() (driver.Cookie, error) {
			return v.Open(ctx, arg[driver.VNode](a, 0), arg[int32](a, 1))
		})
		return []any{cookie}, err
	case fscap.OpClose:
		return nil, checked(v, fscap.OpClose, func() error { return ops.Close(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1)) })
	case fscap.OpFreeCookie:
		return nil, checked(v, fscap.OpFreeCookie, func() error {
			return v.FreeCookie(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpRead:
		data, err := withChecked(v, fscap.OpRead, func() ([]byte, error) {
			return ops.Read(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[int64](a, 3))
		})
		return []any{data}, err
	case fscap.OpWrite:
		n, err := withChecked(v, fscap.OpWrite, func() (int64, error) {
			return ops.Write(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[[]byte](a, 3))
		})
		return []any{n}, err

	case fscap.OpCreateDir:
		return nil, checked(v, fscap.OpCreateDir, func() error {
			return ops.CreateDir(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[uint32](a, 2))
		})
	case fscap.OpRemoveDir:
		return nil, checked(v, fscap.OpRemoveDir, func() error { return ops.RemoveDir(ctx, arg[driver.VNode](a, 0), arg[string](a, 1)) })
	case fscap.OpOpenDir:
		cookie, err := withChecked(v, fscap.OpOpenDir, func() (driver.Cookie, error) { return v.OpenDir(ctx, arg[driver.VNode](a, 0)) })
		return []any{cookie}, err
	case fscap.OpCloseDir:
		return nil, checked(v, fscap.OpCloseDir, func() error { return ops.CloseDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1)) })
	case fscap.OpFreeDirCookie:
		return nil, checked(v, fscap.OpFreeDirCookie, func() error {
			return v.FreeDirCookie(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpReadDir:
		entries, err := withChecked(v, fscap.OpReadDir, func() ([]driver.DirEntry, error) {
			return ops.ReadDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[uint32](a, 2))
		})
		return []any{entries}, err
	case fscap.OpRewindDir:
		return nil, checked(v, fscap.OpRewindDir, func() error { return ops.RewindDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1)) })

	case fscap.OpOpenAttrDir:
		cookie, err := withChecked(v, fscap.OpOpenAttrDir, func() (driver.Cookie, error) { return v.OpenAttrDir(ctx, arg[driver.VNode](a, 0)) })
		return []any{cookie}, err
	case fscap.OpCloseAttrDir:
		return nil, checked(v, fscap.OpCloseAttrDir, func() error {
			return ops.CloseAttrDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpFreeAttrDirCookie:
		return nil, checked(v, fscap.OpFreeAttrDirCookie, func() error {
			return v.FreeAttrDirCookie(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpReadAttrDir:
		entries, err := withChecked(v, fscap.OpReadAttrDir, func() ([]driver.DirEntry, error) {
			return ops.ReadAttrDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[uint32](a, 2))
		})
		return []any{entries}, err
	case fscap.OpRewindAttrDir:
		return nil, checked(v, fscap.OpRewindAttrDir, func() error {
			return ops.RewindAttrDir(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})

	case fscap.OpCreateAttr:
		cookie, err := withChecked(v, fscap.OpCreateAttr, func() (driver.Cookie, error) {
			return ops.CreateAttr(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[uint32](a, 2), arg[int32](a, 3))
		})
		return []any{cookie}, err
	case fscap.OpOpenAttr:
		cookie, err := withChecked(v, fscap.OpOpenAttr, func() (driver.Cookie, error) {
			return v.OpenAttr(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[int32](a, 2))
		})
		return []any{cookie}, err
	case fscap.OpCloseAttr:
		return nil, checked(v, fscap.OpCloseAttr, func() error {
			return v.CloseAttr(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpFreeAttrCookie:
		return nil, checked(v, fscap.OpFreeAttrCookie, func() error {
			return v.FreeAttrCookie(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
	case fscap.OpReadAttr:
		data, err := withChecked(v, fscap.OpReadAttr, func() ([]byte, error) {
			return ops.ReadAttr(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[int64](a, 3))
		})
		return []any{data}, err
	case fscap.OpWriteAttr:
		n, err := withChecked(v, fscap.OpWriteAttr, func() (int64, error) {
			return v.WriteAttr(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[int64](a, 2), arg[[]byte](a, 3))
		})
		return []any{n}, err
	case fscap.OpReadAttrStat:
		st, err := withChecked(v, fscap.OpReadAttrStat, func() (driver.Stat, error) {
			return ops.ReadAttrStat(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1))
		})
		return []any{st}, err
	case fscap.OpWriteAttrStat:
		return nil, checked(v, fscap.OpWriteAttrStat, func() error {
			return ops.WriteAttrStat(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[driver.Stat](a, 2), arg[driver.StatMask](a, 3))
		})
	case fscap.OpRenameAttr:
		return nil, checked(v, fscap.OpRenameAttr, func() error {
			return ops.RenameAttr(ctx, arg[driver.VNode](a, 0), arg[string](a, 1), arg[driver.VNode](a, 2), arg[string](a, 3))
		})
	case fscap.OpRemoveAttr:
		return nil, checked(v, fscap.OpRemoveAttr, func() error { return ops.RemoveAttr(ctx, arg[driver.VNode](a, 0), arg[string](a, 1)) })

	case fscap.OpOpenIndexDir:
		cookie, err := withChecked(v, fscap.OpOpenIndexDir, func() (driver.Cookie, error) { return v.OpenIndexDir(ctx) })
		return []any{cookie}, err
	case fscap.OpCloseIndexDir:
		return nil, checked(v, fscap.OpCloseIndexDir, func() error { return ops.CloseIndexDir(ctx, arg[driver.Cookie](a, 0)) })
	case fscap.OpFreeIndexDirCookie:
		return nil, checked(v, fscap.OpFreeIndexDirCookie, func() error { return v.FreeIndexDirCookie(ctx, arg[driver.Cookie](a, 0)) })
	case fscap.OpReadIndexDir:
		entries, err := withChecked(v, fscap.OpReadIndexDir, func() ([]driver.DirEntry, error) {
			return ops.ReadIndexDir(ctx, arg[driver.Cookie](a, 0), arg[uint32](a, 1))
		})
		return []any{entries}, err
	case fscap.OpRewindIndexDir:
		return nil, checked(v, fscap.OpRewindIndexDir, func() error { return ops.RewindIndexDir(ctx, arg[driver.Cookie](a, 0)) })
	case fscap.OpCreateIndex:
		return nil, checked(v, fscap.OpCreateIndex, func() error {
			return ops.CreateIndex(ctx, arg[string](a, 0), arg[uint32](a, 1), arg[uint32](a, 2))
		})
	case fscap.OpRemoveIndex:
		return nil, checked(v, fscap.OpRemoveIndex, func() error { return ops.RemoveIndex(ctx, arg[string](a, 0)) })
	case fscap.OpReadIndexStat:
		st, err := withChecked(v, fscap.OpReadIndexStat, func() (driver.Stat, error) { return ops.ReadIndexStat(ctx, arg[string](a, 0)) })
		return []any{st}, err

	case fscap.OpOpenQuery:
		cookie, err := withChecked(v, fscap.OpOpenQuery, func() (driver.Cookie, error) {
			return v.OpenQuery(ctx, arg[string](a, 0), arg[uint32](a, 1), arg[uint32](a, 2), arg[uint32](a, 3))
		})
		return []any{cookie}, err
	case fscap.OpCloseQuery:
		return nil, checked(v, fscap.OpCloseQuery, func() error { return ops.CloseQuery(ctx, arg[driver.Cookie](a, 0)) })
	case fscap.OpFreeQueryCookie:
		return nil, checked(v, fscap.OpFreeQueryCookie, func() error { return v.FreeQueryCookie(ctx, arg[driver.Cookie](a, 0)) })
	case fscap.OpReadQuery:
		entries, err := withChecked(v, fscap.OpReadQuery, func() ([]driver.DirEntry, error) {
			return ops.ReadQuery(ctx, arg[driver.Cookie](a, 0), arg[uint32](a, 1))
		})
		return []any{entries}, err
	case fscap.OpRewindQuery:
		return nil, checked(v, fscap.OpRewindQuery, func() error { return ops.RewindQuery(ctx, arg[driver.Cookie](a, 0)) })

	case fscap.OpCanPage:
		can, err := withChecked(v, fscap.OpCanPage, func() (bool, error) {
			return ops.CanPage(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1)), nil
		})
		return []any{can}, err
	case fscap.OpSelect:
		return nil, checked(v, fscap.OpSelect, func() error {
			return ops.Select(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[uint8](a, 2), arg[uint64](a, 3))
		})
	case fscap.OpDeselect:
		return nil, checked(v, fscap.OpDeselect, func() error {
			return ops.Deselect(ctx, arg[driver.VNode](a, 0), arg[driver.Cookie](a, 1), arg[uint8](a, 2), arg[uint64](a, 3))
		})

	default:
		return nil, fserrors.BadRequest("operation not wired into the handler: " + req.Op.String())
	}
}

// checked rejects calls the volume's capability bitmap doesn't advertise
// before ever invoking fn, per spec.md §4.2.
func checked(v *volume.Volume, op fscap.Op, fn func() error) error {
	if !v.Supports(op) {
		return fserrors.Unsupported(op.String())
	}
	return fn()
}

func withChecked[T any](v *volume.Volume, op fscap.Op, fn func() (T, error)) (T, error) {
	var zero T
	if !v.Supports(op) {
		return zero, fserrors.Unsupported(op.String())
	}
	return fn()
}

func threeChecked[A, B any](v *volume.Volume, op fscap.Op, fn func() (A, B, error)) (A, B, error) {
	var za A
	var zb B
	if !v.Supports(op) {
		return za, zb, fserrors.Unsupported(op.String())
	}
	return fn()
}
