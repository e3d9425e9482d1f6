package driver

import (
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/reqctx"
)

// NotImplementedOps answers every Ops method with fserrors.Unsupported.
// Embed it in a concrete driver to inherit defaults for any operation that
// driver doesn't implement, the way fuseutil.NotImplementedFileSystem
// stands in for ENOSYS (fuseutil/not_implemented_file_system.go).
type NotImplementedOps struct{}

var _ Ops = &NotImplementedOps{}

func (NotImplementedOps) Mount(*reqctx.Frame, string, uint32, string) (VNode, error) {
	return 0, fserrors.Unsupported(fscap.OpMount.String())
}
func (NotImplementedOps) Unmount(*reqctx.Frame) error {
	return fserrors.Unsupported(fscap.OpUnmount.String())
}
func (NotImplementedOps) Sync(*reqctx.Frame) error {
	return fserrors.Unsupported(fscap.OpSync.String())
}
func (NotImplementedOps) ReadFSInfo(*reqctx.Frame) (FSInfo, error) {
	return FSInfo{}, fserrors.Unsupported(fscap.OpReadFSInfo.String())
}
func (NotImplementedOps) WriteFSInfo(*reqctx.Frame, FSInfo, FSInfoMask) error {
	return fserrors.Unsupported(fscap.OpWriteFSInfo.String())
}
func (NotImplementedOps) Lookup(*reqctx.Frame, VNode, string) (VNode, error) {
	return 0, fserrors.Unsupported(fscap.OpLookup.String())
}
func (NotImplementedOps) GetVNodeName(*reqctx.Frame, VNode) (string, error) {
	return "", fserrors.Unsupported(fscap.OpGetVNodeName.String())
}
func (NotImplementedOps) GetVNode(*reqctx.Frame, VNode, bool) error {
	return fserrors.Unsupported(fscap.OpGetVNode.String())
}
func (NotImplementedOps) PutVNode(*reqctx.Frame, VNode, bool) error {
	return fserrors.Unsupported(fscap.OpPutVNode.String())
}
func (NotImplementedOps) RemoveVNode(*reqctx.Frame, VNode, bool) error {
	return fserrors.Unsupported(fscap.OpRemoveVNode.String())
}
func (NotImplementedOps) CanPage(*reqctx.Frame, VNode, Cookie) bool {
	return false
}
func (NotImplementedOps) ReadPages(*reqctx.Frame, VNode, Cookie, int64, int64) ([]byte, error) {
	return nil, fserrors.Unsupported(fscap.OpReadPages.String())
}
func (NotImplementedOps) WritePages(*reqctx.Frame, VNode, Cookie, int64, []byte) (int64, error) {
	return 0, fserrors.Unsupported(fscap.OpWritePages.String())
}
func (NotImplementedOps) IOCtl(*reqctx.Frame, VNode, Cookie, uint32, []byte) ([]byte, error) {
	return nil, fserrors.Unsupported(fscap.OpIoctl.String())
}
func (NotImplementedOps) SetFlags(*reqctx.Frame, VNode, Cookie, int32) error {
	return fserrors.Unsupported(fscap.OpSetFlags.String())
}
func (NotImplementedOps) Select(*reqctx.Frame, VNode, Cookie, uint8, uint64) error {
	return fserrors.Unsupported(fscap.OpSelect.String())
}
func (NotImplementedOps) Deselect(*reqctx.Frame, VNode, Cookie, uint8, uint64) error {
	return fserrors.Unsupported(fscap.OpDeselect.String())
}
func (NotImplementedOps) FSync(*reqctx.Frame, VNode) error {
	return fserrors.Unsupported(fscap.OpFSync.String())
}
func (NotImplementedOps) ReadSymlink(*reqctx.Frame, VNode) (string, error) {
	return "", fserrors.Unsupported(fscap.OpReadSymlink.String())
}
func (NotImplementedOps) CreateSymlink(*reqctx.Frame, VNode, string, string, uint32) error {
	return fserrors.Unsupported(fscap.OpCreateSymlink.String())
}
func (NotImplementedOps) Link(*reqctx.Frame, VNode, string, VNode) error {
	return fserrors.Unsupported(fscap.OpLink.String())
}
func (NotImplementedOps) Unlink(*reqctx.Frame, VNode, string) error {
	return fserrors.Unsupported(fscap.OpUnlink.String())
}
func (NotImplementedOps) Rename(*reqctx.Frame, VNode, string, VNode, string) error {
	return fserrors.Unsupported(fscap.OpRename.String())
}
func (NotImplementedOps) Access(*reqctx.Frame, VNode, int32) error {
	return fserrors.Unsupported(fscap.OpAccess.String())
}
func (NotImplementedOps) ReadStat(*reqctx.Frame, VNode) (Stat, error) {
	return Stat{}, fserrors.Unsupported(fscap.OpReadStat.String())
}
func (NotImplementedOps) WriteStat(*reqctx.Frame, VNode, Stat, StatMask) error {
	return fserrors.Unsupported(fscap.OpWriteStat.String())
}
func (NotImplementedOps) Create(*reqctx.Frame, VNode, string, int32, uint32) (VNode, Cookie, error) {
	return 0, 0, fserrors.Unsupported(fscap.OpCreate.String())
}
func (NotImplementedOps) Open(*reqctx.Frame, VNode, int32) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpen.String())
}
func (NotImplementedOps) Close(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpClose.String())
}
func (NotImplementedOps) FreeCookie(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeCookie.String())
}
func (NotImplementedOps) Read(*reqctx.Frame, VNode, Cookie, int64, int64) ([]byte, error) {
	return nil, fserrors.Unsupported(fscap.OpRead.String())
}
func (NotImplementedOps) Write(*reqctx.Frame, VNode, Cookie, int64, []byte) (int64, error) {
	return 0, fserrors.Unsupported(fscap.OpWrite.String())
}
func (NotImplementedOps) CreateDir(*reqctx.Frame, VNode, string, uint32) error {
	return fserrors.Unsupported(fscap.OpCreateDir.String())
}
func (NotImplementedOps) RemoveDir(*reqctx.Frame, VNode, string) error {
	return fserrors.Unsupported(fscap.OpRemoveDir.String())
}
func (NotImplementedOps) OpenDir(*reqctx.Frame, VNode) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpenDir.String())
}
func (NotImplementedOps) CloseDir(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpCloseDir.String())
}
func (NotImplementedOps) FreeDirCookie(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeDirCookie.String())
}
func (NotImplementedOps) ReadDir(*reqctx.Frame, VNode, Cookie, uint32) ([]DirEntry, error) {
	return nil, fserrors.Unsupported(fscap.OpReadDir.String())
}
func (NotImplementedOps) RewindDir(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpRewindDir.String())
}
func (NotImplementedOps) OpenAttrDir(*reqctx.Frame, VNode) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpenAttrDir.String())
}
func (NotImplementedOps) CloseAttrDir(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpCloseAttrDir.String())
}
func (NotImplementedOps) FreeAttrDirCookie(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeAttrDirCookie.String())
}
func (NotImplementedOps) ReadAttrDir(*reqctx.Frame, VNode, Cookie, uint32) ([]DirEntry, error) {
	return nil, fserrors.Unsupported(fscap.OpReadAttrDir.String())
}
func (NotImplementedOps) RewindAttrDir(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpRewindAttrDir.String())
}
func (NotImplementedOps) CreateAttr(*reqctx.Frame, VNode, string, uint32, int32) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpCreateAttr.String())
}
func (NotImplementedOps) OpenAttr(*reqctx.Frame, VNode, string, int32) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpenAttr.String())
}
func (NotImplementedOps) CloseAttr(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpCloseAttr.String())
}
func (NotImplementedOps) FreeAttrCookie(*reqctx.Frame, VNode, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeAttrCookie.String())
}
func (NotImplementedOps) ReadAttr(*reqctx.Frame, VNode, Cookie, int64, int64) ([]byte, error) {
	return nil, fserrors.Unsupported(fscap.OpReadAttr.String())
}
func (NotImplementedOps) WriteAttr(*reqctx.Frame, VNode, Cookie, int64, []byte) (int64, error) {
	return 0, fserrors.Unsupported(fscap.OpWriteAttr.String())
}
func (NotImplementedOps) ReadAttrStat(*reqctx.Frame, VNode, Cookie) (Stat, error) {
	return Stat{}, fserrors.Unsupported(fscap.OpReadAttrStat.String())
}
func (NotImplementedOps) WriteAttrStat(*reqctx.Frame, VNode, Cookie, Stat, StatMask) error {
	return fserrors.Unsupported(fscap.OpWriteAttrStat.String())
}
func (NotImplementedOps) RenameAttr(*reqctx.Frame, VNode, string, VNode, string) error {
	return fserrors.Unsupported(fscap.OpRenameAttr.String())
}
func (NotImplementedOps) RemoveAttr(*reqctx.Frame, VNode, string) error {
	return fserrors.Unsupported(fscap.OpRemoveAttr.String())
}
func (NotImplementedOps) OpenIndexDir(*reqctx.Frame) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpenIndexDir.String())
}
func (NotImplementedOps) CloseIndexDir(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpCloseIndexDir.String())
}
func (NotImplementedOps) FreeIndexDirCookie(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeIndexDirCookie.String())
}
func (NotImplementedOps) ReadIndexDir(*reqctx.Frame, Cookie, uint32) ([]DirEntry, error) {
	return nil, fserrors.Unsupported(fscap.OpReadIndexDir.String())
}
func (NotImplementedOps) RewindIndexDir(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpRewindIndexDir.String())
}
func (NotImplementedOps) CreateIndex(*reqctx.Frame, string, uint32, uint32) error {
	return fserrors.Unsupported(fscap.OpCreateIndex.String())
}
func (NotImplementedOps) RemoveIndex(*reqctx.Frame, string) error {
	return fserrors.Unsupported(fscap.OpRemoveIndex.String())
}
func (NotImplementedOps) ReadIndexStat(*reqctx.Frame, string) (Stat, error) {
	return Stat{}, fserrors.Unsupported(fscap.OpReadIndexStat.String())
}
func (NotImplementedOps) OpenQuery(*reqctx.Frame, string, uint32, uint32, uint32) (Cookie, error) {
	return 0, fserrors.Unsupported(fscap.OpOpenQuery.String())
}
func (NotImplementedOps) CloseQuery(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpCloseQuery.String())
}
func (NotImplementedOps) FreeQueryCookie(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpFreeQueryCookie.String())
}
func (NotImplementedOps) ReadQuery(*reqctx.Frame, Cookie, uint32) ([]DirEntry, error) {
	return nil, fserrors.Unsupported(fscap.OpReadQuery.String())
}
func (NotImplementedOps) RewindQuery(*reqctx.Frame, Cookie) error {
	return fserrors.Unsupported(fscap.OpRewindQuery.String())
}
