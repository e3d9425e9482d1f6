// Package volume implements the Volume lifecycle of spec.md §4.4: one
// Volume per mounted instance of a driver, tracking its capability set,
// dialect, and the per-kind cookie tables that back FreeCookie bookkeeping
// and the force-free sweep on Unmount.
//
// Grounded on Volume.h (original_source) for the method surface, and on
// beos_kernel_emu.h / UserlandFSDefs.h (original_source) for the
// legacy-dialect attribute-open emulation described in spec.md §9.
package volume

import (
	"sync"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/reqctx"
)

// AttrOpenPolicy resolves spec.md §9's open question about when a legacy
// driver's attribute should come into existence.
type AttrOpenPolicy int

const (
	// AttrCreateOnOpen passes OpenAttr straight to the driver: the runtime
	// creates no attribute and fabricates no cookie, so opening an
	// attribute that does not exist returns the driver's error.
	AttrCreateOnOpen AttrOpenPolicy = iota
	// AttrCreateOnFirstWrite defers creation until the first WriteAttr
	// call, for legacy drivers whose CreateAttr path assumes data is
	// already available (original_source's beos_kernel_emu.h shim).
	AttrCreateOnFirstWrite
)

type attrCookieState struct {
	node        driver.VNode
	name        string
	attrType    uint32
	openMode    int32
	pendCreated bool          // true once the attribute actually exists on the driver
	realCookie  driver.Cookie // valid once pendCreated
}

// Volume is one mounted instance of a driver, per spec.md §4.4.
type Volume struct {
	id      int32
	ops     driver.Ops
	caps    *fscap.AtomicSet
	dialect fscap.Dialect

	attrPolicy AttrOpenPolicy

	mu                     sync.Mutex
	syntheticAttrCookieSeq uint64

	vnodeCookies    *cookieTable
	dirCookies      *cookieTable
	attrDirCookies  *cookieTable
	attrCookies     *cookieTable
	indexDirCookies *cookieTable
	queryCookies    *cookieTable
}

// New creates a Volume bound to a driver's operation table.
func New(id int32, ops driver.Ops, caps fscap.Set, attrPolicy AttrOpenPolicy) *Volume {
	return &Volume{
		id:              id,
		ops:             ops,
		caps:            fscap.NewAtomicSet(caps),
		dialect:         caps.Dialect(),
		attrPolicy:      attrPolicy,
		vnodeCookies:    newCookieTable(),
		dirCookies:      newCookieTable(),
		attrDirCookies:  newCookieTable(),
		attrCookies:     newCookieTable(),
		indexDirCookies: newCookieTable(),
		queryCookies:    newCookieTable(),
	}
}

// Ops returns the driver's raw operation table, for calls the runtime
// forwards straight through without cookie-table bookkeeping.
func (v *Volume) Ops() driver.Ops          { return v.ops }
func (v *Volume) ID() int32                { return v.id }
func (v *Volume) Dialect() fscap.Dialect   { return v.dialect }
func (v *Volume) Capabilities() fscap.Set  { return v.caps.Snapshot() }
func (v *Volume) Supports(op fscap.Op) bool { return v.caps.Get(op) }

// checkSupported rejects a call the driver's capability bitmap says it
// does not implement, before ever reaching the driver, per spec.md §4.2.
func (v *Volume) checkSupported(op fscap.Op) error {
	if !v.caps.Get(op) {
		return fserrors.Unsupported(op.String())
	}
	return nil
}

// Open opens a file, registering its cookie so Unmount can force-free it.
func (v *Volume) Open(ctx *reqctx.Frame, node driver.VNode, openMode int32) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpen); err != nil {
		return 0, err
	}
	c, err := v.ops.Open(ctx, node, openMode)
	if err != nil {
		return 0, err
	}
	v.vnodeCookies.register(c, node)
	return c, nil
}

// FreeCookie releases a file cookie's bookkeeping entry after the driver's
// FreeCookie call succeeds.
func (v *Volume) FreeCookie(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeCookie); err != nil {
		return err
	}
	if err := v.ops.FreeCookie(ctx, node, cookie); err != nil {
		return err
	}
	return v.vnodeCookies.free(cookie)
}

// OpenDir mirrors Open for directory cookies.
func (v *Volume) OpenDir(ctx *reqctx.Frame, node driver.VNode) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpenDir); err != nil {
		return 0, err
	}
	c, err := v.ops.OpenDir(ctx, node)
	if err != nil {
		return 0, err
	}
	v.dirCookies.register(c, node)
	return c, nil
}

// FreeDirCookie mirrors FreeCookie for directory cookies.
func (v *Volume) FreeDirCookie(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeDirCookie); err != nil {
		return err
	}
	if err := v.ops.FreeDirCookie(ctx, node, cookie); err != nil {
		return err
	}
	return v.dirCookies.free(cookie)
}

// OpenAttrDir mirrors Open for attribute-directory cookies.
func (v *Volume) OpenAttrDir(ctx *reqctx.Frame, node driver.VNode) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpenAttrDir); err != nil {
		return 0, err
	}
	c, err := v.ops.OpenAttrDir(ctx, node)
	if err != nil {
		return 0, err
	}
	v.attrDirCookies.register(c, node)
	return c, nil
}

// FreeAttrDirCookie mirrors FreeCookie for attribute-directory cookies.
func (v *Volume) FreeAttrDirCookie(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeAttrDirCookie); err != nil {
		return err
	}
	if err := v.ops.FreeAttrDirCookie(ctx, node, cookie); err != nil {
		return err
	}
	return v.attrDirCookies.free(cookie)
}

// OpenAttr opens an attribute, applying the legacy-dialect emulation of
// spec.md §9 when the driver's dialect is Legacy and the policy is
// AttrCreateOnFirstWrite: creation of a not-yet-existing attribute is
// deferred until the first WriteAttr call instead of failing immediately.
func (v *Volume) OpenAttr(ctx *reqctx.Frame, node driver.VNode, name string, openMode int32) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpenAttr); err != nil {
		return 0, err
	}
	c, err := v.ops.OpenAttr(ctx, node, name, openMode)
	if err == nil {
		v.attrCookies.register(c, &attrCookieState{node: node, name: name, openMode: openMode, pendCreated: true, realCookie: c})
		return c, nil
	}
	if v.dialect != fscap.DialectLegacy || v.attrPolicy != AttrCreateOnFirstWrite {
		return 0, err
	}
	if !fserrors.Is(err, fserrors.KindUnsupportedOperation) && !fserrors.Is(err, fserrors.KindBadRequest) {
		return 0, err
	}
	// Defer creation: hand back a synthetic cookie the first WriteAttr
	// call will resolve into a real CreateAttr. The synthetic cookie is
	// never seen by the driver until WriteAttr trades it in, so it only
	// has to be unique among this volume's outstanding attribute cookies.
	c = v.nextSyntheticAttrCookie()
	v.attrCookies.register(c, &attrCookieState{node: node, name: name, attrType: 0, openMode: openMode, pendCreated: false})
	return c, nil
}

// nextSyntheticAttrCookie mints a cookie value for a deferred attribute
// creation. It is namespaced into the high bit so it can never collide
// with a cookie value a driver actually returned.
func (v *Volume) nextSyntheticAttrCookie() driver.Cookie {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syntheticAttrCookieSeq++
	return driver.Cookie(1<<63) | driver.Cookie(v.syntheticAttrCookieSeq)
}

// resolveAttrCookie translates a cookie the client is holding (which may
// be a synthetic not-yet-created-attribute placeholder) into the cookie
// the driver actually knows about, creating the attribute first if this is
// the first write to see it.
func (v *Volume) resolveAttrCookie(ctx *reqctx.Frame, cookie driver.Cookie, mustCreate bool) (driver.Cookie, error) {
	raw, ok := v.attrCookies.state(cookie)
	if !ok {
		return cookie, nil
	}
	st := raw.(*attrCookieState)
	if st.pendCreated {
		return st.realCookie, nil
	}
	if !mustCreate {
		return 0, fserrors.BadRequest("attribute does not exist yet (no write has occurred)")
	}
	if err := v.checkSupported(fscap.OpCreateAttr); err != nil {
		return 0, err
	}
	realCookie, err := v.ops.CreateAttr(ctx, st.node, st.name, st.attrType, st.openMode)
	if err != nil {
		return 0, err
	}
	st.pendCreated = true
	st.realCookie = realCookie
	_ = v.attrCookies.setState(cookie, st)
	return realCookie, nil
}

// WriteAttr resolves a pending (not-yet-created) attribute cookie by
// calling CreateAttr on first write, per the emulation described on
// OpenAttr, then forwards the write to the driver.
func (v *Volume) WriteAttr(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie, pos int64, data []byte) (int64, error) {
	if err := v.checkSupported(fscap.OpWriteAttr); err != nil {
		return 0, err
	}
	real, err := v.resolveAttrCookie(ctx, cookie, true)
	if err != nil {
		return 0, err
	}
	return v.ops.WriteAttr(ctx, node, real, pos, data)
}

// CloseAttr and FreeAttrCookie mirror the file cookie lifecycle, resolving
// a still-pending synthetic cookie to a no-op (a never-written attribute
// was never created on the driver side, so there is nothing to close).
func (v *Volume) CloseAttr(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpCloseAttr); err != nil {
		return err
	}
	real, err := v.resolveAttrCookie(ctx, cookie, false)
	if err != nil {
		return nil // never created; nothing to close
	}
	return v.ops.CloseAttr(ctx, node, real)
}

func (v *Volume) FreeAttrCookie(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeAttrCookie); err != nil {
		return err
	}
	real, err := v.resolveAttrCookie(ctx, cookie, false)
	if err == nil {
		if err := v.ops.FreeAttrCookie(ctx, node, real); err != nil {
			return err
		}
	}
	return v.attrCookies.free(cookie)
}

// OpenIndexDir and OpenQuery mirror OpenDir for their cookie kinds.
func (v *Volume) OpenIndexDir(ctx *reqctx.Frame) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpenIndexDir); err != nil {
		return 0, err
	}
	c, err := v.ops.OpenIndexDir(ctx)
	if err != nil {
		return 0, err
	}
	v.indexDirCookies.register(c, nil)
	return c, nil
}

func (v *Volume) FreeIndexDirCookie(ctx *reqctx.Frame, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeIndexDirCookie); err != nil {
		return err
	}
	if err := v.ops.FreeIndexDirCookie(ctx, cookie); err != nil {
		return err
	}
	return v.indexDirCookies.free(cookie)
}

func (v *Volume) OpenQuery(ctx *reqctx.Frame, queryString string, flags uint32, port uint32, token uint32) (driver.Cookie, error) {
	if err := v.checkSupported(fscap.OpOpenQuery); err != nil {
		return 0, err
	}
	c, err := v.ops.OpenQuery(ctx, queryString, flags, port, token)
	if err != nil {
		return 0, err
	}
	v.queryCookies.register(c, nil)
	return c, nil
}

func (v *Volume) FreeQueryCookie(ctx *reqctx.Frame, cookie driver.Cookie) error {
	if err := v.checkSupported(fscap.OpFreeQueryCookie); err != nil {
		return err
	}
	if err := v.ops.FreeQueryCookie(ctx, cookie); err != nil {
		return err
	}
	return v.queryCookies.free(cookie)
}

// Unmount force-frees every outstanding cookie the client never closed,
// then calls the driver's Unmount. Within one cookie kind the order is
// LIFO (files opened later are torn down before earlier ones); the kinds
// themselves are drained in forceFree's fixed order, not in overall
// allocation order.
//
// Grounded on original_source's server-side unmount sweep: a crashed or
// misbehaving client must not be able to leak driver-side cookie state
// forever.
func (v *Volume) Unmount(ctx *reqctx.Frame) error {
	v.forceFree(ctx)
	return v.ops.Unmount(ctx)
}

func (v *Volume) forceFree(ctx *reqctx.Frame) {
	for _, c := range v.queryCookies.drainLIFO() {
		_ = v.ops.CloseQuery(ctx, c)
		_ = v.ops.FreeQueryCookie(ctx, c)
	}
	for _, c := range v.indexDirCookies.drainLIFO() {
		_ = v.ops.CloseIndexDir(ctx, c)
		_ = v.ops.FreeIndexDirCookie(ctx, c)
	}
	for _, entry := range v.attrCookies.drainLIFOWithState() {
		st, _ := entry.State.(*attrCookieState)
		if st == nil || !st.pendCreated {
			continue // never created on the driver side; nothing to free there
		}
		_ = v.ops.CloseAttr(ctx, st.node, st.realCookie)
		_ = v.ops.FreeAttrCookie(ctx, st.node, st.realCookie)
	}
	for _, entry := range v.attrDirCookies.drainLIFOWithState() {
		node, _ := entry.State.(driver.VNode)
		_ = v.ops.CloseAttrDir(ctx, node, entry.Cookie)
		_ = v.ops.FreeAttrDirCookie(ctx, node, entry.Cookie)
	}
	for _, entry := range v.dirCookies.drainLIFOWithState() {
		node, _ := entry.State.(driver.VNode)
		_ = v.ops.CloseDir(ctx, node, entry.Cookie)
		_ = v.ops.FreeDirCookie(ctx, node, entry.Cookie)
	}
	for _, entry := range v.vnodeCookies.drainLIFOWithState() {
		node, _ := entry.State.(driver.VNode)
		_ = v.ops.Close(ctx, node, entry.Cookie)
		_ = v.ops.FreeCookie(ctx, node, entry.Cookie)
	}
}
