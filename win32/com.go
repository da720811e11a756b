//go:build windows

// Package win32 holds the raw COM plumbing shared by the Windows backends.
// Interfaces are addressed as uintptr and methods are invoked by vtable slot.
package win32

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// IUnknown vtable slots.
const (
	slotQueryInterface = 0
	slotAddRef         = 1
	slotRelease        = 2
)

// IInspectable adds three slots after IUnknown; WinRT methods start here.
const InspectableBase = 6

// GUID parses a registry-format GUID and panics on malformed input. It is only
// used for package-level IID constants.
func GUID(s string) *ole.GUID {
	g := ole.NewGUID(s)
	if g == nil {
		panic(fmt.Sprintf("win32: invalid guid %q", s))
	}
	return g
}

// Call invokes vtable slot index on obj with obj as the implicit this pointer.
func Call(obj uintptr, index int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*unsafe.Sizeof(uintptr(0))))
	all := make([]uintptr, 0, len(args)+1)
	all = append(all, obj)
	all = append(all, args...)
	r, _, _ := syscall.SyscallN(fn, all...)
	return r
}

// Failed reports whether hr is a failure HRESULT.
func Failed(hr uintptr) bool { return int32(uint32(hr)) < 0 }

// Check converts a failure HRESULT into an error naming op.
func Check(op string, hr uintptr) error {
	if !Failed(hr) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, ole.NewError(hr))
}

// CallHR invokes a method returning HRESULT and converts failures to errors.
func CallHR(op string, obj uintptr, index int, args ...uintptr) error {
	return Check(op, Call(obj, index, args...))
}

// QueryInterface returns obj's interface iid. The caller owns the new reference.
func QueryInterface(obj uintptr, iid *ole.GUID) (uintptr, error) {
	var out uintptr
	err := CallHR("QueryInterface", obj, slotQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	if err != nil {
		return 0, err
	}
	return out, nil
}

// AddRef increments obj's reference count.
func AddRef(obj uintptr) {
	if obj != 0 {
		Call(obj, slotAddRef)
	}
}

// Release drops one reference. A zero obj is ignored.
func Release(obj uintptr) {
	if obj != 0 {
		Call(obj, slotRelease)
	}
}

// Ptr converts a go-ole interface value into a raw interface pointer.
func Ptr(v *ole.IInspectable) uintptr { return uintptr(unsafe.Pointer(v)) }
