//go:build windows

package capture

// Windows Graphics Capture of the primary monitor into a free-threaded
// Direct3D11 frame pool. Frames are read back through a D3D11 staging
// texture by the Engine.

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"github.com/soocke/hdr-snip/win32"
)

var (
	modD3D11                                 = windows.NewLazySystemDLL("d3d11.dll")
	modUser32                                = windows.NewLazySystemDLL("user32.dll")
	procD3D11CreateDevice                    = modD3D11.NewProc("D3D11CreateDevice")
	procCreateDirect3D11DeviceFromDXGIDevice = modD3D11.NewProc("CreateDirect3D11DeviceFromDXGIDevice")
	procMonitorFromPoint                     = modUser32.NewProc("MonitorFromPoint")
)

var (
	iidGraphicsCaptureItemInterop  = win32.GUID("{3628E81B-3CAC-4C60-B7F4-23CE0E0C3356}")
	iidGraphicsCaptureItem         = win32.GUID("{79C3F95B-31F7-4EC2-A464-632EF5D30760}")
	iidFramePoolStatics2           = win32.GUID("{589B103F-6BBC-5DF5-A991-02E28B3B66D5}")
	iidClosable                    = win32.GUID("{30D5A829-7FA4-4026-83BB-D75BAE4EA99E}")
	iidGraphicsCaptureSession2     = win32.GUID("{2C39AE40-7D2E-5044-804E-8B6799D4CF9E}")
	iidDirect3DDxgiInterfaceAccess = win32.GUID("{A9B3D012-3DF2-4EE3-B8D1-8695F457D3C1}")
	iidD3D11Texture2D              = win32.GUID("{6f15aaf2-d208-4e89-9ab4-489535d34f9c}")
	iidDXGIDevice                  = win32.GUID("{54ec77fa-1377-44e6-8c32-88fd5f44c84c}")
	iidFrameArrivedHandler         = win32.GUID("{51a947f7-79cf-5a3e-a3a5-1289cfa6dfe8}")
	iidUnknown                     = win32.GUID("{00000000-0000-0000-C000-000000000046}")
	iidAgileObject                 = win32.GUID("{94ea2b94-e9cc-49e0-c0ff-ee64ca8f5b90}")
)

const (
	classCaptureItem = "Windows.Graphics.Capture.GraphicsCaptureItem"
	classFramePool   = "Windows.Graphics.Capture.Direct3D11CaptureFramePool"
)

// vtable slots
const (
	slotInteropCreateForMonitor    = 4
	slotItemGetSize                = win32.InspectableBase + 1
	slotStatics2CreateFreeThreaded = win32.InspectableBase
	slotPoolRecreate               = win32.InspectableBase
	slotPoolTryGetNextFrame        = win32.InspectableBase + 1
	slotPoolAddFrameArrived        = win32.InspectableBase + 2
	slotPoolRemoveFrameArrived     = win32.InspectableBase + 3
	slotPoolCreateCaptureSession   = win32.InspectableBase + 4
	slotClosableClose              = win32.InspectableBase
	slotSessionStartCapture        = win32.InspectableBase
	slotSession2PutCursorEnabled   = win32.InspectableBase + 1
	slotFrameGetSurface            = win32.InspectableBase
	slotFrameGetContentSize        = win32.InspectableBase + 2
	slotDxgiAccessGetInterface     = 3
	slotTextureGetDesc             = 10
	slotDeviceCreateTexture2D      = 5
	slotContextMap                 = 14
	slotContextUnmap               = 15
	slotContextCopyResource        = 47
)

const (
	d3dDriverTypeHardware = 1
	d3d11CreateBGRA       = 0x20
	d3d11SDKVersion       = 7
	d3d11UsageStaging     = 3
	d3d11CPUAccessRead    = 0x20000
	d3d11MapRead          = 1
	monitorPrimary        = 1
	roInitMultithreaded   = 1
	hrSFalse              = 1
	hrRPCChangedMode      = 0x80010106
	hrNoInterface         = 0x80004002
)

type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type d3d11MappedSubresource struct {
	Data       uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// packSize passes a SizeInt32 by value in a single register.
func packSize(s Size) uintptr {
	return uintptr(uint32(s.Width)) | uintptr(uint32(s.Height))<<32
}

// WGCBackend captures the primary monitor with Windows Graphics Capture.
type WGCBackend struct {
	logger *slog.Logger
	device *d3dDevice
}

// NewWGCBackend creates the D3D11 device and its WinRT wrapper.
func NewWGCBackend(logger *slog.Logger) (*WGCBackend, error) {
	if err := ole.RoInitialize(roInitMultithreaded); err != nil {
		var oe *ole.OleError
		if !errors.As(err, &oe) || (oe.Code() != hrSFalse && uint32(oe.Code()) != hrRPCChangedMode) {
			return nil, fmt.Errorf("wgc: RoInitialize: %w", err)
		}
	}
	dev, err := newD3DDevice()
	if err != nil {
		return nil, err
	}
	return &WGCBackend{logger: logger, device: dev}, nil
}

func (b *WGCBackend) Device() Device { return b.device }

// Release frees the device. Sessions must be closed first.
func (b *WGCBackend) Release() {
	if b.device != nil {
		b.device.release()
		b.device = nil
	}
}

func (b *WGCBackend) Open(onFrame func(FrameSource)) (Session, error) {
	s := &wgcSession{device: b.device}
	if err := s.open(onFrame); err != nil {
		s.Close()
		return nil, err
	}
	if b.logger != nil {
		b.logger.Debug("wgc session opened", "width", s.size.Width, "height", s.size.Height)
	}
	return s, nil
}

type wgcSession struct {
	device  *d3dDevice
	item    uintptr
	pool    uintptr
	session uintptr
	handler *frameHandler
	token   int64
	size    Size
	mu      sync.Mutex
	closed  bool
}

func (s *wgcSession) open(onFrame func(FrameSource)) error {
	hmon, _, _ := procMonitorFromPoint.Call(0, monitorPrimary)
	if hmon == 0 {
		return errors.New("wgc: primary monitor not found")
	}

	interop, err := ole.RoGetActivationFactory(classCaptureItem, iidGraphicsCaptureItemInterop)
	if err != nil {
		return fmt.Errorf("wgc: capture item factory: %w", err)
	}
	defer win32.Release(win32.Ptr(interop))
	if err := win32.CallHR("CreateForMonitor", win32.Ptr(interop), slotInteropCreateForMonitor,
		hmon, uintptr(unsafe.Pointer(iidGraphicsCaptureItem)), uintptr(unsafe.Pointer(&s.item))); err != nil {
		return fmt.Errorf("wgc: %w", err)
	}
	if err := win32.CallHR("GraphicsCaptureItem.Size", s.item, slotItemGetSize, uintptr(unsafe.Pointer(&s.size))); err != nil {
		return fmt.Errorf("wgc: %w", err)
	}

	statics, err := ole.RoGetActivationFactory(classFramePool, iidFramePoolStatics2)
	if err != nil {
		return fmt.Errorf("wgc: frame pool statics: %w", err)
	}
	defer win32.Release(win32.Ptr(statics))
	if err := win32.CallHR("CreateFreeThreaded", win32.Ptr(statics), slotStatics2CreateFreeThreaded,
		s.device.winrt, uintptr(FormatRGBA16Float), PoolBuffers, packSize(s.size), uintptr(unsafe.Pointer(&s.pool))); err != nil {
		return fmt.Errorf("wgc: %w", err)
	}

	if err := win32.CallHR("CreateCaptureSession", s.pool, slotPoolCreateCaptureSession,
		s.item, uintptr(unsafe.Pointer(&s.session))); err != nil {
		return fmt.Errorf("wgc: %w", err)
	}
	if s2, err := win32.QueryInterface(s.session, iidGraphicsCaptureSession2); err == nil {
		_ = win32.CallHR("IsCursorCaptureEnabled", s2, slotSession2PutCursorEnabled, 0)
		win32.Release(s2)
	}

	s.handler = newFrameHandler(onFrame)
	if err := win32.CallHR("FrameArrived", s.pool, slotPoolAddFrameArrived,
		uintptr(unsafe.Pointer(s.handler)), uintptr(unsafe.Pointer(&s.token))); err != nil {
		return fmt.Errorf("wgc: %w", err)
	}
	return nil
}

func (s *wgcSession) Start() error {
	return win32.CallHR("StartCapture", s.session, slotSessionStartCapture)
}

func (s *wgcSession) Recreate(size Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pool == 0 {
		return errors.New("wgc: session closed")
	}
	if err := win32.CallHR("FramePool.Recreate", s.pool, slotPoolRecreate,
		s.device.winrt, uintptr(FormatRGBA16Float), PoolBuffers, packSize(size)); err != nil {
		return err
	}
	s.size = size
	return nil
}

func (s *wgcSession) Size() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close revokes the handler, closes session and pool and drops the item. It
// tolerates partially opened sessions.
func (s *wgcSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.pool != 0 && s.token != 0 {
		win32.Call(s.pool, slotPoolRemoveFrameArrived, uintptr(s.token))
		s.token = 0
	}
	closeAndRelease(s.session)
	s.session = 0
	closeAndRelease(s.pool)
	s.pool = 0
	win32.Release(s.item)
	s.item = 0
	if s.handler != nil {
		s.handler.detach()
		s.handler = nil
	}
}

func closeAndRelease(obj uintptr) {
	if obj == 0 {
		return
	}
	if c, err := win32.QueryInterface(obj, iidClosable); err == nil {
		win32.Call(c, slotClosableClose)
		win32.Release(c)
	}
	win32.Release(obj)
}

// wgcFrameSource wraps the pool handed to the FrameArrived delegate.
type wgcFrameSource struct {
	pool uintptr
}

func (src wgcFrameSource) TryGetNextFrame() (Frame, bool) {
	var f uintptr
	if win32.Failed(win32.Call(src.pool, slotPoolTryGetNextFrame, uintptr(unsafe.Pointer(&f)))) || f == 0 {
		return nil, false
	}
	return &wgcFrame{frame: f}, true
}

type wgcFrame struct {
	frame   uintptr
	texture *d3dTexture
}

func (f *wgcFrame) ContentSize() Size {
	var sz Size
	win32.Call(f.frame, slotFrameGetContentSize, uintptr(unsafe.Pointer(&sz)))
	return sz
}

func (f *wgcFrame) Texture() (Texture, error) {
	if f.texture != nil {
		return f.texture, nil
	}
	var surface uintptr
	if err := win32.CallHR("Frame.Surface", f.frame, slotFrameGetSurface, uintptr(unsafe.Pointer(&surface))); err != nil {
		return nil, err
	}
	defer win32.Release(surface)
	access, err := win32.QueryInterface(surface, iidDirect3DDxgiInterfaceAccess)
	if err != nil {
		return nil, fmt.Errorf("dxgi interface access: %w", err)
	}
	defer win32.Release(access)
	var tex uintptr
	if err := win32.CallHR("GetInterface", access, slotDxgiAccessGetInterface,
		uintptr(unsafe.Pointer(iidD3D11Texture2D)), uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, err
	}
	var desc d3d11Texture2DDesc
	win32.Call(tex, slotTextureGetDesc, uintptr(unsafe.Pointer(&desc)))
	f.texture = &d3dTexture{ptr: tex, desc: desc}
	return f.texture, nil
}

func (f *wgcFrame) Close() {
	if f.texture != nil {
		win32.Release(f.texture.ptr)
		f.texture = nil
	}
	closeAndRelease(f.frame)
	f.frame = 0
}

type d3dTexture struct {
	ptr  uintptr
	desc d3d11Texture2DDesc
}

func (t *d3dTexture) Desc() TextureDesc {
	return TextureDesc{Width: t.desc.Width, Height: t.desc.Height, Format: PixelFormat(t.desc.Format)}
}

type d3dStaging struct {
	ptr uintptr
}

func (s *d3dStaging) Release() {
	win32.Release(s.ptr)
	s.ptr = 0
}

// d3dDevice is the D3D11 device, its immediate context and the WinRT
// IDirect3DDevice wrapping it. The immediate context is not thread safe;
// the Engine serialises readback.
type d3dDevice struct {
	device  uintptr
	context uintptr
	winrt   uintptr
}

func newD3DDevice() (*d3dDevice, error) {
	d := &d3dDevice{}
	var level uint32
	hr, _, _ := procD3D11CreateDevice.Call(
		0, d3dDriverTypeHardware, 0, d3d11CreateBGRA, 0, 0, d3d11SDKVersion,
		uintptr(unsafe.Pointer(&d.device)), uintptr(unsafe.Pointer(&level)), uintptr(unsafe.Pointer(&d.context)),
	)
	if err := win32.Check("D3D11CreateDevice", hr); err != nil {
		return nil, err
	}
	dxgiDevice, err := win32.QueryInterface(d.device, iidDXGIDevice)
	if err != nil {
		d.release()
		return nil, fmt.Errorf("IDXGIDevice: %w", err)
	}
	defer win32.Release(dxgiDevice)
	hr, _, _ = procCreateDirect3D11DeviceFromDXGIDevice.Call(dxgiDevice, uintptr(unsafe.Pointer(&d.winrt)))
	if err := win32.Check("CreateDirect3D11DeviceFromDXGIDevice", hr); err != nil {
		d.release()
		return nil, err
	}
	return d, nil
}

func (d *d3dDevice) release() {
	win32.Release(d.winrt)
	win32.Release(d.context)
	win32.Release(d.device)
	d.winrt, d.context, d.device = 0, 0, 0
}

func (d *d3dDevice) CreateStaging(desc TextureDesc) (Staging, error) {
	td := d3d11Texture2DDesc{
		Width:          desc.Width,
		Height:         desc.Height,
		MipLevels:      1,
		ArraySize:      1,
		Format:         uint32(desc.Format),
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	var tex uintptr
	if err := win32.CallHR("CreateTexture2D", d.device, slotDeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&td)), 0, uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, err
	}
	return &d3dStaging{ptr: tex}, nil
}

func (d *d3dDevice) Copy(dst Staging, src Texture) {
	s, ok1 := dst.(*d3dStaging)
	t, ok2 := src.(*d3dTexture)
	if !ok1 || !ok2 {
		return
	}
	win32.Call(d.context, slotContextCopyResource, s.ptr, t.ptr)
}

func (d *d3dDevice) Map(st Staging) (Mapped, error) {
	s, ok := st.(*d3dStaging)
	if !ok || s.ptr == 0 {
		return Mapped{}, errors.New("d3d11: staging not mappable")
	}
	var m d3d11MappedSubresource
	if err := win32.CallHR("Map", d.context, slotContextMap, s.ptr, 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&m))); err != nil {
		return Mapped{}, err
	}
	var desc d3d11Texture2DDesc
	win32.Call(s.ptr, slotTextureGetDesc, uintptr(unsafe.Pointer(&desc)))
	n := int(m.RowPitch) * int(desc.Height)
	return Mapped{Data: unsafe.Slice((*byte)(unsafe.Pointer(m.Data)), n), RowPitch: m.RowPitch}, nil
}

func (d *d3dDevice) Unmap(st Staging) {
	if s, ok := st.(*d3dStaging); ok && s.ptr != 0 {
		win32.Call(d.context, slotContextUnmap, s.ptr, 0)
	}
}

// frameHandler is a COM object implementing
// TypedEventHandler<Direct3D11CaptureFramePool, IInspectable>.
type frameHandler struct {
	vtbl    *frameHandlerVtbl
	refs    int32
	onFrame atomic.Pointer[func(FrameSource)]
}

type frameHandlerVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	Invoke         uintptr
}

var (
	handlerVtblOnce sync.Once
	handlerVtbl     *frameHandlerVtbl
	// live keeps handlers reachable while the OS holds references to them.
	live sync.Map
)

func newFrameHandler(onFrame func(FrameSource)) *frameHandler {
	handlerVtblOnce.Do(func() {
		handlerVtbl = &frameHandlerVtbl{
			QueryInterface: syscall.NewCallback(handlerQueryInterface),
			AddRef:         syscall.NewCallback(handlerAddRef),
			Release:        syscall.NewCallback(handlerRelease),
			Invoke:         syscall.NewCallback(handlerInvoke),
		}
	})
	h := &frameHandler{vtbl: handlerVtbl, refs: 1}
	h.onFrame.Store(&onFrame)
	live.Store(h, struct{}{})
	return h
}

// detach stops delivery and drops the creator's reference.
func (h *frameHandler) detach() {
	h.onFrame.Store(nil)
	handlerRelease(uintptr(unsafe.Pointer(h)))
}

func handlerFrom(this uintptr) *frameHandler { return (*frameHandler)(unsafe.Pointer(this)) }

func handlerQueryInterface(this, riid, out uintptr) uintptr {
	iid := (*ole.GUID)(unsafe.Pointer(riid))
	if ole.IsEqualGUID(iid, iidFrameArrivedHandler) || ole.IsEqualGUID(iid, iidUnknown) || ole.IsEqualGUID(iid, iidAgileObject) {
		*(*uintptr)(unsafe.Pointer(out)) = this
		handlerAddRef(this)
		return 0
	}
	*(*uintptr)(unsafe.Pointer(out)) = 0
	return hrNoInterface
}

func handlerAddRef(this uintptr) uintptr {
	return uintptr(atomic.AddInt32(&handlerFrom(this).refs, 1))
}

func handlerRelease(this uintptr) uintptr {
	h := handlerFrom(this)
	n := atomic.AddInt32(&h.refs, -1)
	if n == 0 {
		live.Delete(h)
	}
	return uintptr(n)
}

func handlerInvoke(this, sender, _ uintptr) uintptr {
	if fn := handlerFrom(this).onFrame.Load(); fn != nil && sender != 0 {
		(*fn)(wgcFrameSource{pool: sender})
	}
	return 0
}
