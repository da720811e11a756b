//go:build windows

package hdr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/hdr-snip/win32"
)

var (
	modDXGI                         = windows.NewLazySystemDLL("dxgi.dll")
	modUser32                       = windows.NewLazySystemDLL("user32.dll")
	procCreateDXGIFactory1          = modDXGI.NewProc("CreateDXGIFactory1")
	procGetDisplayConfigBufferSizes = modUser32.NewProc("GetDisplayConfigBufferSizes")
	procQueryDisplayConfig          = modUser32.NewProc("QueryDisplayConfig")
	procDisplayConfigGetDeviceInfo  = modUser32.NewProc("DisplayConfigGetDeviceInfo")
)

var (
	iidIDXGIFactory1 = win32.GUID("{770aae78-f26f-4dba-a829-253c83d1b387}")
	iidIDXGIOutput6  = win32.GUID("{068346e8-aaec-4b84-add7-137f513f77a1}")
)

// vtable slots
const (
	slotFactoryEnumAdapters1 = 12
	slotAdapterEnumOutputs   = 7
	slotOutput6GetDesc1      = 27
)

const (
	qdcOnlyActivePaths         = 0x2
	deviceInfoGetSDRWhiteLevel = 11
)

// dxgiOutputDesc1 mirrors DXGI_OUTPUT_DESC1.
type dxgiOutputDesc1 struct {
	DeviceName            [32]uint16
	DesktopCoordinates    windows.Rect
	AttachedToDesktop     int32
	Rotation              uint32
	Monitor               uintptr
	BitsPerColor          uint32
	ColorSpace            uint32
	RedPrimary            [2]float32
	GreenPrimary          [2]float32
	BluePrimary           [2]float32
	WhitePoint            [2]float32
	MinLuminance          float32
	MaxLuminance          float32
	MaxFullFrameLuminance float32
}

type luid struct {
	LowPart  uint32
	HighPart int32
}

type pathSourceInfo struct {
	AdapterID   luid
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

type pathTargetInfo struct {
	AdapterID        luid
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshNumerator uint32
	RefreshDenom     uint32
	ScanLineOrdering uint32
	TargetAvailable  int32
	StatusFlags      uint32
}

// pathInfo mirrors DISPLAYCONFIG_PATH_INFO.
type pathInfo struct {
	Source pathSourceInfo
	Target pathTargetInfo
	Flags  uint32
}

// modeInfo mirrors DISPLAYCONFIG_MODE_INFO. The union is kept raw; only the
// source mode's position is read from it.
type modeInfo struct {
	InfoType  uint32
	ID        uint32
	AdapterID luid
	Union     [48]byte
}

// sourcePosition reads DISPLAYCONFIG_SOURCE_MODE.position from the union.
func (m *modeInfo) sourcePosition() (int32, int32) {
	x := *(*int32)(unsafe.Pointer(&m.Union[12]))
	y := *(*int32)(unsafe.Pointer(&m.Union[16]))
	return x, y
}

type deviceInfoHeader struct {
	Type      uint32
	Size      uint32
	AdapterID luid
	ID        uint32
}

type sdrWhiteLevel struct {
	Header        deviceInfoHeader
	SDRWhiteLevel uint32
}

type platformQuerier struct{}

// OutputLuminance walks factory -> adapter 0 -> output 0 -> IDXGIOutput6.
func (platformQuerier) OutputLuminance() (Luminance, error) {
	var factory uintptr
	hr, _, _ := procCreateDXGIFactory1.Call(uintptr(unsafe.Pointer(iidIDXGIFactory1)), uintptr(unsafe.Pointer(&factory)))
	if err := win32.Check("CreateDXGIFactory1", hr); err != nil {
		return Luminance{}, err
	}
	defer win32.Release(factory)

	var adapter uintptr
	if err := win32.CallHR("EnumAdapters1", factory, slotFactoryEnumAdapters1, 0, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return Luminance{}, err
	}
	defer win32.Release(adapter)

	var output uintptr
	if err := win32.CallHR("EnumOutputs", adapter, slotAdapterEnumOutputs, 0, uintptr(unsafe.Pointer(&output))); err != nil {
		return Luminance{}, err
	}
	defer win32.Release(output)

	output6, err := win32.QueryInterface(output, iidIDXGIOutput6)
	if err != nil {
		return Luminance{}, fmt.Errorf("IDXGIOutput6: %w", err)
	}
	defer win32.Release(output6)

	var desc dxgiOutputDesc1
	if err := win32.CallHR("GetDesc1", output6, slotOutput6GetDesc1, uintptr(unsafe.Pointer(&desc))); err != nil {
		return Luminance{}, err
	}
	return Luminance{
		MinLuminance:          desc.MinLuminance,
		MaxLuminance:          desc.MaxLuminance,
		MaxFullFrameLuminance: desc.MaxFullFrameLuminance,
	}, nil
}

// SDRWhiteLevelRaw queries the active path whose source sits at the desktop
// origin, which is the primary display.
func (platformQuerier) SDRWhiteLevelRaw() (uint32, error) {
	var pathCount, modeCount uint32
	r, _, _ := procGetDisplayConfigBufferSizes.Call(qdcOnlyActivePaths, uintptr(unsafe.Pointer(&pathCount)), uintptr(unsafe.Pointer(&modeCount)))
	if r != 0 {
		return 0, fmt.Errorf("GetDisplayConfigBufferSizes: %w", windows.Errno(r))
	}
	if pathCount == 0 || modeCount == 0 {
		return 0, fmt.Errorf("QueryDisplayConfig: no active paths")
	}
	paths := make([]pathInfo, pathCount)
	modes := make([]modeInfo, modeCount)
	r, _, _ = procQueryDisplayConfig.Call(
		qdcOnlyActivePaths,
		uintptr(unsafe.Pointer(&pathCount)), uintptr(unsafe.Pointer(&paths[0])),
		uintptr(unsafe.Pointer(&modeCount)), uintptr(unsafe.Pointer(&modes[0])),
		0,
	)
	if r != 0 {
		return 0, fmt.Errorf("QueryDisplayConfig: %w", windows.Errno(r))
	}
	for _, p := range paths[:pathCount] {
		if p.Source.ModeInfoIdx >= modeCount {
			continue
		}
		x, y := modes[p.Source.ModeInfoIdx].sourcePosition()
		if x != 0 || y != 0 {
			continue
		}
		req := sdrWhiteLevel{Header: deviceInfoHeader{
			Type:      deviceInfoGetSDRWhiteLevel,
			Size:      uint32(unsafe.Sizeof(sdrWhiteLevel{})),
			AdapterID: p.Target.AdapterID,
			ID:        p.Target.ID,
		}}
		r, _, _ = procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&req.Header)))
		if r != 0 {
			return 0, fmt.Errorf("DisplayConfigGetDeviceInfo: %w", windows.Errno(r))
		}
		return req.SDRWhiteLevel, nil
	}
	return 0, fmt.Errorf("QueryDisplayConfig: primary display path not found")
}
