package capture

// PixelFormat identifies a texture format. Values follow DXGI_FORMAT.
type PixelFormat uint32

// FormatRGBA16Float is DXGI_FORMAT_R16G16B16A16_FLOAT.
const FormatRGBA16Float PixelFormat = 10

// PoolBuffers is the number of frames a capture pool keeps in flight.
const PoolBuffers = 2

// Backend opens capture sessions on the primary display and owns the device
// used to read frames back to the CPU.
type Backend interface {
	// Device returns the device that frame textures belong to.
	Device() Device
	// Open creates the capture item, frame pool and session and subscribes
	// onFrame to frame arrival. Capture does not begin until Session.Start.
	Open(onFrame func(FrameSource)) (Session, error)
}

// Session is one live capture session together with its frame pool.
type Session interface {
	Start() error
	// Recreate rebuilds the frame pool for a new content size.
	Recreate(size Size) error
	// Size is the size the pool was last created with.
	Size() Size
	// Close unsubscribes the frame handler and releases the session and pool.
	Close()
}

// FrameSource is handed to the frame-arrival callback.
type FrameSource interface {
	TryGetNextFrame() (Frame, bool)
}

// Frame is one pooled frame. It must be closed after use.
type Frame interface {
	ContentSize() Size
	Texture() (Texture, error)
	Close()
}

// TextureDesc is the subset of a texture description the engine needs.
type TextureDesc struct {
	Width  uint32
	Height uint32
	Format PixelFormat
}

// Texture is a GPU-side frame surface.
type Texture interface {
	Desc() TextureDesc
}

// Staging is a CPU-readable copy target.
type Staging interface {
	Release()
}

// Mapped is a CPU view of a staging resource, valid until Unmap.
type Mapped struct {
	Data     []byte
	RowPitch uint32
}

// Device performs the GPU to CPU readback.
type Device interface {
	CreateStaging(desc TextureDesc) (Staging, error)
	Copy(dst Staging, src Texture)
	Map(s Staging) (Mapped, error)
	Unmap(s Staging)
}
