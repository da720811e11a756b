//go:build windows

package preview

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/soocke/hdr-snip/assets"
	"github.com/soocke/hdr-snip/domain/action"
	"github.com/soocke/hdr-snip/domain/capture"
	"github.com/soocke/hdr-snip/domain/compose"
	"github.com/soocke/hdr-snip/domain/selection"
)

// glSurface renders the frame as an RGBA16F texture through ANGLE into a
// float16 window surface, so values above 1.0 reach the HDR compositor.
type glSurface struct {
	window *nativeWindow
	logger *slog.Logger

	display, context, surface uintptr
	program, vbo, texture     uintptr

	locTexture, locSelection, locWhite, locHasSel, locDim uintptr
}

var _ Surface = (*glSurface)(nil)

// newGLSurface opens the window and uploads frame. On failure everything
// acquired so far is released and the error wraps ErrInit.
func newGLSurface(frame *capture.CapturedFrame, keymap *action.Keymap, logger *slog.Logger) (s *glSurface, err error) {
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := modEGL.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := modGLES.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	s = &glSurface{logger: logger}
	defer func() {
		if err != nil {
			s.Close()
			s = nil
		}
	}()
	if s.window, err = newNativeWindow(keymap); err != nil {
		return s, fmt.Errorf("%w: window: %v", ErrInit, err)
	}
	if err = s.initEGL(); err != nil {
		return s, fmt.Errorf("%w: egl: %v", ErrInit, err)
	}
	if s.program, err = glLinkProgram(assets.CompositeVertexShader, assets.CompositeFragmentShader); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInit, err)
	}
	s.locTexture = glUniformLocation(s.program, "u_texture")
	s.locSelection = glUniformLocation(s.program, "u_selection")
	s.locWhite = glUniformLocation(s.program, "u_sdrWhiteRatio")
	s.locHasSel = glUniformLocation(s.program, "u_hasSelection")
	s.locDim = glUniformLocation(s.program, "u_dim")

	glGenBuffersProc.Call(1, uintptr(unsafe.Pointer(&s.vbo)))
	glBindBufferProc.Call(glArrayBuffer, s.vbo)
	glBufferDataProc.Call(glArrayBuffer, unsafe.Sizeof(compose.QuadVertices),
		uintptr(unsafe.Pointer(&compose.QuadVertices[0])), glStaticDraw)

	glGenTexturesProc.Call(1, uintptr(unsafe.Pointer(&s.texture)))
	glBindTextureProc.Call(glTexture2D, s.texture)
	glTexParameteriProc.Call(glTexture2D, glTextureMinFilt, glLinear)
	glTexParameteriProc.Call(glTexture2D, glTextureMagFilt, glLinear)
	glTexParameteriProc.Call(glTexture2D, glTextureWrapS, glClampToEdge)
	glTexParameteriProc.Call(glTexture2D, glTextureWrapT, glClampToEdge)
	m := frame.Metadata
	glTexImage2DProc.Call(glTexture2D, 0, glRGBA16F, uintptr(m.Width), uintptr(m.Height), 0,
		glRGBA, glHalfFloat, uintptr(unsafe.Pointer(&frame.Pixels[0])))

	if logger != nil {
		logger.Info("gl preview ready", "frame_w", m.Width, "frame_h", m.Height,
			"window_w", s.window.w, "window_h", s.window.h)
	}
	return s, nil
}

func (s *glSurface) initEGL() error {
	d, _, _ := eglGetDisplayProc.Call(eglDefaultDisplay)
	if d == 0 {
		return fmt.Errorf("eglGetDisplay: %w", eglLastError())
	}
	if ok, _, _ := eglInitializeProc.Call(d, 0, 0); ok != eglTrue {
		return fmt.Errorf("eglInitialize: %w", eglLastError())
	}
	s.display = d

	configAttribs := []int32{
		eglRedSize, 16,
		eglGreenSize, 16,
		eglBlueSize, 16,
		eglAlphaSize, 16,
		eglDepthSize, 24,
		eglStencilSize, 8,
		eglRenderableType, eglOpenGLES3Bit,
		eglSurfaceType, eglWindowBit,
		eglColorComponentTypeEXT, eglColorComponentTypeFloat,
		eglNone,
	}
	var config uintptr
	var n int32
	ok, _, _ := eglChooseConfigProc.Call(d, uintptr(unsafe.Pointer(&configAttribs[0])),
		uintptr(unsafe.Pointer(&config)), 1, uintptr(unsafe.Pointer(&n)))
	if ok != eglTrue || n == 0 {
		return fmt.Errorf("eglChooseConfig: no float16 config: %w", eglLastError())
	}

	contextAttribs := []int32{eglContextClientVersion, 3, eglNone}
	s.context, _, _ = eglCreateContextProc.Call(d, config, 0, uintptr(unsafe.Pointer(&contextAttribs[0])))
	if s.context == 0 {
		return fmt.Errorf("eglCreateContext: %w", eglLastError())
	}

	surfaceAttribs := []int32{eglDirectCompositionANGLE, eglTrue, eglNone}
	s.surface, _, _ = eglCreateWindowSurfaceProc.Call(d, config, uintptr(s.window.hwnd),
		uintptr(unsafe.Pointer(&surfaceAttribs[0])))
	if s.surface == 0 {
		return fmt.Errorf("eglCreateWindowSurface: %w", eglLastError())
	}
	if ok, _, _ := eglMakeCurrentProc.Call(d, s.surface, s.surface, s.context); ok != eglTrue {
		return fmt.Errorf("eglMakeCurrent: %w", eglLastError())
	}
	return nil
}

func (s *glSurface) Size() (int, int) { return s.window.w, s.window.h }

func (s *glSurface) PumpEvents() []Event { return s.window.pump() }

func (s *glSurface) Render(_ selection.Rect, u compose.Uniforms) error {
	glViewportProc.Call(0, 0, uintptr(s.window.w), uintptr(s.window.h))
	glClearColorProc.Call(f32(0), f32(0), f32(0), f32(1))
	glClearProc.Call(glColorBufferBit)

	glUseProgramProc.Call(s.program)
	glUniform4fProc.Call(s.locSelection, f32(u.Selection[0]), f32(u.Selection[1]), f32(u.Selection[2]), f32(u.Selection[3]))
	glUniform1fProc.Call(s.locWhite, f32(u.SDRWhiteRatio))
	hasSel := uintptr(0)
	if u.HasSelection {
		hasSel = 1
	}
	glUniform1iProc.Call(s.locHasSel, hasSel)
	glUniform1fProc.Call(s.locDim, f32(u.Dim))

	const stride = 4 * 4
	glBindBufferProc.Call(glArrayBuffer, s.vbo)
	glEnableVertexAttribArrayProc.Call(0)
	glVertexAttribPointerProc.Call(0, 2, glFloat, 0, stride, 0)
	glEnableVertexAttribArrayProc.Call(1)
	glVertexAttribPointerProc.Call(1, 2, glFloat, 0, stride, 2*4)

	glActiveTextureProc.Call(glTexture0)
	glBindTextureProc.Call(glTexture2D, s.texture)
	glUniform1iProc.Call(s.locTexture, 0)
	glDrawArraysProc.Call(glTriangleStrip, 0, 4)
	return nil
}

func (s *glSurface) Present() error {
	if ok, _, _ := eglSwapBuffersProc.Call(s.display, s.surface); ok != eglTrue {
		return fmt.Errorf("eglSwapBuffers: %w", eglLastError())
	}
	return nil
}

func (s *glSurface) SetCursor(c selection.CursorHint) { s.window.setCursor(c) }

func (s *glSurface) Closed() bool { return s.window.closed }

// Close releases GL objects, then EGL, then the window. Each handle is
// zeroed so a second call is a no-op.
func (s *glSurface) Close() {
	if s.program != 0 {
		glDeleteProgramProc.Call(s.program)
		s.program = 0
	}
	if s.texture != 0 {
		glDeleteTexturesProc.Call(1, uintptr(unsafe.Pointer(&s.texture)))
		s.texture = 0
	}
	if s.vbo != 0 {
		glDeleteBuffersProc.Call(1, uintptr(unsafe.Pointer(&s.vbo)))
		s.vbo = 0
	}
	if s.display != 0 {
		eglMakeCurrentProc.Call(s.display, 0, 0, 0)
		if s.surface != 0 {
			eglDestroySurfaceProc.Call(s.display, s.surface)
			s.surface = 0
		}
		if s.context != 0 {
			eglDestroyContextProc.Call(s.display, s.context)
			s.context = 0
		}
		eglTerminateProc.Call(s.display)
		s.display = 0
	}
	if s.window != nil {
		s.window.destroy()
	}
}
