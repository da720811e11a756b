//go:build windows

package preview

// EGL and OpenGL ES 3 entry points resolved from ANGLE. Float arguments are
// passed as their bit patterns; the Windows x64 call path mirrors the first
// four arguments into XMM registers.

import (
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modEGL  = windows.NewLazyDLL("libEGL.dll")
	modGLES = windows.NewLazyDLL("libGLESv2.dll")

	eglGetDisplayProc          = modEGL.NewProc("eglGetDisplay")
	eglInitializeProc          = modEGL.NewProc("eglInitialize")
	eglChooseConfigProc        = modEGL.NewProc("eglChooseConfig")
	eglCreateContextProc       = modEGL.NewProc("eglCreateContext")
	eglCreateWindowSurfaceProc = modEGL.NewProc("eglCreateWindowSurface")
	eglMakeCurrentProc         = modEGL.NewProc("eglMakeCurrent")
	eglSwapBuffersProc         = modEGL.NewProc("eglSwapBuffers")
	eglDestroySurfaceProc      = modEGL.NewProc("eglDestroySurface")
	eglDestroyContextProc      = modEGL.NewProc("eglDestroyContext")
	eglTerminateProc           = modEGL.NewProc("eglTerminate")
	eglGetErrorProc            = modEGL.NewProc("eglGetError")

	glCreateShaderProc            = modGLES.NewProc("glCreateShader")
	glShaderSourceProc            = modGLES.NewProc("glShaderSource")
	glCompileShaderProc           = modGLES.NewProc("glCompileShader")
	glGetShaderivProc             = modGLES.NewProc("glGetShaderiv")
	glGetShaderInfoLogProc        = modGLES.NewProc("glGetShaderInfoLog")
	glDeleteShaderProc            = modGLES.NewProc("glDeleteShader")
	glCreateProgramProc           = modGLES.NewProc("glCreateProgram")
	glAttachShaderProc            = modGLES.NewProc("glAttachShader")
	glLinkProgramProc             = modGLES.NewProc("glLinkProgram")
	glGetProgramivProc            = modGLES.NewProc("glGetProgramiv")
	glGetProgramInfoLogProc       = modGLES.NewProc("glGetProgramInfoLog")
	glDeleteProgramProc           = modGLES.NewProc("glDeleteProgram")
	glUseProgramProc              = modGLES.NewProc("glUseProgram")
	glGetUniformLocationProc      = modGLES.NewProc("glGetUniformLocation")
	glUniform4fProc               = modGLES.NewProc("glUniform4f")
	glUniform1fProc               = modGLES.NewProc("glUniform1f")
	glUniform1iProc               = modGLES.NewProc("glUniform1i")
	glGenBuffersProc              = modGLES.NewProc("glGenBuffers")
	glBindBufferProc              = modGLES.NewProc("glBindBuffer")
	glBufferDataProc              = modGLES.NewProc("glBufferData")
	glDeleteBuffersProc           = modGLES.NewProc("glDeleteBuffers")
	glGenTexturesProc             = modGLES.NewProc("glGenTextures")
	glBindTextureProc             = modGLES.NewProc("glBindTexture")
	glTexParameteriProc           = modGLES.NewProc("glTexParameteri")
	glTexImage2DProc              = modGLES.NewProc("glTexImage2D")
	glDeleteTexturesProc          = modGLES.NewProc("glDeleteTextures")
	glActiveTextureProc           = modGLES.NewProc("glActiveTexture")
	glEnableVertexAttribArrayProc = modGLES.NewProc("glEnableVertexAttribArray")
	glVertexAttribPointerProc     = modGLES.NewProc("glVertexAttribPointer")
	glViewportProc                = modGLES.NewProc("glViewport")
	glClearColorProc              = modGLES.NewProc("glClearColor")
	glClearProc                   = modGLES.NewProc("glClear")
	glDrawArraysProc              = modGLES.NewProc("glDrawArrays")
)

// EGL constants
const (
	eglDefaultDisplay          = 0
	eglNone                    = 0x3038
	eglAlphaSize               = 0x3021
	eglBlueSize                = 0x3022
	eglGreenSize               = 0x3023
	eglRedSize                 = 0x3024
	eglDepthSize               = 0x3025
	eglStencilSize             = 0x3026
	eglSurfaceType             = 0x3033
	eglRenderableType          = 0x3040
	eglContextClientVersion    = 0x3098
	eglWindowBit               = 0x0004
	eglOpenGLES3Bit            = 0x0040
	eglColorComponentTypeEXT   = 0x3339
	eglColorComponentTypeFloat = 0x333B
	eglDirectCompositionANGLE  = 0x33A5
	eglTrue                    = 1
)

// GL constants
const (
	glVertexShader   = 0x8B31
	glFragmentShader = 0x8B30
	glCompileStatus  = 0x8B81
	glLinkStatus     = 0x8B82
	glInfoLogLength  = 0x8B84
	glArrayBuffer    = 0x8892
	glStaticDraw     = 0x88E4
	glTexture2D      = 0x0DE1
	glTextureMinFilt = 0x2801
	glTextureMagFilt = 0x2800
	glTextureWrapS   = 0x2802
	glTextureWrapT   = 0x2803
	glLinear         = 0x2601
	glClampToEdge    = 0x812F
	glRGBA16F        = 0x881A
	glRGBA           = 0x1908
	glHalfFloat      = 0x140B
	glFloat          = 0x1406
	glColorBufferBit = 0x4000
	glTriangleStrip  = 0x0005
	glTexture0       = 0x84C0
)

func f32(v float32) uintptr { return uintptr(math.Float32bits(v)) }

func eglLastError() error {
	code, _, _ := eglGetErrorProc.Call()
	return fmt.Errorf("egl error %#x", code)
}

func glShaderInfoLog(shader uintptr, program bool) string {
	var n int32
	lenProc, logProc := glGetShaderivProc, glGetShaderInfoLogProc
	if program {
		lenProc, logProc = glGetProgramivProc, glGetProgramInfoLogProc
	}
	lenProc.Call(shader, glInfoLogLength, uintptr(unsafe.Pointer(&n)))
	if n <= 1 {
		return ""
	}
	buf := make([]byte, n)
	logProc.Call(shader, uintptr(n), 0, uintptr(unsafe.Pointer(&buf[0])))
	return string(buf[:n-1])
}

func glCompile(kind uintptr, src string) (uintptr, error) {
	sh, _, _ := glCreateShaderProc.Call(kind)
	if sh == 0 {
		return 0, fmt.Errorf("glCreateShader failed")
	}
	csrc, err := windows.BytePtrFromString(src)
	if err != nil {
		glDeleteShaderProc.Call(sh)
		return 0, err
	}
	length := int32(len(src))
	glShaderSourceProc.Call(sh, 1, uintptr(unsafe.Pointer(&csrc)), uintptr(unsafe.Pointer(&length)))
	glCompileShaderProc.Call(sh)
	var ok int32
	glGetShaderivProc.Call(sh, glCompileStatus, uintptr(unsafe.Pointer(&ok)))
	if ok == 0 {
		msg := glShaderInfoLog(sh, false)
		glDeleteShaderProc.Call(sh)
		return 0, fmt.Errorf("compile shader: %s", msg)
	}
	return sh, nil
}

func glLinkProgram(vsrc, fsrc string) (uintptr, error) {
	vs, err := glCompile(glVertexShader, vsrc)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer glDeleteShaderProc.Call(vs)
	fs, err := glCompile(glFragmentShader, fsrc)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer glDeleteShaderProc.Call(fs)

	prog, _, _ := glCreateProgramProc.Call()
	if prog == 0 {
		return 0, fmt.Errorf("glCreateProgram failed")
	}
	glAttachShaderProc.Call(prog, vs)
	glAttachShaderProc.Call(prog, fs)
	glLinkProgramProc.Call(prog)
	var ok int32
	glGetProgramivProc.Call(prog, glLinkStatus, uintptr(unsafe.Pointer(&ok)))
	if ok == 0 {
		msg := glShaderInfoLog(prog, true)
		glDeleteProgramProc.Call(prog)
		return 0, fmt.Errorf("link program: %s", msg)
	}
	return prog, nil
}

func glUniformLocation(prog uintptr, name string) uintptr {
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return ^uintptr(0)
	}
	loc, _, _ := glGetUniformLocationProc.Call(prog, uintptr(unsafe.Pointer(cname)))
	return loc
}
