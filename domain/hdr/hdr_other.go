//go:build !windows

package hdr

type platformQuerier struct{}

func (platformQuerier) OutputLuminance() (Luminance, error) { return Luminance{}, ErrUnsupported }
func (platformQuerier) SDRWhiteLevelRaw() (uint32, error)   { return 0, ErrUnsupported }
