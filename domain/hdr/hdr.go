package hdr

import (
	"errors"
	"log/slog"
)

// ErrUnsupported is returned by queriers on platforms without the display APIs.
var ErrUnsupported = errors.New("hdr: display query unsupported on this platform")

// scRGBReferenceNits is the luminance of linear value 1.0 in scRGB.
const scRGBReferenceNits = 80.0

// DisplayHdrInfo holds static luminance characteristics of a display, in nits.
type DisplayHdrInfo struct {
	SDRWhiteLevel         float32
	PeakBrightness        float32
	MinLuminance          float32
	MaxLuminance          float32
	MaxFullFrameLuminance float32
}

// Fallback returns the values used when the platform cannot be queried.
func Fallback() DisplayHdrInfo {
	return DisplayHdrInfo{
		SDRWhiteLevel:         200,
		PeakBrightness:        1000,
		MinLuminance:          0.001,
		MaxLuminance:          1000,
		MaxFullFrameLuminance: 600,
	}
}

// SDRWhiteRatio is the linear scRGB value that SDR white maps to.
func (i DisplayHdrInfo) SDRWhiteRatio() float32 {
	return i.SDRWhiteLevel / scRGBReferenceNits
}

// Luminance is the subset of an output descriptor the provider consumes.
type Luminance struct {
	MinLuminance          float32
	MaxLuminance          float32
	MaxFullFrameLuminance float32
}

// Querier performs the platform display queries.
type Querier interface {
	// OutputLuminance reads the primary output's luminance descriptor.
	OutputLuminance() (Luminance, error)
	// SDRWhiteLevelRaw reads the SDR white level multiplier (1000 == 80 nits).
	SDRWhiteLevelRaw() (uint32, error)
}

// Provider resolves DisplayHdrInfo, keeping fallback values for anything the
// querier cannot answer.
type Provider struct {
	Querier Querier
	Logger  *slog.Logger
}

// NewProvider returns a provider backed by the platform querier.
func NewProvider(logger *slog.Logger) *Provider {
	return &Provider{Querier: platformQuerier{}, Logger: logger}
}

// GetPrimaryDisplayHdrInfo never fails; query errors only leave defaults in place.
func (p *Provider) GetPrimaryDisplayHdrInfo() DisplayHdrInfo {
	info := Fallback()
	if p == nil || p.Querier == nil {
		return info
	}

	if lum, err := p.Querier.OutputLuminance(); err != nil {
		p.debug("hdr output descriptor unavailable", err)
	} else {
		info.MaxLuminance = lum.MaxLuminance
		info.MinLuminance = lum.MinLuminance
		info.PeakBrightness = lum.MaxLuminance
		info.MaxFullFrameLuminance = lum.MaxFullFrameLuminance
	}

	if raw, err := p.Querier.SDRWhiteLevelRaw(); err != nil {
		p.debug("hdr sdr white level unavailable", err)
	} else if raw > 0 {
		info.SDRWhiteLevel = SDRWhiteFromRaw(raw)
	}

	if p.Logger != nil {
		p.Logger.Info("display hdr info",
			"sdr_white", info.SDRWhiteLevel,
			"peak", info.PeakBrightness,
			"min", info.MinLuminance,
			"max_full_frame", info.MaxFullFrameLuminance,
		)
	}
	return info
}

// SDRWhiteFromRaw converts the display-config multiplier to nits.
func SDRWhiteFromRaw(raw uint32) float32 {
	return float32(float64(raw) / 1000.0 * scRGBReferenceNits)
}

func (p *Provider) debug(msg string, err error) {
	if p.Logger != nil {
		p.Logger.Debug(msg, "error", err)
	}
}
