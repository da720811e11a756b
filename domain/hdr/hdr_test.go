package hdr

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

type fakeQuerier struct {
	lum    Luminance
	lumErr error
	raw    uint32
	rawErr error
}

func (f fakeQuerier) OutputLuminance() (Luminance, error) { return f.lum, f.lumErr }
func (f fakeQuerier) SDRWhiteLevelRaw() (uint32, error)   { return f.raw, f.rawErr }

func TestProvider_AllQueriesFailReturnsFallback(t *testing.T) {
	boom := errors.New("boom")
	p := &Provider{Querier: fakeQuerier{lumErr: boom, rawErr: boom}, Logger: discardLogger}
	got := p.GetPrimaryDisplayHdrInfo()
	if got != Fallback() {
		t.Fatalf("expected fallback %+v, got %+v", Fallback(), got)
	}
}

func TestProvider_NilQuerierReturnsFallback(t *testing.T) {
	var p *Provider
	if got := p.GetPrimaryDisplayHdrInfo(); got != Fallback() {
		t.Fatalf("expected fallback from nil provider, got %+v", got)
	}
	if got := (&Provider{}).GetPrimaryDisplayHdrInfo(); got != Fallback() {
		t.Fatalf("expected fallback from empty provider, got %+v", got)
	}
}

func TestProvider_DescriptorOnly(t *testing.T) {
	p := &Provider{
		Querier: fakeQuerier{
			lum:    Luminance{MinLuminance: 0.01, MaxLuminance: 1499, MaxFullFrameLuminance: 799},
			rawErr: ErrUnsupported,
		},
		Logger: discardLogger,
	}
	got := p.GetPrimaryDisplayHdrInfo()
	if got.MaxLuminance != 1499 || got.PeakBrightness != 1499 {
		t.Fatalf("peak should follow max luminance: %+v", got)
	}
	if got.MinLuminance != 0.01 || got.MaxFullFrameLuminance != 799 {
		t.Fatalf("descriptor values not applied: %+v", got)
	}
	if got.SDRWhiteLevel != 200 {
		t.Fatalf("sdr white should keep default, got %v", got.SDRWhiteLevel)
	}
}

func TestProvider_SDRWhiteOnly(t *testing.T) {
	p := &Provider{Querier: fakeQuerier{lumErr: ErrUnsupported, raw: 2500}, Logger: discardLogger}
	got := p.GetPrimaryDisplayHdrInfo()
	if got.SDRWhiteLevel != 200 {
		t.Fatalf("raw 2500 should be 200 nits, got %v", got.SDRWhiteLevel)
	}
	want := Fallback()
	want.SDRWhiteLevel = got.SDRWhiteLevel
	if got != want {
		t.Fatalf("luminance fields should keep defaults: %+v", got)
	}
}

func TestProvider_ZeroRawKeepsDefault(t *testing.T) {
	p := &Provider{Querier: fakeQuerier{lumErr: ErrUnsupported, raw: 0}, Logger: discardLogger}
	if got := p.GetPrimaryDisplayHdrInfo(); got.SDRWhiteLevel != 200 {
		t.Fatalf("zero raw must not override default, got %v", got.SDRWhiteLevel)
	}
}

func TestSDRWhiteFromRaw(t *testing.T) {
	cases := []struct {
		raw  uint32
		want float32
	}{
		{1000, 80},
		{2500, 200},
		{3000, 240},
		{5000, 400},
	}
	for _, c := range cases {
		if got := SDRWhiteFromRaw(c.raw); got != c.want {
			t.Fatalf("SDRWhiteFromRaw(%d)=%v want %v", c.raw, got, c.want)
		}
	}
}

func TestSDRWhiteRatio(t *testing.T) {
	if got := Fallback().SDRWhiteRatio(); got != 2.5 {
		t.Fatalf("fallback ratio=%v want 2.5", got)
	}
}
