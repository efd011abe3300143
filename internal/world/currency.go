package world

import "github.com/meshbbs/core/internal/config"

// CurrencyRatios holds the base-unit conversion ratios for the
// currently-configured currency mode (§3, §6).
type CurrencyRatios struct {
	Mode             config.CurrencyMode
	DecimalToCopper  int64
	PlatinumToCopper int64
	GoldToCopper     int64
	SilverToCopper   int64
}

func RatiosFromConfig(cfg config.WorldConfig) CurrencyRatios {
	return CurrencyRatios{
		Mode:             cfg.CurrencyMode,
		DecimalToCopper:  cfg.DecimalToCopper,
		PlatinumToCopper: cfg.PlatinumToCopper,
		GoldToCopper:     cfg.GoldToCopper,
		SilverToCopper:   cfg.SilverToCopper,
	}
}

// FormatWallet renders base units in the active currency mode's
// display form.
func (r CurrencyRatios) FormatWallet(baseUnits int64) string {
	switch r.Mode {
	case config.CurrencyMultiTier:
		return formatMultiTier(baseUnits, r)
	default:
		return formatDecimal(baseUnits, r)
	}
}

func formatDecimal(baseUnits int64, r CurrencyRatios) string {
	minor := r.DecimalToCopper
	if minor <= 0 {
		minor = 1
	}
	whole := baseUnits / minor
	frac := baseUnits % minor
	if frac == 0 {
		return itoa(whole) + "cr"
	}
	return itoa(whole) + "." + itoa(frac) + "cr"
}

func formatMultiTier(baseUnits int64, r CurrencyRatios) string {
	remaining := baseUnits
	pp := remaining / nonZero(r.PlatinumToCopper)
	remaining %= nonZero(r.PlatinumToCopper)
	gp := remaining / nonZero(r.GoldToCopper)
	remaining %= nonZero(r.GoldToCopper)
	sp := remaining / nonZero(r.SilverToCopper)
	cp := remaining % nonZero(r.SilverToCopper)

	out := ""
	if pp > 0 {
		out += itoa(pp) + "pp"
	}
	if gp > 0 {
		out += itoa(gp) + "gp"
	}
	if sp > 0 {
		out += itoa(sp) + "sp"
	}
	if cp > 0 || out == "" {
		out += itoa(cp) + "cp"
	}
	return out
}

func nonZero(v int64) int64 {
	if v <= 0 {
		return 1
	}
	return v
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
