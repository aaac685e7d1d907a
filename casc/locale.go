package casc

// Locale is a single bit in a root-table locale mask.
type Locale uint32

// The fixed locale enumeration CASC root blocks are tagged with.
const (
	LocaleEnUS Locale = 0x02
	LocaleKoKR Locale = 0x04
	LocaleFrFR Locale = 0x10
	LocaleDeDE Locale = 0x20
	LocaleZhCN Locale = 0x40
	LocaleEsES Locale = 0x80
	LocaleZhTW Locale = 0x100
	LocaleEnGB Locale = 0x200
	LocaleEnCN Locale = 0x400
	LocaleEnTW Locale = 0x800
	LocaleEsMX Locale = 0x1000
	LocaleRuRU Locale = 0x2000
	LocalePtBR Locale = 0x4000
	LocaleItIT Locale = 0x8000
	LocalePtPT Locale = 0x10000
	LocaleEnSG Locale = 0x20000000
	LocalePlPL Locale = 0x40000000

	// LocaleAll admits every locale variant of an asset.
	LocaleAll Locale = 0xFFFFFFFF
)
