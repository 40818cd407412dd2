// Package key defines the canonical key model for keypulse.
//
// Raw host key events arrive with browser/OS-specific labels, codes, and
// modifier flags. This package normalizes them into canonical, stable key
// identifiers: shifted symbols resolve to their base characters, numeric-pad
// keys resolve through digit or navigation tables depending on NumLock,
// legacy aliases collapse to their modern names, and single uppercase
// letters fold to lowercase.
//
// All normalization functions are pure and never fail; malformed input
// degrades to best-effort pass-through.
package key
