package models

// Asset identifies one of the fixed set of instruments the tracker supports.
// Assets are partitioned into two valuation classes: market-priced assets are
// quoted in USD by an external venue, fixed-ILS assets are defined to be worth
// exactly 1 ILS per unit and never touch a price source or the FX rate.
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetSPY Asset = "SPY"

	AssetNadlan     Asset = "Nadlan"
	AssetPension    Asset = "Pension"
	AssetHishtalmut Asset = "Hishtalmut"
)

// allAssets is the canonical ordering used for catalog listings and holdings.
var allAssets = []Asset{
	AssetBTC,
	AssetETH,
	AssetSPY,
	AssetNadlan,
	AssetPension,
	AssetHishtalmut,
}

// AssetDisplayNames maps assets to human-readable names.
var AssetDisplayNames = map[Asset]string{
	AssetBTC:        "Bitcoin (BTC)",
	AssetETH:        "Ethereum (ETH)",
	AssetSPY:        "S&P 500 (SPY)",
	AssetNadlan:     "Nadlan",
	AssetPension:    "Pension",
	AssetHishtalmut: "Hishtalmut",
}

// AssetDescriptions maps assets to short descriptions for the catalog endpoint.
var AssetDescriptions = map[Asset]string{
	AssetBTC:        "Bitcoin - Leading cryptocurrency",
	AssetETH:        "Ethereum - Smart contract platform",
	AssetSPY:        "SPDR S&P 500 ETF Trust - Tracks S&P 500 index",
	AssetNadlan:     "Nadlan - Israeli real estate holding",
	AssetPension:    "Pension - Israeli pension fund",
	AssetHishtalmut: "Hishtalmut - Israeli keren hishtalmut fund",
}

// Assets returns all supported assets in canonical order.
func Assets() []Asset {
	out := make([]Asset, len(allAssets))
	copy(out, allAssets)
	return out
}

// Valid reports whether a is one of the supported assets.
func (a Asset) Valid() bool {
	_, ok := AssetDisplayNames[a]
	return ok
}

// FixedILS reports whether the asset belongs to the fixed-ILS valuation class.
func (a Asset) FixedILS() bool {
	switch a {
	case AssetNadlan, AssetPension, AssetHishtalmut:
		return true
	default:
		return false
	}
}

// Crypto reports whether the asset is a cryptocurrency traded on Binance.
func (a Asset) Crypto() bool {
	return a == AssetBTC || a == AssetETH
}
