package domain

import (
	"net/url"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// HandlePlaceholder is substituted with an artist's handle in link templates.
const HandlePlaceholder = "%@"

// Platform types used to group links on a profile.
const (
	PlatformTypeSocial = "social"
	PlatformTypeWeb3   = "web3"
	PlatformTypeListen = "listen"
)

// LinkConfig is one row of the platform catalog (the urlmap table).
type LinkConfig struct {
	SiteName         string      `json:"siteName" db:"site_name"`
	CardPlatformName string      `json:"cardPlatformName" db:"card_platform_name"`
	CardDescription  string      `json:"cardDescription" db:"card_description"`
	AppStringFormat  string      `json:"appStringFormat" db:"app_string_format"`
	Example          string      `json:"example" db:"example"`
	Regex            string      `json:"regex" db:"regex"`
	CardOrder        int         `json:"cardOrder" db:"card_order"`
	PlatformTypes    StringSlice `json:"platformTypes" db:"platform_types"`
	IsEnabled        bool        `json:"isEnabled" db:"is_enabled"`
	IsWeb3Site       bool        `json:"isWeb3Site" db:"is_web3_site"`
	SiteImage        string      `json:"siteImage" db:"site_image"`
}

// ArtistLink is a platform config resolved against one artist's handle.
type ArtistLink struct {
	SiteName         string      `json:"siteName"`
	CardPlatformName string      `json:"cardPlatformName"`
	Description      string      `json:"description"`
	URL              string      `json:"url"`
	Handle           string      `json:"handle"`
	SiteImage        string      `json:"siteImage,omitempty"`
	PlatformTypes    StringSlice `json:"platformTypes"`
	CardOrder        int         `json:"cardOrder"`
}

// Resolve substitutes handle into the config's templates. The handle is path-escaped
// inside the URL and used verbatim in the description.
func (c LinkConfig) Resolve(handle string) ArtistLink {
	return ArtistLink{
		SiteName:         c.SiteName,
		CardPlatformName: c.CardPlatformName,
		Description:      strings.ReplaceAll(c.CardDescription, HandlePlaceholder, handle),
		URL:              strings.ReplaceAll(c.AppStringFormat, HandlePlaceholder, url.PathEscape(handle)),
		Handle:           handle,
		SiteImage:        c.SiteImage,
		PlatformTypes:    c.PlatformTypes,
		CardOrder:        c.CardOrder,
	}
}

// SortLinkConfigs orders configs by card order, then site name.
func SortLinkConfigs(configs []LinkConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].CardOrder != configs[j].CardOrder {
			return configs[i].CardOrder < configs[j].CardOrder
		}
		return configs[i].SiteName < configs[j].SiteName
	})
}

// Platform binds a site name to the Artist field that stores its handle.
type Platform struct {
	field     func(a *Artist) **string
	normalize func(string) string
	SiteName  string
}

// Get returns the artist's handle on this platform, if any.
func (p Platform) Get(a *Artist) (string, bool) {
	v := *p.field(a)
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// Set stores handle on the artist; an empty handle clears the column.
func (p Platform) Set(a *Artist, handle string) {
	if handle == "" {
		*p.field(a) = nil
		return
	}
	h := handle
	*p.field(a) = &h
}

// Column is the artists table column holding this platform's handle.
func (p Platform) Column() string {
	return p.SiteName
}

// Normalize canonicalizes a handle extracted from a URL.
func (p Platform) Normalize(handle string) string {
	handle = strings.TrimSpace(handle)
	if p.normalize != nil {
		return p.normalize(handle)
	}
	return handle
}

// Same reports whether two handles name the same account once normalized. Rows
// written before a platform gained a normalizer may still hold the raw form.
func (p Platform) Same(a, b string) bool {
	return p.Normalize(a) == p.Normalize(b)
}

// Handles on platforms with a lower-casing normalizer are case-insensitive upstream.
var platforms = []Platform{
	{SiteName: "spotify", field: func(a *Artist) **string { return &a.Spotify }},
	{SiteName: "instagram", field: func(a *Artist) **string { return &a.Instagram }, normalize: strings.ToLower},
	{SiteName: "x", field: func(a *Artist) **string { return &a.X }, normalize: strings.ToLower},
	{SiteName: "youtube", field: func(a *Artist) **string { return &a.YouTube }, normalize: strings.ToLower},
	{SiteName: "soundcloud", field: func(a *Artist) **string { return &a.SoundCloud }, normalize: strings.ToLower},
	{SiteName: "tiktok", field: func(a *Artist) **string { return &a.TikTok }, normalize: strings.ToLower},
	{SiteName: "facebook", field: func(a *Artist) **string { return &a.Facebook }},
	{SiteName: "bandcamp", field: func(a *Artist) **string { return &a.Bandcamp }, normalize: strings.ToLower},
	{SiteName: "audius", field: func(a *Artist) **string { return &a.Audius }},
	{SiteName: "zora", field: func(a *Artist) **string { return &a.Zora }},
	{SiteName: "catalog", field: func(a *Artist) **string { return &a.Catalog }},
	{SiteName: "soundxyz", field: func(a *Artist) **string { return &a.SoundXYZ }},
	{SiteName: "lens", field: func(a *Artist) **string { return &a.Lens }},
	{SiteName: "farcaster", field: func(a *Artist) **string { return &a.Farcaster }},
	{SiteName: "ens", field: func(a *Artist) **string { return &a.ENS }, normalize: strings.ToLower},
	{SiteName: "wallet", field: func(a *Artist) **string { return &a.Wallet }, normalize: NormalizeWallet},
}

var platformIndex = func() map[string]Platform {
	m := make(map[string]Platform, len(platforms))
	for _, p := range platforms {
		m[p.SiteName] = p
	}
	return m
}()

// LookupPlatform finds the platform registered under siteName.
func LookupPlatform(siteName string) (Platform, bool) {
	p, ok := platformIndex[strings.ToLower(strings.TrimSpace(siteName))]
	return p, ok
}

// NormalizeWallet returns the EIP-55 checksummed form of a hex address, or the
// input unchanged when it is not one.
func NormalizeWallet(addr string) string {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

// DefaultLinkConfigs is the built-in platform catalog seeded into the urlmap table.
func DefaultLinkConfigs() []LinkConfig {
	listen := StringSlice{PlatformTypeListen}
	social := StringSlice{PlatformTypeSocial}
	web3 := StringSlice{PlatformTypeWeb3}

	return []LinkConfig{
		{
			SiteName: "spotify", CardPlatformName: "Spotify", CardDescription: "Listen on Spotify",
			AppStringFormat: "https://open.spotify.com/artist/%@",
			Example:         "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb",
			Regex:           `https://open\.spotify\.com/artist/([A-Za-z0-9]{22})(?:\?\S*)?`,
			CardOrder:       1, PlatformTypes: listen, IsEnabled: true, SiteImage: "/siteIcons/spotify_icon.svg",
		},
		{
			SiteName: "instagram", CardPlatformName: "Instagram", CardDescription: "@%@ on Instagram",
			AppStringFormat: "https://instagram.com/%@",
			Example:         "https://instagram.com/radiohead",
			Regex:           `https://(?:www\.)?instagram\.com/([A-Za-z0-9_.]{1,30})/?`,
			CardOrder:       2, PlatformTypes: social, IsEnabled: true, SiteImage: "/siteIcons/instagram_icon.svg",
		},
		{
			SiteName: "x", CardPlatformName: "X", CardDescription: "@%@ on X",
			AppStringFormat: "https://x.com/%@",
			Example:         "https://x.com/radiohead",
			Regex:           `https://(?:www\.)?(?:x|twitter)\.com/([A-Za-z0-9_]{1,15})/?`,
			CardOrder:       3, PlatformTypes: social, IsEnabled: true, SiteImage: "/siteIcons/x_icon.svg",
		},
		{
			SiteName: "youtube", CardPlatformName: "YouTube", CardDescription: "@%@ on YouTube",
			AppStringFormat: "https://www.youtube.com/@%@",
			Example:         "https://www.youtube.com/@radiohead",
			Regex:           `https://(?:www\.|m\.)?youtube\.com/@([A-Za-z0-9_.-]{3,30})/?`,
			CardOrder:       4, PlatformTypes: StringSlice{PlatformTypeListen, PlatformTypeSocial}, IsEnabled: true,
			SiteImage: "/siteIcons/youtube_icon.svg",
		},
		{
			SiteName: "soundcloud", CardPlatformName: "SoundCloud", CardDescription: "Listen to %@ on SoundCloud",
			AppStringFormat: "https://soundcloud.com/%@",
			Example:         "https://soundcloud.com/radiohead",
			Regex:           `https://(?:www\.|m\.)?soundcloud\.com/([a-z0-9_-]{3,25})/?`,
			CardOrder:       5, PlatformTypes: listen, IsEnabled: true, SiteImage: "/siteIcons/soundcloud_icon.svg",
		},
		{
			SiteName: "tiktok", CardPlatformName: "TikTok", CardDescription: "@%@ on TikTok",
			AppStringFormat: "https://www.tiktok.com/@%@",
			Example:         "https://www.tiktok.com/@radiohead",
			Regex:           `https://(?:www\.)?tiktok\.com/@([A-Za-z0-9_.]{2,24})/?`,
			CardOrder:       6, PlatformTypes: social, IsEnabled: true, SiteImage: "/siteIcons/tiktok_icon.svg",
		},
		{
			SiteName: "facebook", CardPlatformName: "Facebook", CardDescription: "%@ on Facebook",
			AppStringFormat: "https://www.facebook.com/%@",
			Example:         "https://www.facebook.com/radiohead",
			Regex:           `https://(?:www\.|m\.)?facebook\.com/([A-Za-z0-9.]{5,50})/?`,
			CardOrder:       7, PlatformTypes: social, IsEnabled: true, SiteImage: "/siteIcons/facebook_icon.svg",
		},
		{
			SiteName: "bandcamp", CardPlatformName: "Bandcamp", CardDescription: "Buy %@ on Bandcamp",
			AppStringFormat: "https://%@.bandcamp.com",
			Example:         "https://radiohead.bandcamp.com",
			Regex:           `https://([a-z0-9-]{1,63})\.bandcamp\.com/?`,
			CardOrder:       8, PlatformTypes: listen, IsEnabled: true, SiteImage: "/siteIcons/bandcamp_icon.svg",
		},
		{
			SiteName: "audius", CardPlatformName: "Audius", CardDescription: "Listen to %@ on Audius",
			AppStringFormat: "https://audius.co/%@",
			Example:         "https://audius.co/radiohead",
			Regex:           `https://(?:www\.)?audius\.co/([A-Za-z0-9_]{1,30})/?`,
			CardOrder:       9, PlatformTypes: StringSlice{PlatformTypeListen, PlatformTypeWeb3}, IsEnabled: true,
			IsWeb3Site: true, SiteImage: "/siteIcons/audius_icon.svg",
		},
		{
			SiteName: "zora", CardPlatformName: "Zora", CardDescription: "Collect %@ on Zora",
			AppStringFormat: "https://zora.co/@%@",
			Example:         "https://zora.co/@radiohead",
			Regex:           `https://(?:www\.)?zora\.co/@?([A-Za-z0-9_.-]{1,40})/?`,
			CardOrder:       10, PlatformTypes: web3, IsEnabled: true, IsWeb3Site: true, SiteImage: "/siteIcons/zora_icon.svg",
		},
		{
			SiteName: "catalog", CardPlatformName: "Catalog", CardDescription: "Collect %@ on Catalog",
			AppStringFormat: "https://catalog.works/%@",
			Example:         "https://catalog.works/radiohead",
			Regex:           `https://(?:beta\.)?catalog\.works/([a-z0-9_-]{1,40})/?`,
			CardOrder:       11, PlatformTypes: web3, IsEnabled: true, IsWeb3Site: true, SiteImage: "/siteIcons/catalog_icon.svg",
		},
		{
			SiteName: "soundxyz", CardPlatformName: "Sound", CardDescription: "Collect %@ on Sound",
			AppStringFormat: "https://www.sound.xyz/%@",
			Example:         "https://www.sound.xyz/radiohead",
			Regex:           `https://(?:www\.)?sound\.xyz/([A-Za-z0-9_-]{1,40})/?`,
			CardOrder:       12, PlatformTypes: web3, IsEnabled: true, IsWeb3Site: true, SiteImage: "/siteIcons/sound_icon.svg",
		},
		{
			SiteName: "lens", CardPlatformName: "Lens", CardDescription: "%@ on Lens",
			AppStringFormat: "https://hey.xyz/u/%@",
			Example:         "https://hey.xyz/u/radiohead",
			Regex:           `https://(?:www\.)?hey\.xyz/u/([a-z0-9_]{2,31})/?`,
			CardOrder:       13, PlatformTypes: StringSlice{PlatformTypeSocial, PlatformTypeWeb3}, IsEnabled: true,
			IsWeb3Site: true, SiteImage: "/siteIcons/lens_icon.svg",
		},
		{
			SiteName: "farcaster", CardPlatformName: "Farcaster", CardDescription: "%@ on Farcaster",
			AppStringFormat: "https://warpcast.com/%@",
			Example:         "https://warpcast.com/radiohead",
			Regex:           `https://(?:www\.)?warpcast\.com/([a-z0-9][a-z0-9-]{0,15})/?`,
			CardOrder:       14, PlatformTypes: StringSlice{PlatformTypeSocial, PlatformTypeWeb3}, IsEnabled: true,
			IsWeb3Site: true, SiteImage: "/siteIcons/farcaster_icon.svg",
		},
		{
			SiteName: "ens", CardPlatformName: "ENS", CardDescription: "%@",
			AppStringFormat: "https://app.ens.domains/%@",
			Example:         "https://app.ens.domains/radiohead.eth",
			Regex:           `https://app\.ens\.domains/([a-z0-9-]+\.eth)/?`,
			CardOrder:       15, PlatformTypes: web3, IsEnabled: true, IsWeb3Site: true, SiteImage: "/siteIcons/ens_icon.svg",
		},
		{
			SiteName: "wallet", CardPlatformName: "Wallet", CardDescription: "%@",
			AppStringFormat: "https://etherscan.io/address/%@",
			Example:         "https://etherscan.io/address/0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			Regex:           `https://(?:www\.)?etherscan\.io/address/(0x[a-fA-F0-9]{40})/?`,
			CardOrder:       16, PlatformTypes: web3, IsEnabled: true, IsWeb3Site: true, SiteImage: "/siteIcons/ethereum_icon.svg",
		},
	}
}
