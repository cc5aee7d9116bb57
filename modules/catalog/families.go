package catalog

import (
	"slices"
	"strings"
)

// Family identifies a group of related service pages.
type Family string

const (
	SEO     Family = "seo"
	PaidAds Family = "paidAds"
	Social  Family = "social"
	Content Family = "content"
	App     Family = "app"
	Hosting Family = "hosting"
	WebDev  Family = "webDev"
)

// FamilyInfo describes a family's URL space and sub-services.
type FamilyInfo struct {
	Key         Family   `json:"key"`
	Label       string   `json:"label"`
	BasePath    string   `json:"basePath"`
	DefaultSlug string   `json:"defaultSlug"`
	Slugs       []string `json:"slugs"`

	labels      map[string]string
	description string
}

// SlugLabel returns the display label for a sub-service slug.
func (f FamilyInfo) SlugLabel(slug string) (string, bool) {
	l, ok := f.labels[slug]
	return l, ok
}

// HasSlug reports whether slug is one of the family's sub-services.
func (f FamilyInfo) HasSlug(slug string) bool {
	return slices.Contains(f.Slugs, slug)
}

type labelled struct {
	slug, label string
}

func newFamily(key Family, label, basePath, defaultSlug, description string, entries ...labelled) FamilyInfo {
	f := FamilyInfo{
		Key:         key,
		Label:       label,
		BasePath:    basePath,
		DefaultSlug: defaultSlug,
		labels:      make(map[string]string, len(entries)),
		description: description,
	}
	for _, e := range entries {
		f.Slugs = append(f.Slugs, e.slug)
		f.labels[e.slug] = e.label
	}
	return f
}

// Description placeholders: {service}, {serviceLower}, {location},
// {region} (", <region>" or empty) and {brand}.
var families = []FamilyInfo{
	newFamily(SEO, "SEO", "/seo", "search-engine-optimisation",
		"Get expert {serviceLower} in {location}{region}. Partner with {brand} to rank higher, get found faster, and grow locally.",
		labelled{"search-engine-optimisation", "Search Engine Optimisation"},
		labelled{"local-seo", "Local SEO"},
		labelled{"seo-audits", "SEO Audits"},
		labelled{"small-business-seo", "Small Business SEO"},
		labelled{"ecommerce-seo", "eCommerce SEO"},
		labelled{"wordpress-seo", "WordPress SEO"},
		labelled{"shopify-seo", "Shopify SEO"},
		labelled{"ai-seo", "AI SEO"},
	),
	newFamily(PaidAds, "Paid Advertising", "/paid-advertisement", "google-ads",
		"Run high-performing {serviceLower} in {location}{region}. Work with {brand} to capture demand, improve ROAS, and scale efficiently.",
		labelled{"paid-advertisement", "Paid Advertising"},
		labelled{"google-ads", "Google Ads"},
		labelled{"google-shopping-ads", "Google Shopping Ads"},
		labelled{"youtube-ads", "YouTube Ads"},
		labelled{"google-remarketing", "Google Remarketing"},
		labelled{"paid-social", "Paid Social"},
		labelled{"meta-ads", "Meta Ads"},
		labelled{"linkedin-ads", "LinkedIn Ads"},
		labelled{"google-display-ads", "Google Display Ads"},
		labelled{"pay-per-click", "Pay Per Click"},
		labelled{"bing-ads", "Bing Ads"},
		labelled{"facebook-ads", "Facebook Ads"},
		labelled{"instagram-ads", "Instagram Ads"},
		labelled{"linkedin-ads-management", "LinkedIn Ads Management"},
		labelled{"tiktok-ads", "TikTok Ads"},
		labelled{"snapchat-ads", "Snapchat Ads"},
		labelled{"twitter-x-ads", "Twitter/X Ads"},
		labelled{"pinterest-ads", "Pinterest Ads"},
	),
	newFamily(Social, "Social Media Marketing", "/social-media-marketing", "social-media-marketing",
		"{service} programs tailored for {location}{region}. Build platform-native content, grow community, and convert attention into demand with {brand}.",
		labelled{"social-media-marketing", "Social Media Marketing"},
		labelled{"social-media-management", "Social Media Management"},
		labelled{"facebook-marketing", "Facebook Marketing"},
		labelled{"linkedin-marketing", "LinkedIn Marketing"},
		labelled{"instagram-marketing", "Instagram Marketing"},
		labelled{"tiktok-marketing", "TikTok Marketing"},
		labelled{"youtube-community-marketing", "YouTube Community Marketing"},
	),
	newFamily(Content, "Content Marketing", "/content-marketing", "content-marketing",
		"{service} solutions tailored for {location}{region}. Work with {brand} to plan, create, and design content that converts.",
		labelled{"content-marketing", "Content Marketing"},
		labelled{"content-strategy", "Content Strategy"},
		labelled{"copywriting", "Copywriting"},
		labelled{"email-marketing", "Email Marketing"},
		labelled{"graphic-designing", "Graphic Designing"},
		labelled{"content-production", "Content Production"},
		labelled{"content-distribution", "Content Distribution"},
	),
	newFamily(App, "App Development", "/app-development", "app-development",
		"{service} experts in {location}{region}. Partner with {brand} to design, build, and scale custom applications tailored to your market.",
		labelled{"app-development", "App Development"},
		labelled{"ios-app-development", "iOS App Development"},
		labelled{"android-app-development", "Android App Development"},
		labelled{"react-native-development", "React Native Development"},
		labelled{"flutter-app-development", "Flutter App Development"},
		labelled{"software-development", "Software Development"},
		labelled{"progressive-web-apps", "Progressive Web Apps"},
	),
	newFamily(Hosting, "Hosting & IT Security", "/hosting-it-security", "hosting-it-security",
		"{service} solutions tailored for {location}{region}. Secure, high-performance hosting and IT security delivered by {brand}.",
		labelled{"hosting-it-security", "Hosting & IT Security"},
		labelled{"web-hosting", "Web Hosting"},
		labelled{"wordpress-hosting", "WordPress Hosting"},
		labelled{"cloud-hosting", "Cloud Hosting"},
		labelled{"dedicated-hosting", "Dedicated Hosting"},
		labelled{"managed-it-security", "Managed IT Security"},
	),
	newFamily(WebDev, "Web Development", "/web-development", "web-development",
		"{service} solutions tailored for {location}{region}. Build high-performing websites with {brand}'s expert team.",
		labelled{"web-development", "Web Development"},
		labelled{"website-development", "Website Development"},
		labelled{"web-app-development", "Web App Development"},
		labelled{"ecommerce-development", "eCommerce Development"},
		labelled{"landing-page-development", "Landing Page Development"},
		labelled{"cms-development", "CMS Development"},
		labelled{"headless-development", "Headless Development"},
	),
}

// Families returns every family in a stable order.
func Families() []FamilyInfo {
	return slices.Clone(families)
}

// LookupFamily returns the family registered under key.
func LookupFamily(key Family) (FamilyInfo, bool) {
	for _, f := range families {
		if f.Key == key {
			return f, true
		}
	}
	return FamilyInfo{}, false
}

// ParseFamily accepts a family key ("paidAds", case-insensitive) or its
// base path segment ("paid-advertisement").
func ParseFamily(s string) (Family, bool) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	for _, f := range families {
		if strings.EqualFold(string(f.Key), s) || strings.TrimPrefix(f.BasePath, "/") == s {
			return f.Key, true
		}
	}
	return "", false
}
