package revalidate

// Target is the set of site paths a document change affects. A layout
// target affects every page.
type Target struct {
	Paths  []string
	Layout bool
}

var fixedPaths = map[string]string{}

// sectionPaths maps document types whose pages have slug children to the
// section path.
var sectionPaths = map[string]string{
	"portfolioPageSeo":           "/portfolio",
	"portfolioHero":              "/portfolio",
	"portfolioProject":           "/portfolio",
	"resourcesPageSeo":           "/resources",
	"resourcesHero":              "/resources",
	"resourcesArticles":          "/resources",
	"seoPage":                    "/seo",
	"paidAdsPage":                "/paid-advertisement",
	"socialMediaPage":            "/social-media-marketing",
	"contentMarketingPage":       "/content-marketing",
	"webDevelopmentPage":         "/web-development",
	"appDevelopmentPage":         "/app-development",
	"hostingItSecurityPage":      "/hosting-it-security",
	"aiAutomationPage":           "/ai-automation",
	"dataAnalyticsPage":          "/data-analytics",
	"industriesPage":             "/industry",
	"professionalsMarketingPage": "/professionals-marketing-agency",
}

var layoutTypes = map[string]bool{
	"siteNavbar":  true,
	"siteFooter":  true,
	"seoSettings": true,
}

func init() {
	for _, t := range []string{
		"homeHero", "homeBrandInfo", "homeServices", "homeTechStack", "homeContent", "homeProcess",
		"homeTrustedBrands", "homeTestimonials", "homeBookACall", "homeCaseStudy", "homeApart", "homePageSeo",
	} {
		fixedPaths[t] = "/"
	}
	for _, t := range []string{
		"aboutPageSeo", "aboutHero", "aboutOrigins", "aboutValues", "aboutAchievements", "aboutTeam",
	} {
		fixedPaths[t] = "/about"
	}
	for _, t := range []string{
		"marketingAgencySettings", "marketingAgencyHero", "marketingAgencyForm", "marketingAgencyIntro",
		"marketingAgencyPainPoints", "marketingAgencyProcess", "marketingAgencyKeyBenefits",
		"marketingAgencyFeatures", "marketingAgencyFaq", "marketingAgencyHowFast",
	} {
		fixedPaths[t] = "/marketing-agency"
	}
}

// Resolve returns the target for a document. Unknown types affect the
// whole site.
func Resolve(doc Document) (Target, bool) {
	if layoutTypes[doc.Type] {
		return Target{Paths: []string{"/"}, Layout: true}, true
	}
	if p, ok := fixedPaths[doc.Type]; ok {
		return Target{Paths: []string{p}}, true
	}
	if p, ok := sectionPaths[doc.Type]; ok {
		paths := []string{p}
		if doc.Slug != "" {
			paths = append(paths, p+"/"+doc.Slug)
		}
		return Target{Paths: paths}, true
	}
	return Target{Paths: []string{"/"}, Layout: true}, false
}

// CachePrefixes maps the target onto page cache key prefixes. A section
// path covers every cached page beneath it; the home page is never cached
// on its own.
func (t Target) CachePrefixes(keyPrefix string) []string {
	if t.Layout {
		return []string{keyPrefix}
	}
	prefixes := make([]string, 0, len(t.Paths))
	for _, p := range t.Paths {
		if p == "/" {
			continue
		}
		prefixes = append(prefixes, keyPrefix+p)
	}
	return prefixes
}
